package domain

import "math"

// EstimatorName tags an estimator implementation.
type EstimatorName string

const (
	PercentileThreshold EstimatorName = "percentile_threshold"
	FeatureWeighted     EstimatorName = "feature_weighted"
	PhysicsHeuristic    EstimatorName = "physics_heuristic"
)

// Valid reports whether n names a known estimator.
func (n EstimatorName) Valid() bool {
	switch n {
	case PercentileThreshold, FeatureWeighted, PhysicsHeuristic:
		return true
	}
	return false
}

// Label returns a human-readable estimator name.
func (n EstimatorName) Label() string {
	switch n {
	case PercentileThreshold:
		return "percentile-threshold"
	case FeatureWeighted:
		return "feature-weighted"
	case PhysicsHeuristic:
		return "physics-heuristic"
	default:
		return string(n)
	}
}

// EstimatorResult is one estimator's opinion on one category.
type EstimatorResult struct {
	Estimator       EstimatorName `json:"estimator"`
	Probability     float64       `json:"probability"`
	LocalConfidence float64       `json:"local_confidence"`
}

// Estimator produces a probability and local confidence for a category.
// Implementations are pure and safe for concurrent use.
type Estimator interface {
	Name() EstimatorName
	Estimate(category RiskCategory, sc StatisticalContext, tc TemporalContext) EstimatorResult
}

// NewEstimators returns the three production estimators bound to cal.
func NewEstimators(cal Calibration) []Estimator {
	return []Estimator{
		PercentileThresholdEstimator{Policies: cal.Policies},
		FeatureWeightedEstimator{Policies: cal.Policies, Features: cal.Features},
		PhysicsHeuristicEstimator{Policies: cal.Policies},
	}
}

// flatConfidencePenalty is subtracted from local confidence when the primary
// variable has no variation.
const flatConfidencePenalty = 40

// localConfidence is 100 for a complete, varying series and drops with missing
// months and zero variance.
func localConfidence(sc StatisticalContext, v Variable) float64 {
	conf := 100 * float64(sc.ValidMonths) / 12
	if sc.Var(v).NoVariation {
		conf -= flatConfidencePenalty
	}
	return clampPercent(conf)
}

// percentileResponse maps a percentile rank to a probability that is 50 at
// the threshold, 100 at the extreme end of the tail and 0 at the far end.
func percentileResponse(rank float64, p CategoryPolicy) float64 {
	if p.Tail == LowerTail {
		k := 50 / p.ThresholdPercentile
		return clampPercent(50 + (p.ThresholdPercentile-rank)*k)
	}
	k := 50 / (100 - p.ThresholdPercentile)
	return clampPercent(50 + (rank-p.ThresholdPercentile)*k)
}

// flat reports whether v carries no usable signal: either v itself has no
// variation or the whole series is degenerate.
func flat(sc StatisticalContext, v Variable) bool {
	return sc.Var(v).NoVariation || sc.Degenerate()
}

// neutral is returned for a category whose source variable has no variation.
func neutral(name EstimatorName, sc StatisticalContext, v Variable) EstimatorResult {
	return EstimatorResult{Estimator: name, Probability: 50, LocalConfidence: localConfidence(sc, v)}
}

// PercentileThresholdEstimator maps the target's percentile rank through a
// linear response centred on the category threshold.
type PercentileThresholdEstimator struct {
	Policies map[RiskCategory]CategoryPolicy
}

func (PercentileThresholdEstimator) Name() EstimatorName { return PercentileThreshold }

func (e PercentileThresholdEstimator) Estimate(category RiskCategory, sc StatisticalContext, _ TemporalContext) EstimatorResult {
	p := e.Policies[category]
	vs := sc.Var(p.Variable)
	if flat(sc, p.Variable) {
		return neutral(PercentileThreshold, sc, p.Variable)
	}
	return EstimatorResult{
		Estimator:       PercentileThreshold,
		Probability:     percentileResponse(vs.PercentileRank, p),
		LocalConfidence: localConfidence(sc, p.Variable),
	}
}

// FeatureWeightedEstimator is a logistic combination of the primary and
// secondary z-scores plus the temporal era and cycle terms.
type FeatureWeightedEstimator struct {
	Policies map[RiskCategory]CategoryPolicy
	Features map[RiskCategory]FeatureWeights
}

func (FeatureWeightedEstimator) Name() EstimatorName { return FeatureWeighted }

func (e FeatureWeightedEstimator) Estimate(category RiskCategory, sc StatisticalContext, tc TemporalContext) EstimatorResult {
	p := e.Policies[category]
	vs := sc.Var(p.Variable)
	if flat(sc, p.Variable) {
		return neutral(FeatureWeighted, sc, p.Variable)
	}
	w := e.Features[category]
	logit := w.Primary*vs.ZScore +
		w.Secondary*sc.Var(p.Secondary).ZScore +
		w.Bias +
		w.Era*tc.ClimateEraFactor +
		w.Cycle*tc.LongTermCycle
	return EstimatorResult{
		Estimator:       FeatureWeighted,
		Probability:     clampPercent(100 / (1 + math.Exp(-logit))),
		LocalConfidence: localConfidence(sc, p.Variable),
	}
}

// PhysicsHeuristicEstimator ranks an apparent value (heat index, wind chill,
// humidex and friends) and re-applies the percentile response to that rank.
type PhysicsHeuristicEstimator struct {
	Policies map[RiskCategory]CategoryPolicy
}

func (PhysicsHeuristicEstimator) Name() EstimatorName { return PhysicsHeuristic }

func (e PhysicsHeuristicEstimator) Estimate(category RiskCategory, sc StatisticalContext, _ TemporalContext) EstimatorResult {
	p := e.Policies[category]
	if flat(sc, p.Variable) {
		return neutral(PhysicsHeuristic, sc, p.Variable)
	}
	rank, ok := apparentRank(category, sc)
	if !ok {
		return neutral(PhysicsHeuristic, sc, p.Variable)
	}
	return EstimatorResult{
		Estimator:       PhysicsHeuristic,
		Probability:     percentileResponse(rank, p),
		LocalConfidence: localConfidence(sc, p.Variable),
	}
}
