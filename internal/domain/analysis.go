package domain

import (
	"fmt"
	"math"
	"strings"
)

// RiskLevel is a coarse label for a single probability.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ClassifyProbability buckets a probability: high ≥ 70, moderate ≥ 40,
// low ≥ 15, otherwise minimal.
func ClassifyProbability(p float64) RiskLevel {
	switch {
	case p >= 70:
		return RiskHigh
	case p >= 40:
		return RiskModerate
	case p >= 15:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// AnalysisRecord explains one category's probability.
type AnalysisRecord struct {
	Category            RiskCategory `json:"category"`
	Probability         float64      `json:"probability"`
	RiskLevel           RiskLevel    `json:"risk_level"`
	CurrentValue        float64      `json:"current_value"`
	ThresholdValue      float64      `json:"threshold_value"`
	StdDeviations       float64      `json:"std_deviations"`
	PercentileRank      float64      `json:"percentile_rank"`
	UncertaintyRange    Range        `json:"uncertainty_range"`
	ContributingFactors []string     `json:"contributing_factors"`
}

// Assessment is the engine's output contract.
type Assessment struct {
	Query                  TargetQuery                     `json:"query"`
	Probabilities          map[RiskCategory]float64        `json:"probabilities"`
	AccuracyMetrics        AccuracyMetrics                 `json:"accuracy_metrics"`
	DetailedAnalysis       map[RiskCategory]AnalysisRecord `json:"detailed_analysis"`
	TemporalClassification Classification                  `json:"temporal_classification"`
	Temporal               TemporalContext                 `json:"temporal"`
	ObservedMetrics        MonthlyRecord                   `json:"observed_metrics"`
	Conditions             []Condition                     `json:"conditions,omitempty"`
	Narrative              Narrative                       `json:"narrative"`
}

// HighestRisk returns the category with the largest probability. Ties keep
// evaluation order.
func (a Assessment) HighestRisk() (RiskCategory, float64) {
	best, bestP := Categories[0], -1.0
	for _, c := range Categories {
		if p, ok := a.Probabilities[c]; ok && p > bestP {
			best, bestP = c, p
		}
	}
	return best, bestP
}

// AssembleAssessment packages the pipeline stages into an Assessment. sc is
// the temporally adjusted context the estimators consumed.
func AssembleAssessment(q TargetQuery, sc StatisticalContext, tc TemporalContext, ensembles []EnsembleResult, metrics AccuracyMetrics, cal Calibration) Assessment {
	a := Assessment{
		Query:                  q,
		Probabilities:          make(map[RiskCategory]float64, len(ensembles)),
		AccuracyMetrics:        roundMetrics(metrics),
		DetailedAnalysis:       make(map[RiskCategory]AnalysisRecord, len(ensembles)),
		TemporalClassification: tc.Classification,
		Temporal:               tc,
		ObservedMetrics:        observed(sc),
	}

	for _, e := range ensembles {
		p := cal.Policies[e.Category]
		vs := sc.Var(p.Variable)
		prob := round2(e.FinalProbability)
		a.Probabilities[e.Category] = prob
		a.DetailedAnalysis[e.Category] = AnalysisRecord{
			Category:            e.Category,
			Probability:         prob,
			RiskLevel:           ClassifyProbability(prob),
			CurrentValue:        round2(vs.Target),
			ThresholdValue:      round2(PercentileValue(vs.Values, p.ThresholdPercentile)),
			StdDeviations:       round2(vs.ZScore),
			PercentileRank:      round2(vs.PercentileRank),
			UncertaintyRange:    Range{Min: round2(e.UncertaintyRange.Min), Max: round2(e.UncertaintyRange.Max)},
			ContributingFactors: contributingFactors(e, vs, sc, tc),
		}
	}

	if sc.Incomplete() {
		a.Conditions = append(a.Conditions, Condition{
			Kind:   DataIncomplete,
			Detail: fmt.Sprintf("%d of 12 months missing (%s); substituted with the series mean", 12-sc.ValidMonths, joinInts(sc.MissingMonths)),
		})
	}
	if sc.Degenerate() {
		a.Conditions = append(a.Conditions, Condition{
			Kind:   ComputationDegenerate,
			Detail: "no variation in any climatology variable; probabilities are neutral",
		})
	}
	return a
}

func contributingFactors(e EnsembleResult, vs VariableStats, sc StatisticalContext, tc TemporalContext) []string {
	factors := []string{
		fmt.Sprintf("%s estimator dominated the ensemble", e.Dominant.Label()),
		fmt.Sprintf("temporal classification: %s (%d)", tc.Classification.Label(), tc.TargetYear),
	}
	if vs.NoVariation {
		factors = append(factors, fmt.Sprintf("no month-to-month variation in %s; estimate is neutral", strings.ReplaceAll(string(vs.Variable), "_", " ")))
	} else {
		factors = append(factors, fmt.Sprintf("target month sits at the %.0fth percentile of the monthly climatology", vs.PercentileRank))
	}
	if tc.ClimateTrendAdjustment > 0 && isTemperature(vs.Variable) {
		factors = append(factors, fmt.Sprintf("warming adjustment of +%.2f°C applied", tc.ClimateTrendAdjustment))
	}
	if sc.Incomplete() {
		factors = append(factors, fmt.Sprintf("%d of 12 months substituted with the series mean", 12-sc.ValidMonths))
	}
	return factors
}

func isTemperature(v Variable) bool {
	for _, t := range temperatureVariables {
		if v == t {
			return true
		}
	}
	return false
}

// observed returns the target month's values as scored, after substitution
// and the warming adjustment.
func observed(sc StatisticalContext) MonthlyRecord {
	return MonthlyRecord{
		TemperatureMax:   round2(sc.Var(TemperatureMax).Target),
		TemperatureMin:   round2(sc.Var(TemperatureMin).Target),
		Precipitation:    round2(sc.Var(Precipitation).Target),
		WindSpeed:        round2(sc.Var(WindSpeed).Target),
		RelativeHumidity: round2(sc.Var(RelativeHumidity).Target),
		DewPoint:         round2(sc.Var(DewPoint).Target),
	}
}

func roundMetrics(m AccuracyMetrics) AccuracyMetrics {
	m.DataQualityScore = round2(m.DataQualityScore)
	m.StatisticalConfidence = round2(m.StatisticalConfidence)
	m.ModelReliability = round2(m.ModelReliability)
	m.OverallConfidence = round2(m.OverallConfidence)
	return m
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
