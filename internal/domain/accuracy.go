package domain

import "math"

// UncertaintyLevel is the discrete bucket of overall confidence.
type UncertaintyLevel string

const (
	UncertaintyLow      UncertaintyLevel = "low"
	UncertaintyModerate UncertaintyLevel = "moderate"
	UncertaintyHigh     UncertaintyLevel = "high"
)

// LevelFor maps overall confidence to an uncertainty level.
func LevelFor(overall float64) UncertaintyLevel {
	switch {
	case overall >= 80:
		return UncertaintyLow
	case overall >= 60:
		return UncertaintyModerate
	default:
		return UncertaintyHigh
	}
}

// AccuracyMetrics quantify how much the probabilities can be trusted.
type AccuracyMetrics struct {
	DataQualityScore      float64          `json:"data_quality_score"`
	StatisticalConfidence float64          `json:"statistical_confidence"`
	ModelReliability      float64          `json:"model_reliability"`
	OverallConfidence     float64          `json:"overall_confidence"`
	UncertaintyLevel      UncertaintyLevel `json:"uncertainty_level"`
}

const (
	flatVariablePenalty   = 20
	sparseDataQualityCap  = 50
	sparseMonthsThreshold = 6
)

// ScoreAccuracy derives the confidence scores from the statistics, every
// estimator result and the per-category ensembles.
func ScoreAccuracy(sc StatisticalContext, ensembles []EnsembleResult) AccuracyMetrics {
	dq := math.Floor(100*float64(sc.ValidMonths)/12) - flatVariablePenalty*float64(sc.FlaggedRawVariables())
	dq = math.Max(0, dq)
	if sc.ValidMonths < sparseMonthsThreshold {
		dq = math.Min(dq, sparseDataQualityCap)
	}

	var width, conf float64
	members := 0
	for _, e := range ensembles {
		width += e.UncertaintyRange.Width()
		for _, r := range e.Members {
			conf += r.LocalConfidence
			members++
		}
	}
	statConf := 100.0
	if len(ensembles) > 0 {
		statConf = clampPercent(100 - width/float64(len(ensembles)))
	}
	reliability := 0.0
	if members > 0 {
		reliability = conf / float64(members)
	}

	overall := clampPercent(0.3*dq + 0.4*statConf + 0.3*reliability)
	level := LevelFor(overall)
	if sc.Degenerate() {
		level = UncertaintyHigh
	}
	return AccuracyMetrics{
		DataQualityScore:      dq,
		StatisticalConfidence: statConf,
		ModelReliability:      reliability,
		OverallConfidence:     overall,
		UncertaintyLevel:      level,
	}
}
