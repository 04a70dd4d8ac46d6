package domain

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Range is a closed probability interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Width returns Max − Min.
func (r Range) Width() float64 { return r.Max - r.Min }

// EnsembleResult merges the estimators' outputs for one category.
type EnsembleResult struct {
	Category         RiskCategory      `json:"category"`
	FinalProbability float64           `json:"final_probability"`
	UncertaintyRange Range             `json:"uncertainty_range"`
	Spread           float64           `json:"spread"`
	Dominant         EstimatorName     `json:"dominant_estimator"`
	Members          []EstimatorResult `json:"members"`
}

// CombineEnsemble computes the weighted mean of the estimator probabilities,
// each weighted by its configured weight times its local confidence. When all
// effective weights are zero the unweighted mean is used. The uncertainty
// range is final ± the population standard deviation of the members, widened
// for future target years.
func CombineEnsemble(category RiskCategory, results []EstimatorResult, cal Calibration, tc TemporalContext) EnsembleResult {
	out := EnsembleResult{
		Category: category,
		Members:  results,
	}
	if len(results) == 0 {
		out.FinalProbability = 50
		out.UncertaintyRange = Range{Min: 50, Max: 50}
		return out
	}

	var weighted, total, plain float64
	dominantWeight := -1.0
	for _, r := range results {
		w := cal.EstimatorWeight(category, r.Estimator) * r.LocalConfidence
		weighted += r.Probability * w
		total += w
		plain += r.Probability
		// The dominant member moves the mean furthest from neutral.
		if pull := w * math.Abs(r.Probability-50); pull > dominantWeight {
			dominantWeight = pull
			out.Dominant = r.Estimator
		}
	}
	n := float64(len(results))
	if total > 0 {
		out.FinalProbability = clampPercent(weighted / total)
	} else {
		out.FinalProbability = clampPercent(plain / n)
	}

	probs := make(stats.Float64Data, len(results))
	for i, r := range results {
		probs[i] = r.Probability
	}
	sd, _ := stats.StandardDeviationPopulation(probs) // non-empty input cannot fail
	out.Spread = sd * tc.HorizonFactor()
	out.UncertaintyRange = Range{
		Min: clampPercent(out.FinalProbability - out.Spread),
		Max: clampPercent(out.FinalProbability + out.Spread),
	}
	return out
}
