package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RiskCategory is one of the extreme-weather conditions the engine evaluates.
type RiskCategory string

const (
	ExtremeHeat        RiskCategory = "extreme_heat"
	ExtremeCold        RiskCategory = "extreme_cold"
	HeavyPrecipitation RiskCategory = "heavy_precipitation"
	StrongWinds        RiskCategory = "strong_winds"
	HeatDiscomfort     RiskCategory = "heat_discomfort"
)

// Categories lists every risk category in evaluation order.
var Categories = []RiskCategory{ExtremeHeat, ExtremeCold, HeavyPrecipitation, StrongWinds, HeatDiscomfort}

// Label returns a human-readable category name.
func (c RiskCategory) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// Tail selects which side of the distribution counts as extreme.
type Tail int

const (
	UpperTail Tail = iota
	LowerTail
)

// CategoryPolicy binds a category to its source variable and threshold.
type CategoryPolicy struct {
	Variable            Variable
	Secondary           Variable // second feature for the feature-weighted estimator
	ThresholdPercentile float64  // p*, 0–100
	Tail                Tail
}

// FeatureWeights parameterise the feature-weighted estimator's logit.
type FeatureWeights struct {
	Primary   float64
	Secondary float64
	Bias      float64
	Era       float64
	Cycle     float64
}

// Calibration is the explicit configuration shared by the estimators and
// the ensemble combiner.
type Calibration struct {
	Policies map[RiskCategory]CategoryPolicy
	Features map[RiskCategory]FeatureWeights

	// EstimatorWeights maps category → estimator → ensemble weight. A missing
	// entry weighs 1.
	EstimatorWeights map[RiskCategory]map[EstimatorName]float64
}

// DefaultCalibration returns the production calibration.
//
// Each feature bias is −Primary·z(p*), where z(p*) is the standard normal
// quantile of the threshold percentile, so a target sitting exactly at the
// threshold maps to a logit of zero before temporal terms.
func DefaultCalibration() Calibration {
	return Calibration{
		Policies: map[RiskCategory]CategoryPolicy{
			ExtremeHeat:        {Variable: TemperatureMax, Secondary: DewPoint, ThresholdPercentile: 90, Tail: UpperTail},
			ExtremeCold:        {Variable: TemperatureMin, Secondary: WindSpeed, ThresholdPercentile: 10, Tail: LowerTail},
			HeavyPrecipitation: {Variable: Precipitation, Secondary: RelativeHumidity, ThresholdPercentile: 80, Tail: UpperTail},
			StrongWinds:        {Variable: WindSpeed, Secondary: Precipitation, ThresholdPercentile: 85, Tail: UpperTail},
			HeatDiscomfort:     {Variable: DiscomfortIndex, Secondary: RelativeHumidity, ThresholdPercentile: 85, Tail: UpperTail},
		},
		Features: map[RiskCategory]FeatureWeights{
			ExtremeHeat:        {Primary: 2.0, Secondary: 0.3, Bias: -2.5631, Era: 0.15, Cycle: 0.05},
			ExtremeCold:        {Primary: -2.0, Secondary: 0.3, Bias: -2.5631, Era: -0.15, Cycle: 0.05},
			HeavyPrecipitation: {Primary: 2.0, Secondary: 0.3, Bias: -1.6832, Era: 0.05, Cycle: 0.1},
			StrongWinds:        {Primary: 2.0, Secondary: 0.2, Bias: -2.0729, Era: 0, Cycle: 0.05},
			HeatDiscomfort:     {Primary: 2.0, Secondary: 0.3, Bias: -2.0729, Era: 0.15, Cycle: 0},
		},
		EstimatorWeights: uniformWeights(1),
	}
}

func uniformWeights(w float64) map[RiskCategory]map[EstimatorName]float64 {
	out := make(map[RiskCategory]map[EstimatorName]float64, len(Categories))
	for _, c := range Categories {
		out[c] = map[EstimatorName]float64{
			PercentileThreshold: w,
			FeatureWeighted:     w,
			PhysicsHeuristic:    w,
		}
	}
	return out
}

// EstimatorWeight returns the ensemble weight for an estimator in a category.
func (c Calibration) EstimatorWeight(category RiskCategory, name EstimatorName) float64 {
	if w, ok := c.EstimatorWeights[category][name]; ok {
		return w
	}
	return 1
}

// WithEstimatorWeights returns a copy of c whose ensemble weights are
// overridden for every category by the given estimator weights.
func (c Calibration) WithEstimatorWeights(weights map[EstimatorName]float64) Calibration {
	out := make(map[RiskCategory]map[EstimatorName]float64, len(Categories))
	for _, cat := range Categories {
		m := make(map[EstimatorName]float64, 3)
		for name, w := range c.EstimatorWeights[cat] {
			m[name] = w
		}
		for name, w := range weights {
			m[name] = w
		}
		out[cat] = m
	}
	c.EstimatorWeights = out
	return c
}

// ParseEstimatorWeights parses "name=weight,name=weight". Weights must be
// finite and non-negative, and names must be known estimators.
func ParseEstimatorWeights(s string) (map[EstimatorName]float64, error) {
	out := make(map[EstimatorName]float64)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("estimator weight %q: expected name=weight", pair)
		}
		en := EstimatorName(strings.TrimSpace(name))
		if !en.Valid() {
			return nil, fmt.Errorf("unknown estimator %q", name)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("estimator %s: invalid weight %q", en, val)
		}
		out[en] = w
	}
	return out, nil
}
