package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// A variable is treated as constant when its population standard deviation
// is below noVariationStdDev (variance < 0.01) and also no more than
// noVariationRelative of its largest magnitude. The second bound keeps
// low-magnitude variables such as desert precipitation ranked.
const (
	noVariationStdDev   = 0.1
	noVariationRelative = 0.01
)

// VariableStats summarises one variable across the 12 months and locates the
// target month's value within that distribution.
type VariableStats struct {
	Variable       Variable  `json:"variable"`
	Values         []float64 `json:"-"`
	Target         float64   `json:"target"`
	Mean           float64   `json:"mean"`
	StdDev         float64   `json:"std_dev"`
	PercentileRank float64   `json:"percentile_rank"`
	ZScore         float64   `json:"z_score"`
	NoVariation    bool      `json:"no_variation"`
}

// Shift returns a copy with delta added to the target value, re-ranked
// against the unchanged monthly distribution.
func (v VariableStats) Shift(delta float64) VariableStats {
	if delta == 0 {
		return v
	}
	v.Target += delta
	v.locate()
	return v
}

// locate computes PercentileRank and ZScore for Target.
func (v *VariableStats) locate() {
	if v.NoVariation {
		v.PercentileRank = 50
		v.ZScore = 0
		return
	}
	v.PercentileRank = PercentileRank(v.Values, v.Target)
	v.ZScore = (v.Target - v.Mean) / v.StdDev
}

// StatisticalContext carries per-variable statistics for one target month.
type StatisticalContext struct {
	TargetMonth   int                        `json:"target_month"`
	ValidMonths   int                        `json:"valid_months"`
	MissingMonths []int                      `json:"missing_months,omitempty"`
	Variables     map[Variable]VariableStats `json:"variables"`
}

// Var returns the statistics for v.
func (sc StatisticalContext) Var(v Variable) VariableStats {
	return sc.Variables[v]
}

// Incomplete reports whether any month was substituted.
func (sc StatisticalContext) Incomplete() bool {
	return sc.ValidMonths < 12
}

// FlaggedRawVariables counts provider variables with no variation.
func (sc StatisticalContext) FlaggedRawVariables() int {
	n := 0
	for _, v := range RawVariables {
		if sc.Variables[v].NoVariation {
			n++
		}
	}
	return n
}

// Degenerate reports whether every provider variable is constant.
func (sc StatisticalContext) Degenerate() bool {
	return sc.FlaggedRawVariables() == len(RawVariables)
}

// ComputeStatistics derives the statistical context for targetMonth (1–12).
// Missing months are replaced by the mean of the present months. It fails
// with ErrNoClimatology when no month is present.
func ComputeStatistics(series ClimatologySeries, targetMonth int) (StatisticalContext, error) {
	if targetMonth < 1 || targetMonth > 12 {
		return StatisticalContext{}, fmt.Errorf("%w: month %d", ErrInvalidInput, targetMonth)
	}
	months, err := fillMissing(series)
	if err != nil {
		return StatisticalContext{}, err
	}

	sc := StatisticalContext{
		TargetMonth:   targetMonth,
		ValidMonths:   series.ValidMonths(),
		MissingMonths: series.MissingMonths(),
		Variables:     make(map[Variable]VariableStats, len(TrackedVariables)),
	}
	for _, v := range TrackedVariables {
		values := make([]float64, 12)
		for i, m := range months {
			values[i] = m.Value(v)
		}
		vs, err := describe(v, values, values[targetMonth-1])
		if err != nil {
			return StatisticalContext{}, err
		}
		sc.Variables[v] = vs
	}
	return sc, nil
}

func describe(v Variable, values []float64, target float64) (VariableStats, error) {
	data := stats.Float64Data(values)
	mean, err := stats.Mean(data)
	if err != nil {
		return VariableStats{}, fmt.Errorf("mean of %s: %w", v, err)
	}
	sd, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return VariableStats{}, fmt.Errorf("std dev of %s: %w", v, err)
	}
	vs := VariableStats{
		Variable:    v,
		Values:      values,
		Target:      target,
		Mean:        mean,
		StdDev:      sd,
		NoVariation: isFlat(values, sd),
	}
	vs.locate()
	return vs, nil
}

func isFlat(values []float64, sd float64) bool {
	if sd >= noVariationStdDev {
		return false
	}
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, math.Abs(v))
	}
	return sd <= noVariationRelative*peak
}

// fillMissing substitutes each missing month with the per-variable mean of
// the months that are present.
func fillMissing(series ClimatologySeries) ([12]MonthlyRecord, error) {
	var out [12]MonthlyRecord
	var sum MonthlyRecord
	n := 0
	for _, m := range series.Months {
		if m == nil {
			continue
		}
		sum.TemperatureMax += m.TemperatureMax
		sum.TemperatureMin += m.TemperatureMin
		sum.Precipitation += m.Precipitation
		sum.WindSpeed += m.WindSpeed
		sum.RelativeHumidity += m.RelativeHumidity
		sum.DewPoint += m.DewPoint
		n++
	}
	if n == 0 {
		return out, ErrNoClimatology
	}
	fn := float64(n)
	mean := MonthlyRecord{
		TemperatureMax:   sum.TemperatureMax / fn,
		TemperatureMin:   sum.TemperatureMin / fn,
		Precipitation:    sum.Precipitation / fn,
		WindSpeed:        sum.WindSpeed / fn,
		RelativeHumidity: sum.RelativeHumidity / fn,
		DewPoint:         sum.DewPoint / fn,
	}
	for i, m := range series.Months {
		if m == nil {
			out[i] = mean
			continue
		}
		out[i] = *m
	}
	return out, nil
}

// PercentileRank returns (countBelow + 0.5·countEqual) / n · 100.
func PercentileRank(values []float64, v float64) float64 {
	if len(values) == 0 {
		return 50
	}
	below, equal := 0, 0
	for _, x := range values {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	return clampPercent((float64(below) + 0.5*float64(equal)) / float64(len(values)) * 100)
}

// PercentileValue linearly interpolates the p-th percentile (0–100) of values.
func PercentileValue(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := math.Max(0, math.Min(100, p)) / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func clampPercent(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 50
	case x < 0:
		return 0
	case x > 100:
		return 100
	default:
		return x
	}
}
