package domain

import "math"

// Classification buckets the target year relative to the current year.
type Classification string

const (
	Historical         Classification = "historical"
	Current            Classification = "current"
	NextYearForecast   Classification = "next_year_forecast"
	LongTermProjection Classification = "long_term_projection"
)

// Label returns a human-readable classification.
func (c Classification) Label() string {
	switch c {
	case Historical:
		return "historical analysis"
	case Current:
		return "current year"
	case NextYearForecast:
		return "next-year forecast"
	case LongTermProjection:
		return "long-term projection"
	default:
		return string(c)
	}
}

const (
	baselineYear        = 2020
	eraSpanYears        = 50.0
	cyclePeriodYears    = 100.0
	warmingPerYear      = 0.05 // °C
	horizonWidening     = 0.1
	maxHorizonExpansion = 3.0
)

// TemporalContext holds deterministic year-based adjustments for one query.
type TemporalContext struct {
	TargetYear             int            `json:"target_year"`
	CurrentYear            int            `json:"current_year"`
	YearOffset             int            `json:"year_offset"`
	Classification         Classification `json:"classification"`
	ClimateEraFactor       float64        `json:"climate_era_factor"`
	LongTermCycle          float64        `json:"long_term_cycle"`
	ClimateTrendAdjustment float64        `json:"climate_trend_adjustment"` // °C
}

// ResolveTemporalContext classifies targetYear against currentYear and derives
// the era, cycle and warming terms.
func ResolveTemporalContext(targetYear, currentYear int) TemporalContext {
	offset := targetYear - currentYear

	var class Classification
	switch {
	case offset < 0:
		class = Historical
	case offset == 0:
		class = Current
	case offset == 1:
		class = NextYearForecast
	default:
		class = LongTermProjection
	}

	era := -1.0
	if targetYear >= baselineYear {
		era = math.Max(-1, math.Min(1, float64(targetYear-baselineYear)/eraSpanYears))
	}

	return TemporalContext{
		TargetYear:             targetYear,
		CurrentYear:            currentYear,
		YearOffset:             offset,
		Classification:         class,
		ClimateEraFactor:       era,
		LongTermCycle:          math.Sin(2 * math.Pi * float64(targetYear) / cyclePeriodYears),
		ClimateTrendAdjustment: warmingPerYear * math.Max(0, float64(targetYear-baselineYear)),
	}
}

// IsForecast reports whether the target year lies in the future.
func (t TemporalContext) IsForecast() bool {
	return t.Classification == NextYearForecast || t.Classification == LongTermProjection
}

// HorizonFactor is the multiplier applied to ensemble spread: 1 + 0.1·|offset|
// for future years, capped at 3.
func (t TemporalContext) HorizonFactor() float64 {
	if !t.IsForecast() {
		return 1
	}
	return math.Min(1+horizonWidening*math.Abs(float64(t.YearOffset)), maxHorizonExpansion)
}

// temperatureVariables receive the warming adjustment.
var temperatureVariables = []Variable{TemperatureMax, TemperatureMin, DiscomfortIndex}

// Adjust returns a copy of sc whose temperature-derived targets are shifted by
// the warming adjustment. Monthly distributions are left untouched.
func (t TemporalContext) Adjust(sc StatisticalContext) StatisticalContext {
	if t.ClimateTrendAdjustment == 0 {
		return sc
	}
	vars := make(map[Variable]VariableStats, len(sc.Variables))
	for k, v := range sc.Variables {
		vars[k] = v
	}
	for _, v := range temperatureVariables {
		if vs, ok := vars[v]; ok {
			vars[v] = vs.Shift(t.ClimateTrendAdjustment)
		}
	}
	sc.Variables = vars
	return sc
}
