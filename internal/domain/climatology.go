package domain

import "context"

// Variable names a tracked climatology quantity.
type Variable string

const (
	TemperatureMax   Variable = "temperature_max"
	TemperatureMin   Variable = "temperature_min"
	Precipitation    Variable = "precipitation"
	WindSpeed        Variable = "wind_speed"
	RelativeHumidity Variable = "relative_humidity"
	DewPoint         Variable = "dew_point"

	// DiscomfortIndex is derived, not supplied by the provider.
	DiscomfortIndex Variable = "discomfort_index"
)

// RawVariables lists the provider-supplied variables in display order.
var RawVariables = []Variable{TemperatureMax, TemperatureMin, Precipitation, WindSpeed, RelativeHumidity, DewPoint}

// TrackedVariables is RawVariables plus derived variables.
var TrackedVariables = append(append([]Variable{}, RawVariables...), DiscomfortIndex)

// discomfortHumidityWeight scales relative humidity into the discomfort index.
const discomfortHumidityWeight = 0.1

// MonthlyRecord holds one month of climatology.
type MonthlyRecord struct {
	TemperatureMax   float64 `json:"temperature_max"`   // °C
	TemperatureMin   float64 `json:"temperature_min"`   // °C
	Precipitation    float64 `json:"precipitation"`     // mm/day
	WindSpeed        float64 `json:"wind_speed"`        // m/s at 2 m
	RelativeHumidity float64 `json:"relative_humidity"` // %
	DewPoint         float64 `json:"dew_point"`         // °C
}

// Value returns the record's value for v, including derived variables.
func (r MonthlyRecord) Value(v Variable) float64 {
	switch v {
	case TemperatureMax:
		return r.TemperatureMax
	case TemperatureMin:
		return r.TemperatureMin
	case Precipitation:
		return r.Precipitation
	case WindSpeed:
		return r.WindSpeed
	case RelativeHumidity:
		return r.RelativeHumidity
	case DewPoint:
		return r.DewPoint
	case DiscomfortIndex:
		return r.TemperatureMax + discomfortHumidityWeight*r.RelativeHumidity
	default:
		return 0
	}
}

// ClimatologySeries is a 12-slot monthly climatology indexed January..December.
// A nil slot is a month the provider could not supply.
type ClimatologySeries struct {
	Months [12]*MonthlyRecord `json:"months"`
}

// Month returns the record for a 1-based calendar month, or nil when missing.
func (s ClimatologySeries) Month(month int) *MonthlyRecord {
	if month < 1 || month > 12 {
		return nil
	}
	return s.Months[month-1]
}

// ValidMonths counts the months present in the series.
func (s ClimatologySeries) ValidMonths() int {
	n := 0
	for _, m := range s.Months {
		if m != nil {
			n++
		}
	}
	return n
}

// MissingMonths returns the 1-based calendar months absent from the series.
func (s ClimatologySeries) MissingMonths() []int {
	var missing []int
	for i, m := range s.Months {
		if m == nil {
			missing = append(missing, i+1)
		}
	}
	return missing
}

// ClimatologyProvider retrieves a monthly climatology for a coordinate.
type ClimatologyProvider interface {
	// Climatology returns the series for the coordinate. Months the provider
	// could not supply are left nil rather than reported as an error.
	Climatology(ctx context.Context, lat, lon float64) (ClimatologySeries, error)
}
