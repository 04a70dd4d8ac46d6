package domain

import "math"

// HeatIndex returns the Rothfusz regression heat index in °C. Below 80 °F the
// regression does not apply and the air temperature is returned unchanged.
func HeatIndex(tempC, rh float64) float64 {
	t := tempC*9/5 + 32
	if t < 80 {
		return tempC
	}
	hi := -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		0.00683783*t*t -
		0.05481717*rh*rh +
		0.00122874*t*t*rh +
		0.00085282*t*rh*rh -
		0.00000199*t*t*rh*rh
	return (hi - 32) * 5 / 9
}

// WindChill returns the Environment Canada wind chill in °C for a wind speed
// in m/s. It applies at or below 10 °C with wind of at least 4.8 km/h.
func WindChill(tempC, windMS float64) float64 {
	kmh := windMS * 3.6
	if tempC > 10 || kmh < 4.8 {
		return tempC
	}
	f := math.Pow(kmh, 0.16)
	return 13.12 + 0.6215*tempC - 11.37*f + 0.3965*tempC*f
}

// Humidex returns the Canadian humidex for air temperature and dew point in °C.
func Humidex(tempC, dewPointC float64) float64 {
	e := 6.11 * math.Exp(5417.7530*(1/273.16-1/(273.15+dewPointC)))
	return tempC + 0.5555*(e-10)
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// apparentModel maps a sample of variable values to a category's apparent
// value. primary is the variable whose spread scales the apparent distribution.
type apparentModel struct {
	primary Variable
	value   func(sample func(Variable) float64, means func(Variable) float64) float64
}

var apparentModels = map[RiskCategory]apparentModel{
	ExtremeHeat: {
		primary: TemperatureMax,
		value: func(s, _ func(Variable) float64) float64 {
			return HeatIndex(s(TemperatureMax), s(RelativeHumidity))
		},
	},
	ExtremeCold: {
		primary: TemperatureMin,
		value: func(s, _ func(Variable) float64) float64 {
			return WindChill(s(TemperatureMin), s(WindSpeed))
		},
	},
	// Rain falling into saturated air is weighted up.
	HeavyPrecipitation: {
		primary: Precipitation,
		value: func(s, _ func(Variable) float64) float64 {
			return s(Precipitation) * (0.5 + s(RelativeHumidity)/100)
		},
	},
	// Gust proxy: wind scaled by how stormy the month is relative to normal.
	StrongWinds: {
		primary: WindSpeed,
		value: func(s, mean func(Variable) float64) float64 {
			ratio := 1.0
			if pm := mean(Precipitation); pm > 0 {
				ratio = math.Min(s(Precipitation)/pm, 3)
			}
			return s(WindSpeed) * (0.9 + 0.1*ratio)
		},
	},
	HeatDiscomfort: {
		primary: TemperatureMax,
		value: func(s, _ func(Variable) float64) float64 {
			return Humidex(s(TemperatureMax), s(DewPoint))
		},
	},
}

// apparentRank places the target month's apparent value within a normal
// approximation of the apparent distribution. The distribution is centred on
// the apparent value of the monthly means, with the primary variable's spread
// propagated through the model's local slope. ok is false when the primary
// variable has no variation.
func apparentRank(category RiskCategory, sc StatisticalContext) (rank float64, ok bool) {
	model, found := apparentModels[category]
	if !found {
		return 50, false
	}
	prim := sc.Var(model.primary)
	if prim.NoVariation {
		return 50, false
	}

	target := func(v Variable) float64 { return sc.Var(v).Target }
	mean := func(v Variable) float64 { return sc.Var(v).Mean }
	bumped := func(v Variable) float64 {
		if v == model.primary {
			return prim.Mean + prim.StdDev
		}
		return sc.Var(v).Mean
	}

	center := model.value(mean, mean)
	spread := math.Max(math.Abs(model.value(bumped, mean)-center), 1e-6)
	z := (model.value(target, mean) - center) / spread
	return clampPercent(normalCDF(z) * 100), true
}
