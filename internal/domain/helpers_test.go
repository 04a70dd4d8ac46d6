package domain

// temperateSeries is a mid-latitude coastal climatology (New York-like).
func temperateSeries() ClimatologySeries {
	tmax := []float64{4, 6, 10, 17, 22, 27, 29, 28, 24, 18, 12, 6}
	tmin := []float64{-3, -2, 2, 7, 12, 18, 21, 20, 16, 10, 5, 0}
	precip := []float64{3.3, 2.9, 3.6, 3.5, 3.5, 3.6, 3.8, 3.6, 3.4, 3.5, 3.2, 3.4}
	wind := []float64{5.5, 5.6, 5.6, 5.2, 4.5, 4.1, 3.8, 3.7, 4.0, 4.5, 5.0, 5.3}
	rh := []float64{63, 61, 59, 58, 65, 68, 69, 71, 71, 68, 66, 65}
	dew := []float64{-6, -5, -2, 3, 9, 15, 18, 18, 14, 8, 2, -3}

	var s ClimatologySeries
	for i := range s.Months {
		s.Months[i] = &MonthlyRecord{
			TemperatureMax:   tmax[i],
			TemperatureMin:   tmin[i],
			Precipitation:    precip[i],
			WindSpeed:        wind[i],
			RelativeHumidity: rh[i],
			DewPoint:         dew[i],
		}
	}
	return s
}

// constantSeries has the same value for every variable in every month.
func constantSeries(v float64) ClimatologySeries {
	var s ClimatologySeries
	for i := range s.Months {
		s.Months[i] = &MonthlyRecord{
			TemperatureMax:   v,
			TemperatureMin:   v,
			Precipitation:    v,
			WindSpeed:        v,
			RelativeHumidity: v,
			DewPoint:         v,
		}
	}
	return s
}

func withPrecipitation(s ClimatologySeries, precip []float64) ClimatologySeries {
	var out ClimatologySeries
	for i, m := range s.Months {
		rec := *m
		rec.Precipitation = precip[i]
		out.Months[i] = &rec
	}
	return out
}

func withMissing(s ClimatologySeries, months ...int) ClimatologySeries {
	out := s
	for _, m := range months {
		out.Months[m-1] = nil
	}
	return out
}
