package pipeline_test

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCurrentYear = 2026

func loadSeries(t *testing.T, name string) domain.ClimatologySeries {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	var s domain.ClimatologySeries
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func query(month, year int) domain.TargetQuery {
	return domain.TargetQuery{Latitude: 40.7128, Longitude: -74.006, Month: month, Day: 15, Year: year}
}

func evaluate(t *testing.T, series domain.ClimatologySeries, q domain.TargetQuery) domain.Assessment {
	t.Helper()
	a, _, err := pipeline.NewEngine(domain.DefaultCalibration()).Evaluate(series, q, testCurrentYear)
	require.NoError(t, err)
	return a
}

func TestEvaluate_OutlierPrecipitation(t *testing.T) {
	a := evaluate(t, loadSeries(t, "monsoon_outlier.json"), query(7, testCurrentYear))

	assert.Greater(t, a.Probabilities[domain.HeavyPrecipitation], 80.0)
	assert.Equal(t, domain.UncertaintyLow, a.AccuracyMetrics.UncertaintyLevel)
	assert.Equal(t, 100.0, a.AccuracyMetrics.DataQualityScore)
	assert.Equal(t, domain.Current, a.TemporalClassification)

	rec := a.DetailedAnalysis[domain.HeavyPrecipitation]
	assert.Equal(t, 800.0, rec.CurrentValue)
	assert.Greater(t, rec.StdDeviations, 3.0)
	assert.Equal(t, domain.RiskHigh, rec.RiskLevel)
	assert.Empty(t, a.Conditions)
}

func TestEvaluate_NearlyConstantSeries(t *testing.T) {
	a := evaluate(t, loadSeries(t, "flat.json"), query(3, testCurrentYear))

	for _, c := range domain.Categories {
		assert.InDelta(t, 50, a.Probabilities[c], 5, c)
	}
	assert.Contains(t, []domain.UncertaintyLevel{domain.UncertaintyModerate, domain.UncertaintyHigh}, a.AccuracyMetrics.UncertaintyLevel)
	assert.Less(t, a.AccuracyMetrics.DataQualityScore, 100.0)
	require.NotEmpty(t, a.Conditions)
	assert.Equal(t, domain.ComputationDegenerate, a.Conditions[len(a.Conditions)-1].Kind)
}

func TestEvaluate_DryClimatePrecipitationIsRanked(t *testing.T) {
	// Desert precipitation in mm/day: small in magnitude but clearly seasonal.
	arid := []float64{0.2, 0.15, 0.1, 0.03, 0.01, 0, 0, 0, 0, 0.02, 0.05, 0.15}
	series := loadSeries(t, "temperate.json")
	for i, m := range series.Months {
		m.Precipitation = arid[i]
	}

	wettest := evaluate(t, series, query(1, testCurrentYear))
	driest := evaluate(t, series, query(7, testCurrentYear))

	assert.Greater(t, wettest.Probabilities[domain.HeavyPrecipitation], 80.0)
	assert.Less(t, driest.Probabilities[domain.HeavyPrecipitation], 15.0)
	assert.Greater(t, wettest.DetailedAnalysis[domain.HeavyPrecipitation].PercentileRank, 90.0)
	for _, a := range []domain.Assessment{wettest, driest} {
		assert.Equal(t, 100.0, a.AccuracyMetrics.DataQualityScore)
		assert.Empty(t, a.Conditions)
	}
}

func TestEvaluate_TargetAtMeanScoresBelowThresholds(t *testing.T) {
	// A missing target month takes the mean of the others, so every variable
	// sits exactly at its climatological mean. Thresholds are upper or lower
	// tail percentiles, which the mean does not reach.
	series := loadSeries(t, "temperate.json")
	series.Months[6] = nil

	a := evaluate(t, series, query(7, 2020))

	assert.Equal(t, domain.Historical, a.TemporalClassification)
	for _, c := range domain.Categories {
		assert.Less(t, a.Probabilities[c], 15.0, c)
		assert.InDelta(t, 0, a.DetailedAnalysis[c].StdDeviations, 0.01, c)
	}
	assert.Equal(t, 91.0, a.AccuracyMetrics.DataQualityScore)
}

func TestEvaluate_FutureYearWidensUncertainty(t *testing.T) {
	series := loadSeries(t, "temperate.json")
	now := evaluate(t, series, query(7, testCurrentYear))
	later := evaluate(t, series, query(7, testCurrentYear+10))

	assert.Equal(t, domain.Current, now.TemporalClassification)
	assert.Equal(t, domain.LongTermProjection, later.TemporalClassification)
	for _, c := range domain.Categories {
		assert.Greater(t,
			later.DetailedAnalysis[c].UncertaintyRange.Width(),
			now.DetailedAnalysis[c].UncertaintyRange.Width(), c)
	}
}

func TestEvaluate_MissingMonths(t *testing.T) {
	a := evaluate(t, loadSeries(t, "temperate_gaps.json"), query(9, testCurrentYear))

	assert.LessOrEqual(t, a.AccuracyMetrics.DataQualityScore, 66.0)
	require.NotEmpty(t, a.Conditions)
	assert.Equal(t, domain.DataIncomplete, a.Conditions[0].Kind)
	assert.Contains(t, a.Conditions[0].Detail, "2, 5, 9, 11")

	assert.Len(t, a.Probabilities, len(domain.Categories))
	assert.Len(t, a.DetailedAnalysis, len(domain.Categories))
	for _, c := range domain.Categories {
		assert.Contains(t, a.DetailedAnalysis[c].ContributingFactors, "4 of 12 months substituted with the series mean")
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	series := loadSeries(t, "temperate_gaps.json")
	engine := pipeline.NewEngine(domain.DefaultCalibration())

	a1, r1, err := engine.Evaluate(series, query(1, 2031), testCurrentYear)
	require.NoError(t, err)
	a2, r2, err := engine.Evaluate(series, query(1, 2031), testCurrentYear)
	require.NoError(t, err)

	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("assessment mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("narrative request mismatch (-first +second):\n%s", diff)
	}
}

func TestEvaluate_ProbabilitiesBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	engine := pipeline.NewEngine(domain.DefaultCalibration())

	for i := range 200 {
		var s domain.ClimatologySeries
		for m := range s.Months {
			if rng.Intn(10) == 0 {
				continue
			}
			s.Months[m] = &domain.MonthlyRecord{
				TemperatureMax:   rng.Float64()*70 - 20,
				TemperatureMin:   rng.Float64()*60 - 40,
				Precipitation:    rng.ExpFloat64() * 5,
				WindSpeed:        rng.Float64() * 15,
				RelativeHumidity: rng.Float64() * 100,
				DewPoint:         rng.Float64()*50 - 25,
			}
		}
		if s.ValidMonths() == 0 {
			continue
		}
		year := 1950 + rng.Intn(151)
		a, _, err := engine.Evaluate(s, query(1+rng.Intn(12), year), testCurrentYear)
		require.NoError(t, err, "iteration %d", i)

		for _, c := range domain.Categories {
			p := a.Probabilities[c]
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 100.0)
			rec := a.DetailedAnalysis[c]
			assert.GreaterOrEqual(t, rec.PercentileRank, 0.0)
			assert.LessOrEqual(t, rec.PercentileRank, 100.0)
			assert.LessOrEqual(t, rec.UncertaintyRange.Min, p)
			assert.GreaterOrEqual(t, rec.UncertaintyRange.Max, p)
		}
		m := a.AccuracyMetrics
		assert.GreaterOrEqual(t, m.OverallConfidence, 0.0)
		assert.LessOrEqual(t, m.OverallConfidence, 100.0)
	}
}

func TestEvaluate_NarrativeRequestCarriesStages(t *testing.T) {
	series := loadSeries(t, "temperate.json")
	a, req, err := pipeline.NewEngine(domain.DefaultCalibration()).Evaluate(series, query(7, 2030), testCurrentYear)
	require.NoError(t, err)

	assert.Equal(t, series, req.Climatology)
	assert.Len(t, req.Ensembles, len(domain.Categories))
	assert.Equal(t, a.Probabilities, req.Probabilities)
	assert.Equal(t, a.Temporal, req.Temporal)
	// The payload carries the unadjusted statistics.
	assert.Equal(t, 29.0, req.Statistics[domain.TemperatureMax].Target)
	assert.Equal(t, 29.5, a.ObservedMetrics.TemperatureMax)
}

func TestEvaluate_ConfiguredWeightsShiftEnsemble(t *testing.T) {
	series := loadSeries(t, "temperate.json")
	q := query(7, testCurrentYear)

	base := evaluate(t, series, q)
	cal := domain.DefaultCalibration().WithEstimatorWeights(map[domain.EstimatorName]float64{
		domain.PercentileThreshold: 1,
		domain.FeatureWeighted:     0,
		domain.PhysicsHeuristic:    0,
	})
	only, _, err := pipeline.NewEngine(cal).Evaluate(series, q, testCurrentYear)
	require.NoError(t, err)

	// July is the warmest month, so the percentile estimator alone saturates.
	assert.Equal(t, 100.0, only.Probabilities[domain.ExtremeHeat])
	assert.Less(t, base.Probabilities[domain.ExtremeHeat], only.Probabilities[domain.ExtremeHeat])
}

func TestEvaluate_NoClimatology(t *testing.T) {
	_, _, err := pipeline.NewEngine(domain.DefaultCalibration()).Evaluate(domain.ClimatologySeries{}, query(1, 2026), testCurrentYear)
	require.ErrorIs(t, err, domain.ErrNoClimatology)
}
