package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCalibration_CoversEveryCategory(t *testing.T) {
	cal := DefaultCalibration()
	for _, c := range Categories {
		p, ok := cal.Policies[c]
		require.True(t, ok, c)
		assert.Greater(t, p.ThresholdPercentile, 0.0)
		assert.Less(t, p.ThresholdPercentile, 100.0)
		assert.Contains(t, TrackedVariables, p.Variable)
		assert.Contains(t, TrackedVariables, p.Secondary)

		_, ok = cal.Features[c]
		assert.True(t, ok, c)
	}
	assert.Equal(t, LowerTail, cal.Policies[ExtremeCold].Tail)
}

func TestCalibration_EstimatorWeight(t *testing.T) {
	assert.Equal(t, 1.0, Calibration{}.EstimatorWeight(ExtremeHeat, PhysicsHeuristic))

	base := DefaultCalibration()
	tuned := base.WithEstimatorWeights(map[EstimatorName]float64{PhysicsHeuristic: 2.5})

	assert.Equal(t, 2.5, tuned.EstimatorWeight(HeavyPrecipitation, PhysicsHeuristic))
	assert.Equal(t, 1.0, tuned.EstimatorWeight(HeavyPrecipitation, FeatureWeighted))
	assert.Equal(t, 1.0, base.EstimatorWeight(HeavyPrecipitation, PhysicsHeuristic), "original is not modified")
}

func TestParseEstimatorWeights(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[EstimatorName]float64
		wantErr bool
	}{
		{name: "empty", in: "  ", want: map[EstimatorName]float64{}},
		{
			name: "two weights",
			in:   "percentile_threshold=2, physics_heuristic=0.5",
			want: map[EstimatorName]float64{PercentileThreshold: 2, PhysicsHeuristic: 0.5},
		},
		{name: "zero allowed", in: "feature_weighted=0", want: map[EstimatorName]float64{FeatureWeighted: 0}},
		{name: "unknown estimator", in: "oracle=1", wantErr: true},
		{name: "negative weight", in: "feature_weighted=-1", wantErr: true},
		{name: "missing value", in: "feature_weighted", wantErr: true},
		{name: "not a number", in: "feature_weighted=heavy", wantErr: true},
		{name: "infinite weight", in: "feature_weighted=Inf", wantErr: true},
		{name: "negative infinite weight", in: "physics_heuristic=-Inf", wantErr: true},
		{name: "NaN weight", in: "percentile_threshold=NaN", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEstimatorWeights(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRiskCategory_Label(t *testing.T) {
	assert.Equal(t, "heavy precipitation", HeavyPrecipitation.Label())
}
