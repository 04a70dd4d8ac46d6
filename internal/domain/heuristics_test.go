package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatIndex(t *testing.T) {
	assert.InDelta(t, 40.675, HeatIndex(35, 50), 1e-3)
	assert.Equal(t, 20.0, HeatIndex(20, 50), "below 80°F the air temperature is returned")
	assert.Greater(t, HeatIndex(35, 80), HeatIndex(35, 40))
}

func TestWindChill(t *testing.T) {
	assert.InDelta(t, -17.86, WindChill(-10, 20/3.6), 1e-2)
	assert.Equal(t, 15.0, WindChill(15, 5), "warm air has no wind chill")
	assert.Equal(t, 5.0, WindChill(5, 1), "calm air has no wind chill")
	assert.Less(t, WindChill(-10, 10), WindChill(-10, 3))
}

func TestHumidex(t *testing.T) {
	assert.InDelta(t, 37.57, Humidex(30, 20), 1e-2)
	assert.Greater(t, Humidex(30, 24), Humidex(30, 10))
}

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.8413, normalCDF(1), 1e-4)
	assert.InDelta(t, 0.1587, normalCDF(-1), 1e-4)
}

func TestApparentRank(t *testing.T) {
	july, err := ComputeStatistics(temperateSeries(), 7)
	require.NoError(t, err)
	january, err := ComputeStatistics(temperateSeries(), 1)
	require.NoError(t, err)

	for _, c := range Categories {
		t.Run(string(c), func(t *testing.T) {
			r, ok := apparentRank(c, july)
			require.True(t, ok)
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, r, 100.0)
		})
	}

	summerHeat, _ := apparentRank(ExtremeHeat, july)
	winterHeat, _ := apparentRank(ExtremeHeat, january)
	assert.Greater(t, summerHeat, winterHeat)

	summerChill, _ := apparentRank(ExtremeCold, july)
	winterChill, _ := apparentRank(ExtremeCold, january)
	assert.Less(t, winterChill, summerChill, "january wind chill ranks low")
}

func TestApparentRank_FlatPrimary(t *testing.T) {
	sc, err := ComputeStatistics(constantSeries(5), 6)
	require.NoError(t, err)

	r, ok := apparentRank(ExtremeHeat, sc)
	assert.False(t, ok)
	assert.Equal(t, 50.0, r)
}
