package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssessment() domain.Assessment {
	return domain.Assessment{
		Query: domain.TargetQuery{Latitude: 40.71284, Longitude: -74.006, Month: 7, Day: 4, Year: 2030},
		Probabilities: map[domain.RiskCategory]float64{
			domain.ExtremeHeat:        83.99,
			domain.HeavyPrecipitation: 12.5,
		},
		TemporalClassification: domain.LongTermProjection,
	}
}

func TestNewEvent(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 30, 0, 0, time.FixedZone("EDT", -4*3600))

	event := newEvent(testAssessment(), now)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, event.ProducedAt.Location())
	assert.True(t, event.ProducedAt.Equal(now))
	assert.Equal(t, engineModel, event.EngineModel)
	assert.Equal(t, 83.99, event.Assessment.Probabilities[domain.ExtremeHeat])

	assert.NotEqual(t, event.ID, newEvent(testAssessment(), now).ID)
}

func TestCoordinateKey(t *testing.T) {
	tests := []struct {
		name string
		q    domain.TargetQuery
		want string
	}{
		{"rounds to four places", domain.TargetQuery{Latitude: 40.71284, Longitude: -74.00601}, "40.7128,-74.0060"},
		{"origin", domain.TargetQuery{}, "0.0000,0.0000"},
		{"southern hemisphere", domain.TargetQuery{Latitude: -33.8688, Longitude: 151.2093}, "-33.8688,151.2093"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coordinateKey(tt.q))
		})
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 7, 1, 13, 30, 0, 0, time.UTC)
	event := AssessmentEvent{
		ID:          "evt-1",
		ProducedAt:  now,
		Assessment:  testAssessment(),
		EngineModel: engineModel,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("40.7128,-74.0060"), msg.Key)
	assert.Contains(t, string(msg.Value), `"extreme_heat":83.99`)
	assert.Contains(t, string(msg.Value), `"temporal_classification":"long_term_projection"`)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("evt-1"), msg.Headers[0].Value)
	assert.Equal(t, "temporal_classification", msg.Headers[1].Key)
	assert.Equal(t, []byte("long_term_projection"), msg.Headers[1].Value)
	assert.Equal(t, "produced_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded AssessmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.Assessment.Query, decoded.Assessment.Query)
}
