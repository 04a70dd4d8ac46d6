package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// AssessmentEvent is the message published for each completed assessment.
type AssessmentEvent struct {
	ID          string            `json:"id"`
	ProducedAt  time.Time         `json:"produced_at"`
	Assessment  domain.Assessment `json:"assessment"`
	EngineModel string            `json:"engine_model"`
}

// engineModel identifies the estimator ensemble that produced the event.
const engineModel = "percentile_threshold+feature_weighted+physics_heuristic"

// Publisher produces assessment events to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a Kafka producer for the configured assessment topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAssessmentTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger, now: time.Now}
}

// Publish serializes and writes one assessment event. Events for the same
// coordinate share a key so they land on one partition in order.
func (p *Publisher) Publish(ctx context.Context, a domain.Assessment) error {
	msg, err := serializeToMessage(newEvent(a, p.now()))
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write assessment event: %w", err)
	}
	p.logger.Debug("assessment published", "topic", p.writer.Topic, "key", string(msg.Key))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newEvent(a domain.Assessment, now time.Time) AssessmentEvent {
	return AssessmentEvent{
		ID:          uuid.NewString(),
		ProducedAt:  now.UTC(),
		Assessment:  a,
		EngineModel: engineModel,
	}
}

// coordinateKey is the partition key for a query location.
func coordinateKey(q domain.TargetQuery) string {
	return strconv.FormatFloat(q.Latitude, 'f', 4, 64) + "," + strconv.FormatFloat(q.Longitude, 'f', 4, 64)
}

// serializeToMessage marshals an AssessmentEvent into a Kafka message.
func serializeToMessage(event AssessmentEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(coordinateKey(event.Assessment.Query)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "temporal_classification", Value: []byte(event.Assessment.TemporalClassification)},
			{Key: "produced_at", Value: []byte(event.ProducedAt.Format(time.RFC3339))},
		},
	}, nil
}
