// Package events publishes completed-transcript events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Cordycepsers/final-transcript/internal/config"
	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/observability"
)

// CompletedEvent is the payload emitted after a result has been scored and
// written to the results store.
type CompletedEvent struct {
	EventType         string    `json:"event_type"`
	JobID             string    `json:"job_id"`
	Email             string    `json:"email"`
	Question          string    `json:"question"`
	MediaURL          string    `json:"media_url"`
	QualityRating     string    `json:"quality_rating"`
	OverallConfidence float64   `json:"overall_confidence"`
	NLPQualityScore   float64   `json:"nlp_quality_score"`
	StoredAt          time.Time `json:"stored_at"`
}

// Publisher emits completed-transcript events. When Kafka is disabled it
// runs in log-only mode and every publish succeeds without a broker.
type Publisher struct {
	writer    *kafka.Writer
	topic     string
	principal string
	enabled   bool
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewPublisher creates a Kafka publisher from configuration.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, log *logger.Logger) *Publisher {
	plog := log.WithComponent("events")

	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		plog.Info("Kafka disabled, using log-only mode")
		return &Publisher{
			topic:     cfg.Kafka.Topic,
			principal: cfg.Kafka.Principal,
			metrics:   metrics,
			log:       plog,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	plog.WithFields(map[string]interface{}{
		"brokers": cfg.Kafka.Brokers,
		"topic":   cfg.Kafka.Topic,
	}).Info("Kafka publisher initialized")

	return &Publisher{
		writer:    writer,
		topic:     cfg.Kafka.Topic,
		principal: cfg.Kafka.Principal,
		enabled:   true,
		metrics:   metrics,
		log:       plog,
	}
}

// PublishCompleted emits one completed-transcript event. Messages are keyed
// by contact email so one respondent's events land in the same partition.
func (p *Publisher) PublishCompleted(ctx context.Context, event CompletedEvent) error {
	event.EventType = "transcript.completed"

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(err).Error("Failed to marshal event")
		p.metrics.RecordEventPublish(err)
		return err
	}

	if !p.enabled || p.writer == nil {
		p.log.WithField("job_id", event.JobID).Debug("Event logged (Kafka disabled)")
		p.metrics.RecordEventPublish(nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.Email),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.EventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.WithError(err).WithField("job_id", event.JobID).Error("Failed to write to Kafka")
		p.metrics.RecordEventPublish(err)
		return err
	}

	p.metrics.RecordEventPublish(nil)
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
