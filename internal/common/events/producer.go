// Package events publishes pipeline results to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"
)

const TypeTicketAnalyzed = "ticket.analyzed"

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TicketAnalyzed is the payload published after a pipeline run.
type TicketAnalyzed struct {
	Type       string      `json:"type"`
	TicketID   string      `json:"ticketId"`
	Outcome    string      `json:"outcome"`
	OccurredAt string      `json:"occurredAt"`
	Analysis   interface{} `json:"analysis"`
}

type Producer struct {
	writer MessageWriter
	topic  string
	logger logger.Logger
	now    func() time.Time
}

// NewProducer builds a producer writing to topic on brokers.
func NewProducer(brokers []string, topic string, log logger.Logger) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}, topic, log)
}

func NewProducerWithWriter(w MessageWriter, topic string, log logger.Logger) *Producer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Producer{writer: w, topic: topic, logger: log, now: time.Now}
}

// PublishAnalysis sends a ticket.analyzed event keyed by ticket id, so all events for one
// ticket land on the same partition.
func (p *Producer) PublishAnalysis(ctx context.Context, ticketID, outcome string, analysis interface{}) error {
	data, err := json.Marshal(TicketAnalyzed{
		Type:       TypeTicketAnalyzed,
		TicketID:   ticketID,
		Outcome:    outcome,
		OccurredAt: p.now().UTC().Format(time.RFC3339),
		Analysis:   analysis,
	})
	if err != nil {
		return apperrors.NewEventPublishFailedError(p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(ticketID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(TypeTicketAnalyzed)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublished.WithLabelValues(p.topic, "error").Inc()
		return apperrors.NewEventPublishFailedError(p.topic, err)
	}

	metrics.EventsPublished.WithLabelValues(p.topic, "success").Inc()
	p.logger.Debug("event published", map[string]interface{}{
		"topic":    p.topic,
		"ticketId": ticketID,
		"type":     TypeTicketAnalyzed,
	})
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// BrokerPinger checks that at least one broker accepts connections.
type BrokerPinger struct {
	Brokers []string
}

func (b BrokerPinger) Ping(ctx context.Context) error {
	var lastErr error
	for _, addr := range b.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	if lastErr == nil {
		lastErr = errors.New("no kafka brokers configured")
	}
	return fmt.Errorf("kafka ping failed: %w", lastErr)
}
