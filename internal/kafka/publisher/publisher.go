// Package publisher forwards delivery status events to a sink.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/models"
)

// ErrProducerNotInitialised is returned when publishing without a producer.
var ErrProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

// SyncProducer captures the subset of producer behaviour required by the publisher.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// StatusSink receives delivery status events.
type StatusSink interface {
	PublishStatus(ctx context.Context, event models.StatusEvent) error
}

// StatusPublisher writes status events as JSON to a Kafka topic, keyed by
// message sid so updates for one message stay ordered.
type StatusPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewStatusPublisher constructs a StatusPublisher instance.
func NewStatusPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *StatusPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &StatusPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger,
	}
}

// PublishStatus writes the supplied status event to Kafka synchronously.
func (p *StatusPublisher) PublishStatus(_ context.Context, event models.StatusEvent) error {
	if p == nil || p.producer == nil {
		return ErrProducerNotInitialised
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal status event: %w", err)
	}

	headers := map[string][]byte{
		"content-type":   []byte("application/json"),
		"message-status": []byte(event.Status),
	}
	if err := p.producer.PublishSync(p.topic, []byte(event.MessageID), headers, payload); err != nil {
		return fmt.Errorf("kafka publisher: publish status event: %w", err)
	}
	p.logger.Debug().Str("message_sid", event.MessageID).Str("topic", p.topic).Msg("status event published")
	return nil
}

// LogSink only logs status events. It is used when no broker is configured.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &LogSink{logger: logger}
}

// PublishStatus implements StatusSink.
func (s *LogSink) PublishStatus(_ context.Context, event models.StatusEvent) error {
	evt := s.logger.Info()
	if event.Status == models.StatusFailed || event.Status == models.StatusUndelivered {
		evt = s.logger.Warn()
	}
	evt.Str("message_sid", event.MessageID).
		Str("status", event.Status).
		Str("to", event.To).
		Str("error_code", event.ErrorCode).
		Str("error_message", event.ErrorMessage).
		Msg("delivery status")
	return nil
}
