package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const defaultPublishTimeout = 3 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits one record per committed queue item outcome, keyed by
// queue item id.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

var _ portsout.OutcomePublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        strings.TrimSpace(topic),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, logger)
}

func newKafkaPublisher(writer messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &KafkaPublisher{writer: writer, timeout: defaultPublishTimeout, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []dto.OutcomeEvent) *apperrors.AppError {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			return apperrors.NewInternal(
				"outcome_event_encode_failed",
				"failed to encode outcome event",
				map[string]any{"queue_item_id": event.QueueItemID, "error": err.Error()},
			)
		}
		messages = append(messages, kafka.Message{
			Key:     []byte(event.QueueItemID),
			Value:   value,
			Time:    event.OccurredAt,
			Headers: traceHeaders(ctx, event.TaskName),
		})
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(publishCtx, messages...); err != nil {
		p.logger.WarnContext(ctx, "outcome events publish failed", "count", len(messages), "error", err)
		return apperrors.NewUnavailable(
			"outcome_event_publish_failed",
			"failed to publish outcome events",
			map[string]any{"count": len(messages), "error": err.Error()},
		)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func traceHeaders(ctx context.Context, taskName string) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]kafka.Header, 0, len(carrier)+1)
	headers = append(headers, kafka.Header{Key: "task_name", Value: []byte(taskName)})
	for key, value := range carrier {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	return headers
}

type NoopPublisher struct{}

var _ portsout.OutcomePublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, []dto.OutcomeEvent) *apperrors.AppError {
	return nil
}
