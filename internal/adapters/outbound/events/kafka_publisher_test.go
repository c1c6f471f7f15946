//go:build !integration

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangeengine/internal/application/dto"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	deadline bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublishWritesOneMessagePerEvent(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newKafkaPublisher(writer, nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	appErr := publisher.Publish(context.Background(), []dto.OutcomeEvent{
		{QueueItemID: "qi_1", TaskName: "whatsapp.send_messages", Status: "success", OccurredAt: at},
		{QueueItemID: "qi_2", TaskName: "whatsapp.send_messages", Status: "failed", RetryCount: 1, OccurredAt: at},
	})

	require.Nil(t, appErr)
	require.Len(t, writer.messages, 2)
	assert.True(t, writer.deadline)
	assert.Equal(t, "qi_1", string(writer.messages[0].Key))
	assert.Equal(t, "task_name", writer.messages[0].Headers[0].Key)

	var decoded dto.OutcomeEvent
	require.NoError(t, json.Unmarshal(writer.messages[1].Value, &decoded))
	assert.Equal(t, "failed", decoded.Status)
	assert.Equal(t, 1, decoded.RetryCount)
}

func TestPublishSkipsEmptyBatch(t *testing.T) {
	writer := &fakeWriter{err: errors.New("must not be called")}

	require.Nil(t, newKafkaPublisher(writer, nil).Publish(context.Background(), nil))
	assert.Empty(t, writer.messages)
}

func TestPublishReportsWriterFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}

	appErr := newKafkaPublisher(writer, nil).Publish(context.Background(), []dto.OutcomeEvent{{QueueItemID: "qi_1"}})

	require.NotNil(t, appErr)
	assert.Equal(t, "outcome_event_publish_failed", appErr.Code)
}
