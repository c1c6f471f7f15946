//go:build !integration

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
)

func messageItem(t *testing.T, id string, payload any) *entities.QueueItem {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &entities.QueueItem{
		ID:         id,
		TaskName:   dto.TaskSendMessages,
		ConfigID:   "cfg_wa",
		EndpointID: "ep_wa_send",
		Payload:    raw,
		Status:     valueobjects.QueueItemStatusProcessing,
		RunAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func messageBatch(t *testing.T, items ...*entities.QueueItem) entities.HomogeneousBatch {
	t.Helper()
	batch, appErr := entities.NewHomogeneousBatch(
		entities.ChannelConfig{
			ID:          "cfg_wa",
			Provider:    dto.ProviderWhatsApp,
			BaseURL:     "https://graph.example.test",
			Credentials: entities.ChannelCredentials{APIKey: "wa-key"},
			Active:      true,
		},
		entities.Endpoint{
			ID:        "ep_wa_send",
			Provider:  dto.ProviderWhatsApp,
			Operation: dto.OperationSendMessages,
			Path:      "/v1/messages/batch",
			Method:    valueobjects.HTTPMethodPost,
		},
		items,
	)
	require.Nil(t, appErr)
	return batch
}

func TestMapBuildsBatchRequest(t *testing.T) {
	batch := messageBatch(t,
		messageItem(t, "qi_1", dto.MessagePayload{MessageID: "m1", Recipient: "+34600000001", Body: "  Cafe\u0301 ready  "}),
		messageItem(t, "qi_2", dto.MessagePayload{MessageID: "m2", Recipient: "+34600000002", Body: "See you at 10:00"}),
	)

	mapping, appErr := NewSendMessagesMapping(nil).Map(context.Background(), batch)

	require.Nil(t, appErr)
	assert.Equal(t, valueobjects.HTTPMethodPost, mapping.Method)
	assert.Equal(t, "https://graph.example.test/v1/messages/batch", mapping.URL)
	assert.Equal(t, map[string]string{"0": "qi_1", "1": "qi_2"}, mapping.Correlation)
	assert.Equal(t, "wa-key", mapping.Config.Credentials.APIKey)

	var pretty bytes.Buffer
	require.NoError(t, json.Indent(&pretty, mapping.Payload, "", "  "))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "send_messages_request", pretty.Bytes())
}

func TestMapSkipsUndecodablePayloads(t *testing.T) {
	broken := messageItem(t, "qi_broken", nil)
	broken.Payload = []byte(`{not json`)
	batch := messageBatch(t,
		broken,
		messageItem(t, "qi_ok", dto.MessagePayload{MessageID: "m1", Recipient: "+34600000001", Body: "hi"}),
	)

	mapping, appErr := NewSendMessagesMapping(nil).Map(context.Background(), batch)

	require.Nil(t, appErr)
	assert.Equal(t, map[string]string{"0": "qi_ok"}, mapping.Correlation)
}

func TestMapRejectsBatchWithNothingToSend(t *testing.T) {
	broken := messageItem(t, "qi_broken", nil)
	broken.Payload = []byte(`nope`)

	_, appErr := NewSendMessagesMapping(nil).Map(context.Background(), messageBatch(t, broken))

	require.NotNil(t, appErr)
	assert.Equal(t, "whatsapp_batch_empty", appErr.Code)
}

func TestParseResponseCorrelatesPositionally(t *testing.T) {
	mapping := dto.MappingResult{Correlation: map[string]string{"0": "qi_1", "1": "qi_2", "2": "qi_3"}}
	decoded := json.RawMessage(`[
		{"status":"queued","messageId":"wamid.1"},
		{"status":"rejected","message":"recipient not on whatsapp"},
		{"status":"SENT","messageId":"wamid.3"},
		{"status":"sent","messageId":"wamid.orphan"}
	]`)

	results := NewSendMessagesMapping(nil).ParseResponse(context.Background(), decoded, mapping)

	require.Len(t, results, 3)
	assert.True(t, results["qi_1"].Success)
	assert.Equal(t, "wamid.1", results["qi_1"].RemoteID)
	assert.False(t, results["qi_2"].Success)
	assert.Equal(t, "recipient not on whatsapp", results["qi_2"].Message)
	assert.True(t, results["qi_3"].Success)
	assert.Equal(t, "sent", results["qi_3"].Extra["provider_status"])
}

func TestParseResponseAcceptsSingleObject(t *testing.T) {
	mapping := dto.MappingResult{Correlation: map[string]string{"0": "qi_1"}}

	results := NewSendMessagesMapping(nil).ParseResponse(
		context.Background(),
		json.RawMessage(`{"status":"accepted","messageId":"wamid.9"}`),
		mapping,
	)

	require.Contains(t, results, "qi_1")
	assert.True(t, results["qi_1"].Success)
	assert.Equal(t, "accepted", results["qi_1"].Message)
}

func TestParseResponseSingleErrorObjectFailsWholeBatch(t *testing.T) {
	mapping := dto.MappingResult{Correlation: map[string]string{"0": "qi_1", "1": "qi_2", "2": "qi_3"}}

	results := NewSendMessagesMapping(nil).ParseResponse(
		context.Background(),
		json.RawMessage(`{"status":"error","message":"invalid api key","messageId":"req_42"}`),
		mapping,
	)

	require.Len(t, results, 3)
	for _, itemID := range []string{"qi_1", "qi_2", "qi_3"} {
		assert.Equal(t, itemID, results[itemID].ItemID)
		assert.False(t, results[itemID].Success)
		assert.Equal(t, "invalid api key", results[itemID].Message)
		assert.Empty(t, results[itemID].RemoteID)
	}
}

func TestParseResponseUnknownShapeYieldsNoResults(t *testing.T) {
	mapping := dto.MappingResult{Correlation: map[string]string{"0": "qi_1"}}

	results := NewSendMessagesMapping(nil).ParseResponse(context.Background(), json.RawMessage(`"ok"`), mapping)

	assert.Empty(t, results)
}
