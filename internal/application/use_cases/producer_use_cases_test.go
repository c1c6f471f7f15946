//go:build !integration

package use_cases

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/handlers"
	"exchangeengine/internal/application/listeners"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
)

func newTestOutbox(items *fakeQueueItems) *Outbox {
	endpoints := &fakeEndpointRepository{byKey: map[string]entities.Endpoint{}}
	for _, endpoint := range []entities.Endpoint{
		{ID: "ep_wa_send", Provider: "whatsapp", Operation: "send_messages", Method: valueobjects.HTTPMethodPost},
		{ID: "ep_cm_push", Provider: "channelmanager", Operation: "push_reservations", Method: valueobjects.HTTPMethodPost},
		{ID: "ep_cm_pull", Provider: "channelmanager", Operation: "pull_reservations", Method: valueobjects.HTTPMethodGet},
	} {
		endpoints.byKey[endpoint.Provider+"/"+endpoint.Operation] = endpoint
	}
	return NewOutbox(endpoints, items, &sequentialIDs{}, fixedClock{now: runNow}, 4)
}

func producerConfigs() *fakeConfigs {
	whatsapp := activeConfig("whatsapp")
	channelManager := activeConfig("channelmanager")
	return &fakeConfigs{byID: map[string]entities.ChannelConfig{
		whatsapp.ID:       whatsapp,
		channelManager.ID: channelManager,
	}}
}

func TestOutboxEnqueueSnapshotsPayload(t *testing.T) {
	items := newFakeQueueItems()
	outbox := newTestOutbox(items)

	item, appErr := outbox.Enqueue(context.Background(), dto.EnqueueInput{
		TaskName:   dto.TaskSendMessages,
		ConfigID:   "cfg_whatsapp",
		Provider:   "WhatsApp",
		Operation:  "send_messages",
		Payload:    dto.MessagePayload{MessageID: "msg_1", Recipient: "+34600000001", Body: "hola"},
		SourceType: dto.SourceTypeOutboundMessage,
		SourceID:   "msg_1",
	})

	require.Nil(t, appErr)
	assert.Equal(t, "ep_wa_send", item.EndpointID)
	assert.Equal(t, valueobjects.QueueItemStatusPending, item.Status)
	assert.Equal(t, 4, item.MaxAttempts)
	assert.Equal(t, runNow, item.RunAt)
	assert.JSONEq(t, `{"message_id":"msg_1","recipient":"+34600000001","body":"hola"}`, string(item.Payload))
	assert.Len(t, items.created, 1)
}

func TestOutboxEnqueueUnknownOperation(t *testing.T) {
	outbox := newTestOutbox(newFakeQueueItems())

	_, appErr := outbox.Enqueue(context.Background(), dto.EnqueueInput{
		TaskName:  "x",
		ConfigID:  "cfg",
		Provider:  "whatsapp",
		Operation: "send_carrier_pigeon",
	})

	require.NotNil(t, appErr)
	assert.Equal(t, "endpoint_not_found", appErr.Code)
}

func TestEnqueueMessageCreatesMessageAndQueueItemTogether(t *testing.T) {
	items := newFakeQueueItems()
	messages := &fakeMessages{}
	uow := &fakeUnitOfWork{}
	useCase := NewEnqueueMessageUseCase(uow, producerConfigs(), messages, newTestOutbox(items), &sequentialIDs{}, fixedClock{now: runNow})

	output, appErr := useCase.Execute(context.Background(), dto.EnqueueMessageCommand{
		ConfigID:  "cfg_whatsapp",
		Recipient: "+34 600 000 001",
		Body:      "Your room is ready",
	})

	require.Nil(t, appErr)
	assert.Equal(t, 1, uow.commits)
	require.Len(t, messages.created, 1)
	require.Len(t, items.created, 1)
	assert.Equal(t, messages.created[0].ID, output.MessageID)
	assert.Equal(t, items.created[0].ID, output.QueueItemID)
	assert.Equal(t, dto.TaskSendMessages, items.created[0].TaskName)

	var payload dto.MessagePayload
	require.NoError(t, json.Unmarshal(items.created[0].Payload, &payload))
	assert.Equal(t, "+34600000001", payload.Recipient)
}

func TestEnqueueMessageRejectsWrongProviderConfig(t *testing.T) {
	uow := &fakeUnitOfWork{}
	useCase := NewEnqueueMessageUseCase(uow, producerConfigs(), &fakeMessages{}, newTestOutbox(newFakeQueueItems()), &sequentialIDs{}, nil)

	_, appErr := useCase.Execute(context.Background(), dto.EnqueueMessageCommand{
		ConfigID:  "cfg_channelmanager",
		Recipient: "+34600000001",
		Body:      "hi",
	})

	require.NotNil(t, appErr)
	assert.Equal(t, "channel_config_provider_mismatch", appErr.Code)
	assert.Equal(t, 1, uow.rollbacks)
}

func TestSaveReservationQueuesPushFromLocalEdit(t *testing.T) {
	items := newFakeQueueItems()
	reservations := newFakeReservations()
	listener := listeners.NewReservationSyncListener(newTestOutbox(items), nil)
	writer := handlers.NewReservationWriter(reservations, listener)
	useCase := NewSaveReservationUseCase(&fakeUnitOfWork{}, producerConfigs(), reservations, writer, &sequentialIDs{}, fixedClock{now: runNow})

	output, appErr := useCase.Execute(context.Background(), dto.SaveReservationCommand{
		ConfigID:  "cfg_channelmanager",
		GuestName: "Ada Lovelace",
		RoomCode:  "DBL",
		CheckIn:   "2026-05-01",
		CheckOut:  "2026-05-03",
		Currency:  "eur",
	})

	require.Nil(t, appErr)
	require.NotNil(t, output.QueueItemID)
	require.Len(t, items.created, 1)
	assert.Equal(t, dto.TaskPushReservations, items.created[0].TaskName)
	assert.Equal(t, output.ReservationID, items.created[0].SourceID)
	assert.Equal(t, "EUR", reservations.byID[output.ReservationID].Currency)
}

func TestSaveReservationUnknownReservation(t *testing.T) {
	reservations := newFakeReservations()
	useCase := NewSaveReservationUseCase(
		&fakeUnitOfWork{},
		producerConfigs(),
		reservations,
		handlers.NewReservationWriter(reservations, nil),
		&sequentialIDs{},
		nil,
	)

	_, appErr := useCase.Execute(context.Background(), dto.SaveReservationCommand{
		ReservationID: "res_missing",
		ConfigID:      "cfg_channelmanager",
		GuestName:     "Ada",
		CheckIn:       "2026-05-01",
		CheckOut:      "2026-05-03",
	})

	require.NotNil(t, appErr)
	assert.Equal(t, "reservation_not_found", appErr.Code)
}

func TestRequestReservationPullQueuesPullItem(t *testing.T) {
	items := newFakeQueueItems()
	since := runNow.Add(-24 * time.Hour)
	useCase := NewRequestReservationPullUseCase(&fakeUnitOfWork{}, producerConfigs(), newTestOutbox(items), fixedClock{now: runNow})

	output, appErr := useCase.Execute(context.Background(), dto.RequestReservationPullCommand{
		ConfigID:     "cfg_channelmanager",
		PropertyID:   "prop_1",
		UpdatedSince: &since,
	})

	require.Nil(t, appErr)
	require.Len(t, items.created, 1)
	assert.Equal(t, output.QueueItemID, items.created[0].ID)
	assert.Equal(t, "ep_cm_pull", items.created[0].EndpointID)
	assert.Equal(t, dto.TaskPullReservations, items.created[0].TaskName)
}

func TestRequeueQueueItemRevivesExhaustedItem(t *testing.T) {
	reason := "missing result"
	items := newFakeQueueItems(entities.QueueItem{
		ID:              "qi_dead",
		Status:          valueobjects.QueueItemStatusFailed,
		RetryCount:      3,
		MaxAttempts:     3,
		FailedReason:    &reason,
		ExecutionResult: map[string]any{"exhausted": true},
	})
	useCase := NewRequeueQueueItemUseCase(&fakeUnitOfWork{}, items)

	output, appErr := useCase.Execute(context.Background(), dto.RequeueQueueItemCommand{
		QueueItemID: "qi_dead",
		OperatorID:  "ops@example.com",
		Now:         runNow,
	})

	require.Nil(t, appErr)
	assert.Equal(t, "pending", output.Status)
	stored := items.byID["qi_dead"]
	assert.Zero(t, stored.RetryCount)
	assert.Equal(t, runNow, stored.RunAt)
	assert.NotContains(t, stored.ExecutionResult, "exhausted")
	assert.Equal(t, "ops@example.com", stored.ExecutionResult["requeued_by"])
}

func TestRequeueQueueItemConflictsWhenNotExhausted(t *testing.T) {
	items := newFakeQueueItems(entities.QueueItem{
		ID:          "qi_retrying",
		Status:      valueobjects.QueueItemStatusFailed,
		RetryCount:  1,
		MaxAttempts: 3,
	})
	useCase := NewRequeueQueueItemUseCase(&fakeUnitOfWork{}, items)

	_, appErr := useCase.Execute(context.Background(), dto.RequeueQueueItemCommand{
		QueueItemID: "qi_retrying",
		OperatorID:  "ops",
	})
	if appErr == nil {
		t.Fatalf("expected conflict")
	}
	if appErr.Code != "queue_item_not_requeueable" {
		t.Fatalf("expected queue_item_not_requeueable, got %s", appErr.Code)
	}

	_, appErr = useCase.Execute(context.Background(), dto.RequeueQueueItemCommand{
		QueueItemID: "qi_missing",
		OperatorID:  "ops",
	})
	if appErr == nil || appErr.Code != "queue_item_not_found" {
		t.Fatalf("expected queue_item_not_found, got %+v", appErr)
	}
}
