//go:build !integration

package use_cases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/synccontext"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

var runNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) NowUTC() time.Time {
	return c.now
}

type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequentialIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("id_%d", s.next)
}

type nestedTxKey struct{}

// fakeUnitOfWork counts outer transactions only. Nested calls behave like
// savepoints and hand their error to the enclosing function.
type fakeUnitOfWork struct {
	commits   int
	rollbacks int
	commitErr error
}

func (f *fakeUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(nestedTxKey{}) != nil {
		return fn(ctx)
	}
	if err := fn(context.WithValue(ctx, nestedTxKey{}, true)); err != nil {
		f.rollbacks++
		return err
	}
	if f.commitErr != nil {
		f.rollbacks++
		return f.commitErr
	}
	f.commits++
	return nil
}

type fakeQueueProvider struct {
	batch     *entities.HomogeneousBatch
	claimErr  *apperrors.AppError
	limits    []int
	workerIDs []string
}

func (f *fakeQueueProvider) ClaimBatch(
	_ context.Context,
	limit int,
	workerID string,
	_ time.Time,
) (*entities.HomogeneousBatch, *apperrors.AppError) {
	f.limits = append(f.limits, limit)
	f.workerIDs = append(f.workerIDs, workerID)
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	return f.batch, nil
}

type fakeMapping struct {
	results      map[string]dto.ItemResult
	mapErr       *apperrors.AppError
	seenSync     []synccontext.Snapshot
	parsedBodies []string
}

func (f *fakeMapping) Map(ctx context.Context, batch entities.HomogeneousBatch) (dto.MappingResult, *apperrors.AppError) {
	f.seenSync = append(f.seenSync, synccontext.Current(ctx))
	if f.mapErr != nil {
		return dto.MappingResult{}, f.mapErr
	}
	correlation := map[string]string{}
	for index, id := range batch.ItemIDs() {
		correlation[fmt.Sprint(index)] = id
	}
	return dto.MappingResult{
		Method:      valueobjects.HTTPMethodPost,
		URL:         "https://provider.test/v1/batch",
		Payload:     []byte(fmt.Sprintf(`{"count":%d}`, batch.Len())),
		Config:      batch.Config(),
		Correlation: correlation,
	}, nil
}

func (f *fakeMapping) ParseResponse(
	_ context.Context,
	decoded json.RawMessage,
	_ dto.MappingResult,
) map[string]dto.ItemResult {
	f.parsedBodies = append(f.parsedBodies, string(decoded))
	return f.results
}

type fakeExchangeClient struct {
	provider string
	response dto.ExchangeResponse
	sendErr  *apperrors.AppError
	// partial comes back together with sendErr.
	partial dto.ExchangeResponse
	sent    []dto.MappingResult
}

func (f *fakeExchangeClient) Provider() string {
	return f.provider
}

func (f *fakeExchangeClient) Send(_ context.Context, mapping dto.MappingResult) (dto.ExchangeResponse, *apperrors.AppError) {
	f.sent = append(f.sent, mapping)
	if f.sendErr != nil {
		return f.partial, f.sendErr
	}
	return f.response, nil
}

type handledFailure struct {
	itemID string
	reason string
}

type fakeItemHandler struct {
	succeeded []string
	failed    []handledFailure
	failOn    string
	seenSync  []synccontext.Snapshot
}

func (f *fakeItemHandler) HandleSuccess(
	ctx context.Context,
	item *entities.QueueItem,
	result dto.ItemResult,
	now time.Time,
) *apperrors.AppError {
	f.seenSync = append(f.seenSync, synccontext.Current(ctx))
	if item.ID == f.failOn {
		return apperrors.NewInternal("handler_write_failed", "handler could not persist outcome", nil)
	}
	f.succeeded = append(f.succeeded, item.ID)
	return item.MarkSucceeded(result.Outcome(), now)
}

func (f *fakeItemHandler) HandleFailure(
	ctx context.Context,
	item *entities.QueueItem,
	reason string,
	now time.Time,
) *apperrors.AppError {
	f.seenSync = append(f.seenSync, synccontext.Current(ctx))
	if item.ID == f.failOn {
		return apperrors.NewInternal("handler_write_failed", "handler could not persist outcome", nil)
	}
	f.failed = append(f.failed, handledFailure{itemID: item.ID, reason: reason})
	return item.MarkFailed(reason, now.Add(time.Minute), now)
}

type fakeRecorder struct {
	failures []dto.CatastrophicFailure
	err      *apperrors.AppError
}

func (f *fakeRecorder) RecordCatastrophicFailure(_ context.Context, failure dto.CatastrophicFailure) (bool, *apperrors.AppError) {
	if f.err != nil {
		return false, f.err
	}
	f.failures = append(f.failures, failure)
	return true, nil
}

type fakePublisher struct {
	events []dto.OutcomeEvent
}

func (f *fakePublisher) Publish(_ context.Context, events []dto.OutcomeEvent) *apperrors.AppError {
	f.events = append(f.events, events...)
	return nil
}

type fakeConfigs struct {
	byID map[string]entities.ChannelConfig
}

func (f *fakeConfigs) FindByID(_ context.Context, id string) (entities.ChannelConfig, bool, *apperrors.AppError) {
	config, ok := f.byID[id]
	return config, ok, nil
}

type fakeQueueItems struct {
	byID    map[string]entities.QueueItem
	created []entities.QueueItem
}

func newFakeQueueItems(items ...entities.QueueItem) *fakeQueueItems {
	f := &fakeQueueItems{byID: map[string]entities.QueueItem{}}
	for _, item := range items {
		f.byID[item.ID] = item
	}
	return f
}

func (f *fakeQueueItems) Create(_ context.Context, item entities.QueueItem) *apperrors.AppError {
	f.created = append(f.created, item)
	f.byID[item.ID] = item
	return nil
}

func (f *fakeQueueItems) Save(_ context.Context, item *entities.QueueItem) *apperrors.AppError {
	f.byID[item.ID] = *item
	return nil
}

func (f *fakeQueueItems) FindByID(_ context.Context, id string) (entities.QueueItem, bool, *apperrors.AppError) {
	item, ok := f.byID[id]
	return item, ok, nil
}

func sampleBatch(config entities.ChannelConfig, ids ...string) *entities.HomogeneousBatch {
	endpoint := entities.Endpoint{
		ID:        "ep_1",
		Provider:  config.Provider,
		Operation: "send_messages",
		Path:      "/v1/messages/batch",
		Method:    valueobjects.HTTPMethodPost,
	}
	owner := "worker-a"
	lockedAt := runNow
	items := make([]*entities.QueueItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, &entities.QueueItem{
			ID:              id,
			TaskName:        "whatsapp.send_messages",
			ConfigID:        config.ID,
			EndpointID:      endpoint.ID,
			Payload:         []byte(`{}`),
			Status:          valueobjects.QueueItemStatusProcessing,
			RunAt:           runNow.Add(-time.Minute),
			LockedBy:        &owner,
			LockedAt:        &lockedAt,
			MaxAttempts:     3,
			ExecutionResult: map[string]any{},
		})
	}
	batch, appErr := entities.NewHomogeneousBatch(config, endpoint, items)
	if appErr != nil {
		panic(appErr)
	}
	return &batch
}

func activeConfig(provider string) entities.ChannelConfig {
	return entities.ChannelConfig{
		ID:            "cfg_" + provider,
		Provider:      provider,
		Name:          provider,
		BaseURL:       "https://provider.test",
		WebhookSecret: "s3cret",
		Active:        true,
	}
}

type fakeReservations struct {
	byID    map[string]entities.Reservation
	saveErr *apperrors.AppError
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{byID: map[string]entities.Reservation{}}
}

func (f *fakeReservations) FindByID(_ context.Context, id string) (entities.Reservation, bool, *apperrors.AppError) {
	reservation, ok := f.byID[id]
	return reservation, ok, nil
}

func (f *fakeReservations) FindByRemoteID(
	_ context.Context,
	configID string,
	remoteID string,
) (entities.Reservation, bool, *apperrors.AppError) {
	for _, reservation := range f.byID {
		if reservation.ConfigID == configID && reservation.RemoteID != nil && *reservation.RemoteID == remoteID {
			return reservation, true, nil
		}
	}
	return entities.Reservation{}, false, nil
}

func (f *fakeReservations) Save(_ context.Context, reservation *entities.Reservation) *apperrors.AppError {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.byID[reservation.ID] = *reservation
	return nil
}

type fakeAudits struct {
	audits []entities.WebhookAudit
}

func (f *fakeAudits) Create(_ context.Context, audit entities.WebhookAudit) *apperrors.AppError {
	f.audits = append(f.audits, audit)
	return nil
}

type fakeDeduplicator struct {
	seen      map[string]bool
	err       *apperrors.AppError
	forgotten []string
}

func (f *fakeDeduplicator) FirstSeen(_ context.Context, provider string, configID string, eventID string) (bool, *apperrors.AppError) {
	if f.err != nil {
		return false, f.err
	}
	key := provider + "/" + configID + "/" + eventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeDeduplicator) Forget(_ context.Context, provider string, configID string, eventID string) *apperrors.AppError {
	key := provider + "/" + configID + "/" + eventID
	delete(f.seen, key)
	f.forgotten = append(f.forgotten, key)
	return nil
}

type fakeMessages struct {
	created []entities.OutboundMessage
}

func (f *fakeMessages) Create(_ context.Context, message entities.OutboundMessage) *apperrors.AppError {
	f.created = append(f.created, message)
	return nil
}

func (f *fakeMessages) FindByID(_ context.Context, id string) (entities.OutboundMessage, bool, *apperrors.AppError) {
	for _, message := range f.created {
		if message.ID == id {
			return message, true, nil
		}
	}
	return entities.OutboundMessage{}, false, nil
}

func (f *fakeMessages) Save(_ context.Context, _ *entities.OutboundMessage) *apperrors.AppError {
	return nil
}

// syncRecordingListener notes the sync mode every save happened under.
type syncRecordingListener struct {
	modes []synccontext.Mode
}

func (l *syncRecordingListener) ReservationSaved(
	ctx context.Context,
	_ entities.Reservation,
) (*entities.QueueItem, *apperrors.AppError) {
	l.modes = append(l.modes, synccontext.Current(ctx).Mode)
	return nil, nil
}
