//go:build !integration

package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
)

var storeNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testTask = "whatsapp.send_messages"

func newTestDB(t *testing.T, maxOpenConns int) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "exchange.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
	return db
}

type fixture struct {
	db        *gorm.DB
	configs   *ChannelConfigRepository
	endpoints *EndpointRepository
	items     *QueueItemRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := newTestDB(t, 1)
	f := fixture{
		db:        db,
		configs:   NewChannelConfigRepository(db, nil),
		endpoints: NewEndpointRepository(db, nil),
		items:     NewQueueItemRepository(db, nil),
	}

	ctx := context.Background()
	for _, config := range []entities.ChannelConfig{
		{ID: "cfg_a", Provider: "whatsapp", Name: "A", BaseURL: "https://a.test", Active: true, CreatedAt: storeNow, UpdatedAt: storeNow},
		{ID: "cfg_b", Provider: "whatsapp", Name: "B", BaseURL: "https://b.test", Active: true, CreatedAt: storeNow, UpdatedAt: storeNow},
		{ID: "cfg_off", Provider: "whatsapp", Name: "Off", BaseURL: "https://off.test", Active: false, CreatedAt: storeNow, UpdatedAt: storeNow},
	} {
		require.Nil(t, f.configs.Upsert(ctx, config))
	}
	require.Nil(t, f.endpoints.UpsertAll(ctx, []entities.Endpoint{
		{ID: "ep_send", Provider: "whatsapp", Operation: "send_messages", Path: "/v1/messages/batch", Method: valueobjects.HTTPMethodPost},
		{ID: "ep_other", Provider: "whatsapp", Operation: "send_templates", Path: "/v1/templates/batch", Method: valueobjects.HTTPMethodPost},
	}))
	return f
}

type itemOption func(*entities.QueueItem)

func withRunAt(at time.Time) itemOption {
	return func(item *entities.QueueItem) { item.RunAt = at }
}

func withTarget(configID, endpointID string) itemOption {
	return func(item *entities.QueueItem) {
		item.ConfigID = configID
		item.EndpointID = endpointID
	}
}

func withTask(task string) itemOption {
	return func(item *entities.QueueItem) { item.TaskName = task }
}

func withLock(worker string, at time.Time) itemOption {
	return func(item *entities.QueueItem) {
		item.Status = valueobjects.QueueItemStatusProcessing
		item.LockedBy = &worker
		lockedAt := at
		item.LockedAt = &lockedAt
	}
}

func withAttempts(retries, maxAttempts int) itemOption {
	return func(item *entities.QueueItem) {
		item.Status = valueobjects.QueueItemStatusFailed
		item.RetryCount = retries
		item.MaxAttempts = maxAttempts
	}
}

func (f fixture) seed(t *testing.T, id string, opts ...itemOption) entities.QueueItem {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"message_id": id})
	require.NoError(t, err)
	item, appErr := entities.NewPendingQueueItem(entities.NewQueueItemInput{
		ID:          id,
		TaskName:    testTask,
		ConfigID:    "cfg_a",
		EndpointID:  "ep_send",
		Payload:     payload,
		SourceType:  "outbound_message",
		SourceID:    id,
		RunAt:       storeNow.Add(-time.Minute),
		MaxAttempts: 3,
		CreatedAt:   storeNow.Add(-time.Hour),
	})
	require.Nil(t, appErr)
	for _, opt := range opts {
		opt(&item)
	}
	require.Nil(t, f.items.Create(context.Background(), item))
	return item
}

func (f fixture) seedMany(t *testing.T, prefix string, count int, opts ...itemOption) {
	t.Helper()
	for i := 0; i < count; i++ {
		at := storeNow.Add(-time.Duration(count-i) * time.Minute)
		f.seed(t, fmt.Sprintf("%s_%02d", prefix, i), append([]itemOption{withRunAt(at)}, opts...)...)
	}
}
