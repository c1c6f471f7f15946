//go:build !integration

package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHomogeneousBatchRejectsEmptyList(t *testing.T) {
	_, appErr := NewHomogeneousBatch(ChannelConfig{ID: "cfg-a"}, Endpoint{ID: "ep-1"}, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, "batch_empty", appErr.Code)
}

func TestNewHomogeneousBatchRejectsMixedTargets(t *testing.T) {
	items := []*QueueItem{
		{ID: "q-1", ConfigID: "cfg-a", EndpointID: "ep-1"},
		{ID: "q-2", ConfigID: "cfg-b", EndpointID: "ep-1"},
	}

	_, appErr := NewHomogeneousBatch(ChannelConfig{ID: "cfg-a"}, Endpoint{ID: "ep-1"}, items)
	require.NotNil(t, appErr)
	assert.Equal(t, "batch_not_homogeneous", appErr.Code)
}

func TestNewHomogeneousBatchRejectsDuplicates(t *testing.T) {
	items := []*QueueItem{
		{ID: "q-1", ConfigID: "cfg-a", EndpointID: "ep-1"},
		{ID: "q-1", ConfigID: "cfg-a", EndpointID: "ep-1"},
	}

	_, appErr := NewHomogeneousBatch(ChannelConfig{ID: "cfg-a"}, Endpoint{ID: "ep-1"}, items)
	require.NotNil(t, appErr)
	assert.Equal(t, "batch_item_duplicate", appErr.Code)
}

func TestHomogeneousBatchKeepsOrderAndSharesItems(t *testing.T) {
	items := []*QueueItem{
		{ID: "q-2", ConfigID: "cfg-a", EndpointID: "ep-1"},
		{ID: "q-1", ConfigID: "cfg-a", EndpointID: "ep-1"},
	}

	batch, appErr := NewHomogeneousBatch(ChannelConfig{ID: "cfg-a"}, Endpoint{ID: "ep-1"}, items)
	require.Nil(t, appErr)
	assert.Equal(t, []string{"q-2", "q-1"}, batch.ItemIDs())
	assert.Equal(t, 2, batch.Len())

	batch.Items()[0].StampRequest("raw")
	require.NotNil(t, items[0].LastRequestRaw)
	assert.Equal(t, "raw", *items[0].LastRequestRaw)
}

func TestChannelConfigCachedTokenHonoursMargin(t *testing.T) {
	config := ChannelConfig{ID: "cfg-a"}
	now := mustTime(t, "2026-03-01T09:00:00Z")

	_, ok := config.CachedToken(now, 0)
	assert.False(t, ok)

	config.StoreToken("tok-1", now.Add(10*time.Minute))
	token, ok := config.CachedToken(now, time.Minute)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	_, ok = config.CachedToken(now.Add(9*time.Minute+time.Nanosecond), time.Minute)
	assert.False(t, ok)
}
