//go:build !integration

package synccontext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentDefaultsToUI(t *testing.T) {
	assert.Equal(t, DefaultSnapshot(), Current(context.Background()))
	assert.Equal(t, ModeUI, NewState().Current().Mode)
}

func TestNestedScopesRestoreOuterValue(t *testing.T) {
	state := NewState()
	before := state.Current()

	outer := state.Enter(ModePush, "WhatsApp")
	assert.Equal(t, Snapshot{Mode: ModePush, Provider: "whatsapp"}, state.Current())

	inner := state.Enter(ModePull, "channelmanager")
	assert.Equal(t, Snapshot{Mode: ModePull, Provider: "channelmanager"}, state.Current())

	inner.Restore()
	assert.Equal(t, Snapshot{Mode: ModePush, Provider: "whatsapp"}, state.Current())

	outer.Restore()
	assert.Equal(t, before, state.Current())
}

func TestRestoreIsIdempotent(t *testing.T) {
	state := NewState()
	first := state.Enter(ModePush, "whatsapp")
	second := state.Enter(ModePull, "channelmanager")

	second.Restore()
	second.Restore()
	assert.Equal(t, ModePush, state.Current().Mode)

	first.Restore()
	second.Restore()
	assert.Equal(t, ModeUI, state.Current().Mode)
}

func TestRunRestoresOnError(t *testing.T) {
	state := NewState()
	ctx := WithState(context.Background(), state)
	boom := errors.New("boom")

	err := Run(ctx, ModePull, "channelmanager", func(ctx context.Context) error {
		assert.Equal(t, ModePull, Current(ctx).Mode)
		return Run(ctx, ModePush, "whatsapp", func(ctx context.Context) error {
			assert.Equal(t, ModePush, Current(ctx).Mode)
			return boom
		})
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultSnapshot(), state.Current())
}

func TestRunRestoresOnPanic(t *testing.T) {
	state := NewState()
	ctx := WithState(context.Background(), state)

	assert.Panics(t, func() {
		_ = Run(ctx, ModePush, "whatsapp", func(context.Context) error {
			panic("provider exploded")
		})
	})
	assert.Equal(t, DefaultSnapshot(), state.Current())
}

func TestRunWithoutStateDoesNotLeakIntoParent(t *testing.T) {
	parent := context.Background()

	err := Run(parent, ModePull, "channelmanager", func(ctx context.Context) error {
		assert.Equal(t, ModePull, Current(ctx).Mode)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, ModeUI, Current(parent).Mode)
}

func TestIsIntegrationTrafficFor(t *testing.T) {
	assert.False(t, DefaultSnapshot().IsIntegrationTrafficFor("channelmanager"))
	assert.True(t, Snapshot{Mode: ModePull, Provider: "channelmanager"}.IsIntegrationTrafficFor("ChannelManager"))
	assert.True(t, Snapshot{Mode: ModePush, Provider: "channelmanager"}.IsIntegrationTrafficFor("channelmanager"))
	assert.False(t, Snapshot{Mode: ModePull, Provider: "whatsapp"}.IsIntegrationTrafficFor("channelmanager"))
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode(" PULL ")
	assert.True(t, ok)
	assert.Equal(t, ModePull, mode)

	_, ok = ParseMode("sideways")
	assert.False(t, ok)
}
