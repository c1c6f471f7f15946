//go:build !integration

package di

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangeengine/internal/adapters/outbound/exchange/channelmanager"
	"exchangeengine/internal/adapters/outbound/exchange/transport"
	"exchangeengine/internal/adapters/outbound/exchange/whatsapp"
	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/synccontext"
	"exchangeengine/internal/application/use_cases"
	"exchangeengine/internal/domain/policies"
)

func newTestRegistry(t *testing.T) *use_cases.TaskRegistry {
	t.Helper()
	httpTransport := transport.New(transport.Config{Timeout: time.Second})
	clients, appErr := use_cases.NewClientRegistry(
		whatsapp.NewClient(httpTransport),
		channelmanager.NewClient(httpTransport, nil),
	)
	require.Nil(t, appErr)

	registry, appErr := use_cases.NewTaskRegistry(clients, buildTasks(taskDependencies{
		staleLockTTL: time.Minute,
		retry:        policies.DefaultRetryPolicy(),
	})...)
	require.Nil(t, appErr)
	return registry
}

func TestBuildTasksRegistersEveryIntegration(t *testing.T) {
	registry := newTestRegistry(t)

	cases := []struct {
		name     string
		provider string
		mode     synccontext.Mode
		maxBatch int
	}{
		{dto.TaskSendMessages, dto.ProviderWhatsApp, synccontext.ModePush, 50},
		{dto.TaskPushReservations, dto.ProviderChannelManager, synccontext.ModePush, 10},
		{dto.TaskPullReservations, dto.ProviderChannelManager, synccontext.ModePull, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task, appErr := registry.Resolve(tc.name)
			require.Nil(t, appErr)
			assert.Equal(t, tc.provider, task.Provider)
			assert.Equal(t, tc.mode, task.Mode)
			assert.Equal(t, tc.maxBatch, task.MaxBatchSize)
		})
	}
	assert.Len(t, registry.Names(), len(cases))
}

func TestResolveWorkerTasksDefaultsToAll(t *testing.T) {
	registry := newTestRegistry(t)

	tasks, err := resolveWorkerTasks(nil, registry)
	require.NoError(t, err)
	assert.ElementsMatch(t, registry.Names(), tasks)
}

func TestResolveWorkerTasksRejectsUnknownTask(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := resolveWorkerTasks([]string{dto.TaskSendMessages, "sms.send"}, registry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms.send")
}

func TestResolveWorkerTasksKeepsRequestedSubset(t *testing.T) {
	registry := newTestRegistry(t)

	tasks, err := resolveWorkerTasks([]string{" " + dto.TaskPullReservations + " "}, registry)
	require.NoError(t, err)
	assert.Equal(t, []string{dto.TaskPullReservations}, tasks)
}
