package use_cases

import (
	"sort"
	"strings"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/application/synccontext"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// Task binds a queue to the strategy, provider and handler that process it.
type Task struct {
	Name         string
	MaxBatchSize int
	Mode         synccontext.Mode
	Provider     string
	Queue        portsout.QueueProvider
	Mapping      portsout.MappingStrategy
	Handler      portsout.QueueItemHandler
}

// EffectiveLimit caps a requested limit by the task's maximum batch size.
// Zero or negative requests use the maximum.
func (t Task) EffectiveLimit(requested int) int {
	if requested <= 0 || requested > t.MaxBatchSize {
		return t.MaxBatchSize
	}
	return requested
}

func (t Task) validate() *apperrors.AppError {
	details := map[string]any{"task_name": t.Name}
	switch {
	case strings.TrimSpace(t.Name) == "":
		return apperrors.NewInternal("task_name_missing", "task name is required", nil)
	case t.MaxBatchSize <= 0:
		return apperrors.NewInternal("task_max_batch_size_invalid", "task max batch size must be greater than zero", details)
	case t.Mode != synccontext.ModePush && t.Mode != synccontext.ModePull:
		return apperrors.NewInternal("task_mode_invalid", "task mode must be push or pull", details)
	case t.Queue == nil || t.Mapping == nil || t.Handler == nil:
		return apperrors.NewInternal("task_incomplete", "task requires a queue provider, mapping strategy and handler", details)
	}
	return nil
}

type ClientRegistry struct {
	clients map[string]portsout.ExchangeClient
}

func NewClientRegistry(clients ...portsout.ExchangeClient) (*ClientRegistry, *apperrors.AppError) {
	registry := &ClientRegistry{clients: make(map[string]portsout.ExchangeClient, len(clients))}
	for _, client := range clients {
		if client == nil {
			return nil, apperrors.NewInternal("exchange_client_nil", "exchange client is nil", nil)
		}
		provider := normalizeProvider(client.Provider())
		if _, exists := registry.clients[provider]; exists {
			return nil, apperrors.NewInternal(
				"exchange_client_duplicate",
				"exchange client registered twice",
				map[string]any{"provider": provider},
			)
		}
		registry.clients[provider] = client
	}
	return registry, nil
}

func (r *ClientRegistry) Resolve(provider string) (portsout.ExchangeClient, *apperrors.AppError) {
	normalized := normalizeProvider(provider)
	if r != nil {
		if client, ok := r.clients[normalized]; ok {
			return client, nil
		}
	}
	return nil, apperrors.NewValidation(
		"exchange_client_unknown",
		"no exchange client is registered for provider",
		map[string]any{"provider": normalized},
	)
}

type TaskRegistry struct {
	tasks map[string]Task
}

// NewTaskRegistry rejects duplicate or incomplete tasks and tasks whose
// provider has no client, so misconfiguration surfaces at startup.
func NewTaskRegistry(clients *ClientRegistry, tasks ...Task) (*TaskRegistry, *apperrors.AppError) {
	registry := &TaskRegistry{tasks: make(map[string]Task, len(tasks))}
	for _, task := range tasks {
		task.Name = strings.TrimSpace(task.Name)
		task.Provider = normalizeProvider(task.Provider)
		if appErr := task.validate(); appErr != nil {
			return nil, appErr
		}
		if _, exists := registry.tasks[task.Name]; exists {
			return nil, apperrors.NewInternal(
				"task_duplicate",
				"task registered twice",
				map[string]any{"task_name": task.Name},
			)
		}
		if _, appErr := clients.Resolve(task.Provider); appErr != nil {
			return nil, appErr
		}
		registry.tasks[task.Name] = task
	}
	return registry, nil
}

func (r *TaskRegistry) Resolve(name string) (Task, *apperrors.AppError) {
	trimmed := strings.TrimSpace(name)
	if r != nil {
		if task, ok := r.tasks[trimmed]; ok {
			return task, nil
		}
	}
	return Task{}, apperrors.NewValidation(
		"task_unknown",
		"task is not registered",
		map[string]any{"task_name": trimmed},
	)
}

func (r *TaskRegistry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
