package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
)

const defaultPollInterval = 5 * time.Second

// maxDrainRuns bounds back-to-back runs of one task before the loop yields to
// the ticker again.
const maxDrainRuns = 20

type Config struct {
	Tasks        []string
	PollInterval time.Duration
	WorkerID     string
}

// Worker polls every configured task on its own loop. A run that claimed
// items is repeated immediately so a backlog drains without waiting a full
// poll interval per batch.
type Worker struct {
	tasks        []string
	pollInterval time.Duration
	workerID     string
	useCase      portsin.RunTaskUseCase
	logger       *slog.Logger
}

func New(cfg Config, useCase portsin.RunTaskUseCase, logger *slog.Logger) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tasks := make([]string, len(cfg.Tasks))
	copy(tasks, cfg.Tasks)
	return &Worker{
		tasks:        tasks,
		pollInterval: pollInterval,
		workerID:     cfg.WorkerID,
		useCase:      useCase,
		logger:       logger,
	}
}

func (w *Worker) Tasks() []string {
	out := make([]string, len(w.tasks))
	copy(out, w.tasks)
	return out
}

// Start blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if w == nil || w.useCase == nil || len(w.tasks) == 0 {
		return nil
	}

	w.logger.Info(
		"task worker started",
		"worker_id", w.workerID,
		"poll_interval", w.pollInterval.String(),
		"tasks", w.tasks,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, taskName := range w.tasks {
		group.Go(func() error {
			w.loop(groupCtx, taskName)
			return nil
		})
	}
	err := group.Wait()
	w.logger.Info("task worker stopped", "worker_id", w.workerID)
	return err
}

func (w *Worker) loop(ctx context.Context, taskName string) {
	w.drain(ctx, taskName)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx, taskName)
		}
	}
}

func (w *Worker) drain(ctx context.Context, taskName string) {
	for range maxDrainRuns {
		if ctx.Err() != nil {
			return
		}
		if !w.runCycle(ctx, taskName) {
			return
		}
	}
}

// runCycle reports whether the run claimed anything.
func (w *Worker) runCycle(ctx context.Context, taskName string) bool {
	output, appErr := w.useCase.Execute(ctx, dto.RunTaskCommand{
		TaskName: taskName,
		WorkerID: w.workerID,
	})
	if appErr != nil {
		w.logger.Error(
			"task run failed",
			"task_name", taskName,
			"worker_id", w.workerID,
			"code", appErr.Code,
			"message", appErr.Message,
			"details", appErr.Details,
		)
		return false
	}
	if output.Claimed == 0 {
		return false
	}

	level := slog.LevelInfo
	if output.Catastrophic {
		level = slog.LevelWarn
	}
	w.logger.Log(
		ctx,
		level,
		"task run completed",
		"task_name", taskName,
		"worker_id", w.workerID,
		"config_id", output.ConfigID,
		"claimed", output.Claimed,
		"succeeded", output.Succeeded,
		"failed", output.Failed,
		"exhausted", output.Exhausted,
		"catastrophic", output.Catastrophic,
		"latency_ms", output.LatencyMS,
	)
	return !output.Catastrophic
}
