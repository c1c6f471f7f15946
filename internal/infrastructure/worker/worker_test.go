//go:build !integration

package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"exchangeengine/internal/application/dto"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

func TestWorkerWithoutTasksReturnsImmediately(t *testing.T) {
	fakeUseCase := &fakeRunTaskUseCase{}
	worker := New(Config{PollInterval: 10 * time.Millisecond, WorkerID: "worker-a"}, fakeUseCase, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if fakeUseCase.totalCalls() != 0 {
		t.Fatalf("expected no calls without tasks, got %d", fakeUseCase.totalCalls())
	}
}

func TestWorkerPollsEveryTask(t *testing.T) {
	fakeUseCase := &fakeRunTaskUseCase{}
	worker := New(Config{
		Tasks:        []string{"whatsapp.send_messages", "channelmanager.pull_reservations"},
		PollInterval: 10 * time.Millisecond,
		WorkerID:     "worker-a",
	}, fakeUseCase, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(40 * time.Millisecond)
		cancel()
	}()

	if err := worker.Start(ctx); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if fakeUseCase.callsFor("whatsapp.send_messages") == 0 {
		t.Fatalf("expected send_messages to be polled")
	}
	if fakeUseCase.callsFor("channelmanager.pull_reservations") == 0 {
		t.Fatalf("expected pull_reservations to be polled")
	}
	if last := fakeUseCase.lastCommand(); last.WorkerID != "worker-a" {
		t.Fatalf("expected worker id worker-a, got %s", last.WorkerID)
	}
}

func TestWorkerDrainsBacklogBeforeWaiting(t *testing.T) {
	fakeUseCase := &fakeRunTaskUseCase{claimedRuns: 3}
	worker := New(Config{
		Tasks:        []string{"whatsapp.send_messages"},
		PollInterval: time.Hour,
		WorkerID:     "worker-a",
	}, fakeUseCase, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	// three runs that claimed work plus the empty run that ends the drain
	if got := fakeUseCase.callsFor("whatsapp.send_messages"); got != 4 {
		t.Fatalf("expected 4 runs, got %d", got)
	}
}

func TestWorkerStopsDrainOnError(t *testing.T) {
	fakeUseCase := &fakeRunTaskUseCase{
		claimedRuns: 5,
		err:         apperrors.NewUnavailable("queue_claim_failed", "claim failed", nil),
	}
	worker := New(Config{
		Tasks:        []string{"whatsapp.send_messages"},
		PollInterval: time.Hour,
		WorkerID:     "worker-a",
	}, fakeUseCase, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if got := fakeUseCase.callsFor("whatsapp.send_messages"); got != 1 {
		t.Fatalf("expected a single failed run, got %d", got)
	}
}

type fakeRunTaskUseCase struct {
	mu          sync.Mutex
	calls       map[string]int
	last        dto.RunTaskCommand
	claimedRuns int
	err         *apperrors.AppError
}

func (f *fakeRunTaskUseCase) Execute(_ context.Context, command dto.RunTaskCommand) (dto.RunTaskOutput, *apperrors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[command.TaskName]++
	f.last = command
	if f.err != nil {
		return dto.RunTaskOutput{}, f.err
	}
	output := dto.RunTaskOutput{TaskName: command.TaskName}
	if f.claimedRuns > 0 {
		f.claimedRuns--
		output.Claimed = 2
		output.Succeeded = 2
	}
	return output, nil
}

func (f *fakeRunTaskUseCase) callsFor(task string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[task]
}

func (f *fakeRunTaskUseCase) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, count := range f.calls {
		total += count
	}
	return total
}

func (f *fakeRunTaskUseCase) lastCommand() dto.RunTaskCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}
