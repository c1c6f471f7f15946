package use_cases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/application/synccontext"
	"exchangeengine/internal/domain/entities"
	"exchangeengine/internal/domain/policies"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const missingResultReason = "missing result"

var tracer = otel.Tracer("exchangeengine/application")

type runTaskUseCase struct {
	tasks      *TaskRegistry
	processor  *BatchProcessor
	unitOfWork portsout.UnitOfWork
	recorder   portsout.CatastrophicFailureRecorder
	publisher  portsout.OutcomePublisher
	retry      policies.RetryPolicy
	clock      Clock
	logger     *slog.Logger
}

func NewRunTaskUseCase(
	tasks *TaskRegistry,
	processor *BatchProcessor,
	unitOfWork portsout.UnitOfWork,
	recorder portsout.CatastrophicFailureRecorder,
	publisher portsout.OutcomePublisher,
	retry policies.RetryPolicy,
	clock Clock,
	logger *slog.Logger,
) portsin.RunTaskUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &runTaskUseCase{
		tasks:      tasks,
		processor:  processor,
		unitOfWork: unitOfWork,
		recorder:   recorder,
		publisher:  publisher,
		retry:      retry,
		clock:      clock,
		logger:     logger,
	}
}

func (u *runTaskUseCase) Execute(
	ctx context.Context,
	command dto.RunTaskCommand,
) (dto.RunTaskOutput, *apperrors.AppError) {
	if u.tasks == nil || u.processor == nil {
		return dto.RunTaskOutput{}, apperrors.NewInternal(
			"run_task_registry_missing",
			"task registry and batch processor are required",
			nil,
		)
	}
	if u.unitOfWork == nil {
		return dto.RunTaskOutput{}, apperrors.NewInternal("unit_of_work_missing", "unit of work is required", nil)
	}
	if u.recorder == nil {
		return dto.RunTaskOutput{}, apperrors.NewInternal(
			"catastrophic_failure_recorder_missing",
			"catastrophic failure recorder is required",
			nil,
		)
	}
	workerID := strings.TrimSpace(command.WorkerID)
	if workerID == "" {
		return dto.RunTaskOutput{}, apperrors.NewValidation(
			"run_task_worker_id_invalid",
			"run task worker id is required",
			nil,
		)
	}
	task, appErr := u.tasks.Resolve(command.TaskName)
	if appErr != nil {
		return dto.RunTaskOutput{}, appErr
	}

	startedAt := u.clock.NowUTC()
	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = startedAt
	}
	limit := task.EffectiveLimit(command.Limit)

	ctx, span := tracer.Start(ctx, "exchange.run_task")
	defer span.End()
	span.SetAttributes(
		attribute.String("exchange.task", task.Name),
		attribute.String("exchange.provider", task.Provider),
		attribute.Int("exchange.limit", limit),
	)

	output := dto.RunTaskOutput{TaskName: task.Name}
	batch, appErr := task.Queue.ClaimBatch(ctx, limit, workerID, now)
	if appErr != nil {
		span.SetStatus(codes.Error, appErr.Code)
		return output, appErr
	}
	if batch == nil {
		output.LatencyMS = u.clock.NowUTC().Sub(startedAt).Milliseconds()
		return output, nil
	}

	output.Claimed = batch.Len()
	output.ConfigID = batch.Config().ID
	output.EndpointID = batch.Endpoint().ID
	span.SetAttributes(
		attribute.Int("exchange.claimed", output.Claimed),
		attribute.String("exchange.config_id", output.ConfigID),
	)

	claimedRetryCounts := make(map[string]int, batch.Len())
	for _, item := range batch.Items() {
		claimedRetryCounts[item.ID] = item.RetryCount
	}

	ctx, scope := synccontext.Enter(ctx, task.Mode, task.Provider)
	defer scope.Restore()

	txErr := u.unitOfWork.WithinTransaction(ctx, func(txCtx context.Context) error {
		if appErr := u.dispatch(txCtx, task, *batch, now); appErr != nil {
			return appErr
		}
		return nil
	})
	if txErr != nil {
		cause := apperrors.From(txErr, "run_task_transaction_failed", "run task transaction failed")
		span.RecordError(cause)
		span.SetStatus(codes.Error, cause.Code)
		output.Catastrophic = true
		output.Failed = batch.Len()
		reason := catastrophicReason(cause)
		recoverErr := u.recoverBatch(ctx, task, *batch, cause, reason, now)
		u.publishCatastrophic(ctx, task, *batch, claimedRetryCounts, reason, now)
		output.LatencyMS = u.clock.NowUTC().Sub(startedAt).Milliseconds()
		return output, recoverErr
	}

	for _, item := range batch.Items() {
		switch {
		case item.Status == valueobjects.QueueItemStatusSuccess:
			output.Succeeded++
		case item.IsExhausted():
			output.Failed++
			output.Exhausted++
		default:
			output.Failed++
		}
	}
	u.publishCommitted(ctx, task, *batch, now)

	output.LatencyMS = u.clock.NowUTC().Sub(startedAt).Milliseconds()
	return output, nil
}

// dispatch runs inside the transaction. Any error it returns rolls the run
// back and sends the batch down the catastrophic path.
func (u *runTaskUseCase) dispatch(
	ctx context.Context,
	task Task,
	batch entities.HomogeneousBatch,
	now time.Time,
) *apperrors.AppError {
	if appErr := batch.Config().EnsureActive(); appErr != nil {
		return appErr
	}

	results, appErr := u.processor.ProcessBatch(ctx, task, batch)
	if appErr != nil {
		return appErr
	}

	for _, item := range batch.Items() {
		result, ok := results[item.ID]
		if ok && result.Success {
			if appErr := task.Handler.HandleSuccess(ctx, item, result, now); appErr != nil {
				return appErr
			}
			continue
		}

		reason := missingResultReason
		if ok && strings.TrimSpace(result.Message) != "" {
			reason = result.Message
		}
		if appErr := task.Handler.HandleFailure(ctx, item, reason, now); appErr != nil {
			return appErr
		}
	}
	return nil
}

// recoverBatch writes the failure of every item with a direct statement so
// the outcome survives the rollback.
func (u *runTaskUseCase) recoverBatch(
	ctx context.Context,
	task Task,
	batch entities.HomogeneousBatch,
	cause *apperrors.AppError,
	reason string,
	now time.Time,
) *apperrors.AppError {
	recoveryCtx := context.WithoutCancel(ctx)
	retryAt := u.retry.CatastrophicRetryAt(now)

	u.logger.ErrorContext(ctx, "exchange run failed catastrophically",
		"task_name", task.Name,
		"config_id", batch.Config().ID,
		"endpoint_id", batch.Endpoint().ID,
		"claimed", batch.Len(),
		"code", cause.Code,
		"error", cause.Message,
	)

	var failedIDs []string
	for _, item := range batch.Items() {
		updated, appErr := u.recorder.RecordCatastrophicFailure(recoveryCtx, dto.CatastrophicFailure{
			QueueItemID: item.ID,
			Reason:      policies.TruncateFailureReason(reason),
			HTTPCode:    item.LastHTTPCode,
			RequestRaw:  item.LastRequestRaw,
			ResponseRaw: item.LastResponseRaw,
			RetryAt:     retryAt,
			Now:         now,
		})
		if appErr != nil {
			failedIDs = append(failedIDs, item.ID)
			u.logger.ErrorContext(ctx, "catastrophic failure write failed",
				"queue_item_id", item.ID,
				"code", appErr.Code,
				"error", appErr.Message,
			)
			continue
		}
		if !updated {
			u.logger.WarnContext(ctx, "catastrophic failure write matched no row", "queue_item_id", item.ID)
		}
	}

	if len(failedIDs) > 0 {
		return apperrors.NewInternal(
			"queue_item_recovery_failed",
			"failed to record catastrophic failure for queue items",
			map[string]any{"queue_item_ids": failedIDs, "cause": cause.Code},
		)
	}
	return nil
}

func (u *runTaskUseCase) publishCommitted(
	ctx context.Context,
	task Task,
	batch entities.HomogeneousBatch,
	now time.Time,
) {
	events := make([]dto.OutcomeEvent, 0, batch.Len())
	for _, item := range batch.Items() {
		events = append(events, dto.OutcomeEvent{
			QueueItemID: item.ID,
			TaskName:    task.Name,
			ConfigID:    item.ConfigID,
			SourceType:  item.SourceType,
			SourceID:    item.SourceID,
			Status:      item.Status.String(),
			RetryCount:  item.RetryCount,
			Exhausted:   item.IsExhausted(),
			HTTPCode:    item.LastHTTPCode,
			Reason:      item.FailedReason,
			OccurredAt:  now,
		})
	}
	u.publish(ctx, task, events)
}

// publishCatastrophic reports what the recovery statement wrote. In-memory
// item state is ignored because the transaction that held it was rolled
// back.
func (u *runTaskUseCase) publishCatastrophic(
	ctx context.Context,
	task Task,
	batch entities.HomogeneousBatch,
	claimedRetryCounts map[string]int,
	reason string,
	now time.Time,
) {
	events := make([]dto.OutcomeEvent, 0, batch.Len())
	for _, item := range batch.Items() {
		retryCount := claimedRetryCounts[item.ID] + 1
		failedReason := policies.TruncateFailureReason(reason)
		events = append(events, dto.OutcomeEvent{
			QueueItemID:  item.ID,
			TaskName:     task.Name,
			ConfigID:     item.ConfigID,
			SourceType:   item.SourceType,
			SourceID:     item.SourceID,
			Status:       valueobjects.QueueItemStatusFailed.String(),
			RetryCount:   retryCount,
			Exhausted:    policies.IsExhausted(retryCount, item.MaxAttempts),
			Catastrophic: true,
			HTTPCode:     item.LastHTTPCode,
			Reason:       &failedReason,
			OccurredAt:   now,
		})
	}
	u.publish(ctx, task, events)
}

func (u *runTaskUseCase) publish(ctx context.Context, task Task, events []dto.OutcomeEvent) {
	if u.publisher == nil || len(events) == 0 {
		return
	}
	if appErr := u.publisher.Publish(context.WithoutCancel(ctx), events); appErr != nil {
		u.logger.WarnContext(ctx, "outcome publish failed",
			"task_name", task.Name,
			"events", len(events),
			"code", appErr.Code,
			"error", appErr.Message,
		)
	}
}

func catastrophicReason(cause *apperrors.AppError) string {
	if cause == nil {
		return "catastrophic failure"
	}
	message := strings.TrimSpace(cause.Message)
	if message == "" {
		message = cause.Code
	}
	if detail, ok := cause.Details["error"].(string); ok && strings.TrimSpace(detail) != "" {
		message += ": " + strings.TrimSpace(detail)
	}
	return "catastrophic: " + message
}
