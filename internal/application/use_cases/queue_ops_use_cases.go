package use_cases

import (
	"context"
	"strings"
	"time"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type getQueueOverviewUseCase struct {
	readModel portsout.QueueOpsReadModel
}

func NewGetQueueOverviewUseCase(readModel portsout.QueueOpsReadModel) portsin.GetQueueOverviewUseCase {
	return &getQueueOverviewUseCase{readModel: readModel}
}

func (u *getQueueOverviewUseCase) Execute(
	ctx context.Context,
	query dto.GetQueueOverviewQuery,
) (dto.QueueOverview, *apperrors.AppError) {
	if u.readModel == nil {
		return dto.QueueOverview{}, apperrors.NewInternal(
			"queue_ops_read_model_missing",
			"queue ops read model is required",
			nil,
		)
	}

	now := query.Now.UTC()
	if query.Now.IsZero() {
		now = time.Now().UTC()
	}

	return u.readModel.GetOverview(ctx, strings.TrimSpace(query.TaskName), now)
}

type requeueQueueItemUseCase struct {
	unitOfWork portsout.UnitOfWork
	items      portsout.QueueItemRepository
}

func NewRequeueQueueItemUseCase(
	unitOfWork portsout.UnitOfWork,
	items portsout.QueueItemRepository,
) portsin.RequeueQueueItemUseCase {
	return &requeueQueueItemUseCase{
		unitOfWork: unitOfWork,
		items:      items,
	}
}

func (u *requeueQueueItemUseCase) Execute(
	ctx context.Context,
	command dto.RequeueQueueItemCommand,
) (dto.RequeueQueueItemOutput, *apperrors.AppError) {
	if u.unitOfWork == nil || u.items == nil {
		return dto.RequeueQueueItemOutput{}, apperrors.NewInternal(
			"queue_item_repository_missing",
			"queue item repository is required",
			nil,
		)
	}

	itemID := strings.TrimSpace(command.QueueItemID)
	if itemID == "" {
		return dto.RequeueQueueItemOutput{}, apperrors.NewValidation(
			"invalid_request",
			"queue_item_id is required",
			map[string]any{"field": "queue_item_id"},
		)
	}
	operatorID := strings.TrimSpace(command.OperatorID)
	if operatorID == "" {
		return dto.RequeueQueueItemOutput{}, apperrors.NewValidation(
			"invalid_request",
			"x_principal_id is required",
			map[string]any{"field": "x_principal_id"},
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = time.Now().UTC()
	}

	var output dto.RequeueQueueItemOutput
	txErr := u.unitOfWork.WithinTransaction(ctx, func(txCtx context.Context) error {
		item, found, appErr := u.items.FindByID(txCtx, itemID)
		if appErr != nil {
			return appErr
		}
		if !found {
			return apperrors.NewNotFound(
				"queue_item_not_found",
				"queue item was not found",
				map[string]any{"queue_item_id": itemID},
			)
		}
		if appErr := item.Requeue(now); appErr != nil {
			return appErr
		}
		item.ExecutionResult["requeued_by"] = operatorID
		if appErr := u.items.Save(txCtx, &item); appErr != nil {
			return appErr
		}
		output = dto.RequeueQueueItemOutput{
			QueueItemID: item.ID,
			Status:      item.Status.String(),
			RunAt:       item.RunAt,
			UpdatedAt:   item.UpdatedAt,
		}
		return nil
	})
	if txErr != nil {
		return dto.RequeueQueueItemOutput{}, apperrors.From(txErr, "queue_item_requeue_failed", "failed to requeue queue item")
	}
	return output, nil
}
