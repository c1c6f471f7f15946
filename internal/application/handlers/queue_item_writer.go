// Package handlers applies provider outcomes to queue items and to the
// business records they were created for.
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	"exchangeengine/internal/domain/policies"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type queueItemWriter struct {
	items portsout.QueueItemRepository
	retry policies.RetryPolicy
}

func (w queueItemWriter) succeed(
	ctx context.Context,
	item *entities.QueueItem,
	result dto.ItemResult,
	now time.Time,
) *apperrors.AppError {
	if w.items == nil {
		return apperrors.NewInternal("queue_item_repository_missing", "queue item repository is required", nil)
	}
	if appErr := item.MarkSucceeded(result.Outcome(), now); appErr != nil {
		return appErr
	}
	return w.items.Save(ctx, item)
}

func (w queueItemWriter) fail(
	ctx context.Context,
	item *entities.QueueItem,
	reason string,
	now time.Time,
) *apperrors.AppError {
	if w.items == nil {
		return apperrors.NewInternal("queue_item_repository_missing", "queue item repository is required", nil)
	}
	retryAt := w.retry.NextAttemptAt(item.RetryCount+1, now)
	if appErr := item.MarkFailed(reason, retryAt, now); appErr != nil {
		return appErr
	}
	return w.items.Save(ctx, item)
}

func decodePayload[T any](item *entities.QueueItem) (T, *apperrors.AppError) {
	var payload T
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return payload, apperrors.NewInternal(
			"queue_item_payload_invalid",
			"queue item payload could not be decoded",
			map[string]any{"queue_item_id": item.ID, "error": err.Error()},
		)
	}
	return payload, nil
}
