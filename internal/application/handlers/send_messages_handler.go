package handlers

import (
	"context"
	"log/slog"
	"time"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	"exchangeengine/internal/domain/policies"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// SendMessagesHandler keeps outbound_messages in step with the WhatsApp
// gateway's verdict on each queued message.
type SendMessagesHandler struct {
	writer   queueItemWriter
	messages portsout.OutboundMessageRepository
	logger   *slog.Logger
}

func NewSendMessagesHandler(
	items portsout.QueueItemRepository,
	messages portsout.OutboundMessageRepository,
	retry policies.RetryPolicy,
	logger *slog.Logger,
) *SendMessagesHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SendMessagesHandler{
		writer:   queueItemWriter{items: items, retry: retry},
		messages: messages,
		logger:   logger,
	}
}

func (h *SendMessagesHandler) HandleSuccess(
	ctx context.Context,
	item *entities.QueueItem,
	result dto.ItemResult,
	now time.Time,
) *apperrors.AppError {
	message, found, appErr := h.loadMessage(ctx, item)
	if appErr != nil {
		return appErr
	}
	if found {
		message.MarkSubmitted(result.RemoteID, now)
		if saveErr := h.messages.Save(ctx, &message); saveErr != nil {
			return saveErr
		}
	}
	return h.writer.succeed(ctx, item, result, now)
}

func (h *SendMessagesHandler) HandleFailure(
	ctx context.Context,
	item *entities.QueueItem,
	reason string,
	now time.Time,
) *apperrors.AppError {
	if appErr := h.writer.fail(ctx, item, reason, now); appErr != nil {
		return appErr
	}
	message, found, appErr := h.loadMessage(ctx, item)
	if appErr != nil {
		return appErr
	}
	if !found {
		return nil
	}
	message.MarkUndelivered(reason, item.IsExhausted(), now)
	return h.messages.Save(ctx, &message)
}

func (h *SendMessagesHandler) loadMessage(
	ctx context.Context,
	item *entities.QueueItem,
) (entities.OutboundMessage, bool, *apperrors.AppError) {
	if h.messages == nil {
		return entities.OutboundMessage{}, false, apperrors.NewInternal(
			"outbound_message_repository_missing",
			"outbound message repository is required",
			nil,
		)
	}
	payload, appErr := decodePayload[dto.MessagePayload](item)
	if appErr != nil {
		return entities.OutboundMessage{}, false, appErr
	}
	message, found, appErr := h.messages.FindByID(ctx, payload.MessageID)
	if appErr != nil {
		return entities.OutboundMessage{}, false, appErr
	}
	if !found {
		h.logger.WarnContext(ctx, "outbound message missing for queue item",
			"queue_item_id", item.ID,
			"message_id", payload.MessageID,
		)
	}
	return message, found, nil
}
