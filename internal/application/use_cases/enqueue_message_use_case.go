package use_cases

import (
	"context"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type enqueueMessageUseCase struct {
	unitOfWork portsout.UnitOfWork
	configs    portsout.ChannelConfigRepository
	messages   portsout.OutboundMessageRepository
	outbox     *Outbox
	ids        portsout.IDGenerator
	clock      Clock
}

func NewEnqueueMessageUseCase(
	unitOfWork portsout.UnitOfWork,
	configs portsout.ChannelConfigRepository,
	messages portsout.OutboundMessageRepository,
	outbox *Outbox,
	ids portsout.IDGenerator,
	clock Clock,
) portsin.EnqueueMessageUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &enqueueMessageUseCase{
		unitOfWork: unitOfWork,
		configs:    configs,
		messages:   messages,
		outbox:     outbox,
		ids:        ids,
		clock:      clock,
	}
}

func (u *enqueueMessageUseCase) Execute(
	ctx context.Context,
	command dto.EnqueueMessageCommand,
) (dto.EnqueueMessageOutput, *apperrors.AppError) {
	if u.unitOfWork == nil || u.messages == nil || u.outbox == nil || u.ids == nil {
		return dto.EnqueueMessageOutput{}, apperrors.NewInternal(
			"enqueue_message_misconfigured",
			"enqueue message dependencies are required",
			nil,
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	var output dto.EnqueueMessageOutput
	txErr := u.unitOfWork.WithinTransaction(ctx, func(txCtx context.Context) error {
		config, appErr := loadActiveChannel(txCtx, u.configs, command.ConfigID, dto.ProviderWhatsApp)
		if appErr != nil {
			return appErr
		}
		message, appErr := entities.NewQueuedMessage(u.ids.NewID(), config.ID, command.Recipient, command.Body, now)
		if appErr != nil {
			return appErr
		}
		if appErr := u.messages.Create(txCtx, message); appErr != nil {
			return appErr
		}

		item, appErr := u.outbox.Enqueue(txCtx, dto.EnqueueInput{
			TaskName:  dto.TaskSendMessages,
			ConfigID:  config.ID,
			Provider:  dto.ProviderWhatsApp,
			Operation: dto.OperationSendMessages,
			Payload: dto.MessagePayload{
				MessageID: message.ID,
				Recipient: message.Recipient,
				Body:      message.Body,
			},
			SourceType: dto.SourceTypeOutboundMessage,
			SourceID:   message.ID,
		})
		if appErr != nil {
			return appErr
		}

		output = dto.EnqueueMessageOutput{
			MessageID:   message.ID,
			QueueItemID: item.ID,
			Status:      message.Status,
			CreatedAt:   message.CreatedAt,
		}
		return nil
	})
	if txErr != nil {
		return dto.EnqueueMessageOutput{}, apperrors.From(txErr, "enqueue_message_failed", "failed to enqueue message")
	}
	return output, nil
}
