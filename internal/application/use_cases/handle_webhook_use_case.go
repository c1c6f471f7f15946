package use_cases

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/application/handlers"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/application/synccontext"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const maxAuditedPayloadBytes = 64 * 1024

type handleWebhookUseCase struct {
	unitOfWork   portsout.UnitOfWork
	configs      portsout.ChannelConfigRepository
	resolver     *handlers.ReservationUpsertResolver
	audits       portsout.WebhookAuditRepository
	deduplicator portsout.WebhookDeduplicator
	ids          portsout.IDGenerator
	clock        Clock
	logger       *slog.Logger
}

// NewHandleWebhookUseCase builds the synchronous inbound path for channel
// manager reservation webhooks.
func NewHandleWebhookUseCase(
	unitOfWork portsout.UnitOfWork,
	configs portsout.ChannelConfigRepository,
	resolver *handlers.ReservationUpsertResolver,
	audits portsout.WebhookAuditRepository,
	deduplicator portsout.WebhookDeduplicator,
	ids portsout.IDGenerator,
	clock Clock,
	logger *slog.Logger,
) portsin.HandleWebhookUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &handleWebhookUseCase{
		unitOfWork:   unitOfWork,
		configs:      configs,
		resolver:     resolver,
		audits:       audits,
		deduplicator: deduplicator,
		ids:          ids,
		clock:        clock,
		logger:       logger,
	}
}

func (u *handleWebhookUseCase) Execute(
	ctx context.Context,
	command dto.HandleWebhookCommand,
) (dto.HandleWebhookOutput, *apperrors.AppError) {
	if u.unitOfWork == nil || u.configs == nil || u.resolver == nil || u.ids == nil {
		return dto.HandleWebhookOutput{}, apperrors.NewInternal(
			"handle_webhook_misconfigured",
			"handle webhook dependencies are required",
			nil,
		)
	}

	now := command.ReceivedAt.UTC()
	if command.ReceivedAt.IsZero() {
		now = u.clock.NowUTC()
	}
	provider := strings.ToLower(strings.TrimSpace(command.Provider))
	configID := strings.TrimSpace(command.ConfigID)
	eventID := strings.TrimSpace(command.EventID)

	audit := entities.WebhookAudit{
		ID:            u.ids.NewID(),
		ConfigID:      configID,
		Provider:      provider,
		EventID:       eventID,
		PayloadDigest: payloadDigest(command.Body),
		PayloadRaw:    truncatePayload(command.Body),
		CreatedAt:     now,
	}

	output, appErr := u.handle(ctx, command, provider, configID, eventID, now)
	u.recordAudit(ctx, audit, output, appErr)
	return output, appErr
}

func (u *handleWebhookUseCase) handle(
	ctx context.Context,
	command dto.HandleWebhookCommand,
	provider string,
	configID string,
	eventID string,
	now time.Time,
) (dto.HandleWebhookOutput, *apperrors.AppError) {
	config, appErr := u.authenticate(ctx, provider, configID, command.Token)
	if appErr != nil {
		return dto.HandleWebhookOutput{}, appErr
	}
	if config.Provider != dto.ProviderChannelManager {
		return dto.HandleWebhookOutput{}, apperrors.NewValidation(
			"webhook_provider_unsupported",
			"webhooks are not supported for this provider",
			map[string]any{"provider": config.Provider},
		)
	}

	claimed := false
	if eventID != "" && u.deduplicator != nil {
		firstSeen, dedupeErr := u.deduplicator.FirstSeen(ctx, provider, configID, eventID)
		if dedupeErr != nil {
			u.logger.WarnContext(ctx, "webhook dedupe unavailable",
				"config_id", configID,
				"event_id", eventID,
				"code", dedupeErr.Code,
			)
		} else if !firstSeen {
			return dto.HandleWebhookOutput{OK: true, Duplicate: true}, nil
		}
		claimed = dedupeErr == nil
	}

	output, appErr := u.process(ctx, config, command.Body, now)
	if appErr != nil && claimed {
		u.release(ctx, provider, configID, eventID)
	}
	return output, appErr
}

// process upserts every record of the body in one transaction. Records the
// resolver rejects on their own turn the answer into ok=false but keep the
// rest of the delivery.
func (u *handleWebhookUseCase) process(
	ctx context.Context,
	config entities.ChannelConfig,
	body []byte,
	now time.Time,
) (dto.HandleWebhookOutput, *apperrors.AppError) {
	records, err := dto.DecodeInboundReservations(body)
	if err != nil {
		return dto.HandleWebhookOutput{}, apperrors.NewValidation(
			"webhook_payload_invalid",
			"webhook body is not a valid reservation payload",
			map[string]any{"error": err.Error()},
		)
	}

	output := dto.HandleWebhookOutput{OK: true}
	runErr := synccontext.Run(ctx, synccontext.ModePull, config.Provider, func(pullCtx context.Context) error {
		return u.unitOfWork.WithinTransaction(pullCtx, func(txCtx context.Context) error {
			output = dto.HandleWebhookOutput{OK: true}
			for _, record := range records {
				_, resolveErr := u.resolver.Resolve(txCtx, config.ID, record, now)
				if resolveErr == nil {
					output.Processed++
					continue
				}
				if handlers.IsRecordRejection(resolveErr) {
					output.OK = false
					output.Error = resolveErr.Message
					continue
				}
				return resolveErr
			}
			return nil
		})
	})
	if runErr != nil {
		return dto.HandleWebhookOutput{}, apperrors.From(runErr, "webhook_processing_failed", "failed to process webhook")
	}
	return output, nil
}

// release drops the event id mark of a delivery that was not stored, so the
// sender's retry is processed instead of acknowledged as a duplicate.
func (u *handleWebhookUseCase) release(ctx context.Context, provider string, configID string, eventID string) {
	if appErr := u.deduplicator.Forget(context.WithoutCancel(ctx), provider, configID, eventID); appErr != nil {
		u.logger.WarnContext(ctx, "webhook dedupe release failed",
			"config_id", configID,
			"event_id", eventID,
			"code", appErr.Code,
		)
	}
}

func (u *handleWebhookUseCase) authenticate(
	ctx context.Context,
	provider string,
	configID string,
	token string,
) (entities.ChannelConfig, *apperrors.AppError) {
	unauthorized := apperrors.NewUnauthorized(
		"webhook_unauthorized",
		"webhook authentication failed",
		map[string]any{"config_id": configID},
	)
	if configID == "" || strings.TrimSpace(token) == "" {
		return entities.ChannelConfig{}, unauthorized
	}

	config, found, appErr := u.configs.FindByID(ctx, configID)
	if appErr != nil {
		return entities.ChannelConfig{}, appErr
	}
	if !found || !config.Active || config.Provider != provider || strings.TrimSpace(config.WebhookSecret) == "" {
		return entities.ChannelConfig{}, unauthorized
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(config.WebhookSecret)) != 1 {
		return entities.ChannelConfig{}, unauthorized
	}
	return config, nil
}

func (u *handleWebhookUseCase) recordAudit(
	ctx context.Context,
	audit entities.WebhookAudit,
	output dto.HandleWebhookOutput,
	appErr *apperrors.AppError,
) {
	switch {
	case appErr != nil:
		audit.HTTPStatus = WebhookHTTPStatus(appErr)
		audit.Outcome = entities.WebhookOutcomeFailed
		if appErr.Type == apperrors.TypeUnauthorized || appErr.Type == apperrors.TypeValidation {
			audit.Outcome = entities.WebhookOutcomeRejected
		}
		message := appErr.Code + ": " + appErr.Message
		audit.Error = &message
	case output.Duplicate:
		audit.HTTPStatus = http.StatusOK
		audit.OK = true
		audit.Outcome = entities.WebhookOutcomeDuplicate
	default:
		audit.HTTPStatus = http.StatusOK
		audit.OK = output.OK
		audit.Outcome = entities.WebhookOutcomeProcessed
		if output.Error != "" {
			message := output.Error
			audit.Error = &message
		}
	}

	if u.audits == nil {
		return
	}
	if auditErr := u.audits.Create(context.WithoutCancel(ctx), audit); auditErr != nil {
		u.logger.ErrorContext(ctx, "webhook audit write failed",
			"config_id", audit.ConfigID,
			"event_id", audit.EventID,
			"code", auditErr.Code,
		)
	}
}

// WebhookHTTPStatus maps a webhook failure to the status the provider sees.
func WebhookHTTPStatus(appErr *apperrors.AppError) int {
	if appErr == nil {
		return http.StatusOK
	}
	switch appErr.Type {
	case apperrors.TypeUnauthorized:
		return http.StatusForbidden
	case apperrors.TypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func payloadDigest(body []byte) string {
	sum := sha3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func truncatePayload(body []byte) string {
	if len(body) > maxAuditedPayloadBytes {
		body = body[:maxAuditedPayloadBytes]
	}
	return strings.ToValidUTF8(string(body), "")
}
