package use_cases

import (
	"context"
	"strings"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// loadActiveChannel resolves a config that must exist, belong to provider
// and be active.
func loadActiveChannel(
	ctx context.Context,
	configs portsout.ChannelConfigRepository,
	configID string,
	provider string,
) (entities.ChannelConfig, *apperrors.AppError) {
	if configs == nil {
		return entities.ChannelConfig{}, apperrors.NewInternal(
			"channel_config_repository_missing",
			"channel config repository is required",
			nil,
		)
	}
	trimmed := strings.TrimSpace(configID)
	if trimmed == "" {
		return entities.ChannelConfig{}, apperrors.NewValidation(
			"invalid_request",
			"config_id is required",
			map[string]any{"field": "config_id"},
		)
	}

	config, found, appErr := configs.FindByID(ctx, trimmed)
	if appErr != nil {
		return entities.ChannelConfig{}, appErr
	}
	if !found {
		return entities.ChannelConfig{}, apperrors.NewNotFound(
			"channel_config_not_found",
			"channel config was not found",
			map[string]any{"config_id": trimmed},
		)
	}
	if !strings.EqualFold(config.Provider, provider) {
		return entities.ChannelConfig{}, apperrors.NewValidation(
			"channel_config_provider_mismatch",
			"channel config belongs to another provider",
			map[string]any{"config_id": trimmed, "expected_provider": provider, "provider": config.Provider},
		)
	}
	if appErr := config.EnsureActive(); appErr != nil {
		return entities.ChannelConfig{}, appErr
	}
	return config, nil
}
