package cli

import (
	"context"
	"fmt"
	"log/slog"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	"exchangeengine/internal/infrastructure/config"
)

func initializePersistence(
	ctx context.Context,
	cfg config.Config,
	useCase portsin.InitializePersistenceUseCase,
	syncCatalog bool,
	logger *slog.Logger,
) error {
	logger.Info(
		"persistence initialization starting",
		"database_target", cfg.DatabaseTarget,
		"sync_endpoint_catalog", syncCatalog,
	)
	appErr := useCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
		SyncEndpointCatalog:    syncCatalog,
	})
	if appErr != nil {
		logger.Error(
			"persistence initialization failed",
			"code", appErr.Code,
			"message", appErr.Message,
			"details", appErr.Details,
		)
		return fmt.Errorf("persistence initialization failed code=%s: %w", appErr.Code, appErr)
	}
	logger.Info("persistence initialization completed", "database_target", cfg.DatabaseTarget)
	return nil
}
