package use_cases

import (
	"context"
	"strconv"
	"time"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type initializePersistenceUseCase struct {
	gateway   portsout.PersistenceBootstrapGateway
	catalog   portsout.EndpointCatalogSource
	endpoints portsout.EndpointRepository
}

func NewInitializePersistenceUseCase(
	gateway portsout.PersistenceBootstrapGateway,
	catalog portsout.EndpointCatalogSource,
	endpoints portsout.EndpointRepository,
) portsin.InitializePersistenceUseCase {
	return &initializePersistenceUseCase{
		gateway:   gateway,
		catalog:   catalog,
		endpoints: endpoints,
	}
}

func (u *initializePersistenceUseCase) Execute(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError {
	if u.gateway == nil {
		return apperrors.NewInternal(
			"PERSISTENCE_GATEWAY_MISSING",
			"persistence gateway is required",
			nil,
		)
	}

	if command.ReadinessTimeout <= 0 {
		return apperrors.NewValidation(
			"READINESS_TIMEOUT_INVALID",
			"readiness timeout must be greater than zero",
			nil,
		)
	}

	if command.ReadinessRetryInterval <= 0 {
		return apperrors.NewValidation(
			"READINESS_RETRY_INTERVAL_INVALID",
			"readiness retry interval must be greater than zero",
			nil,
		)
	}

	readinessCtx, cancel := context.WithTimeout(ctx, command.ReadinessTimeout)
	defer cancel()

	attempts := 0
	for {
		attempts++
		appErr := u.gateway.CheckReadiness(readinessCtx)
		if appErr == nil {
			break
		}

		if readinessCtx.Err() != nil {
			return apperrors.NewInternal(
				"DB_READINESS_TIMEOUT",
				"database readiness check timed out",
				map[string]any{
					"attempts":  strconv.Itoa(attempts),
					"timeout":   command.ReadinessTimeout.String(),
					"last_code": appErr.Code,
				},
			)
		}

		timer := time.NewTimer(command.ReadinessRetryInterval)
		select {
		case <-readinessCtx.Done():
			timer.Stop()
			return apperrors.NewInternal(
				"DB_READINESS_TIMEOUT",
				"database readiness check timed out",
				map[string]any{
					"attempts": strconv.Itoa(attempts),
					"timeout":  command.ReadinessTimeout.String(),
				},
			)
		case <-timer.C:
		}
	}

	if migrationErr := u.gateway.RunMigrations(ctx); migrationErr != nil {
		return migrationErr
	}

	if !command.SyncEndpointCatalog {
		return nil
	}
	return u.syncEndpointCatalog(ctx)
}

func (u *initializePersistenceUseCase) syncEndpointCatalog(ctx context.Context) *apperrors.AppError {
	if u.catalog == nil || u.endpoints == nil {
		return apperrors.NewInternal(
			"ENDPOINT_CATALOG_MISSING",
			"endpoint catalog source and repository are required",
			nil,
		)
	}

	endpoints, appErr := u.catalog.Load(ctx)
	if appErr != nil {
		return appErr
	}
	if len(endpoints) == 0 {
		return apperrors.NewValidation(
			"ENDPOINT_CATALOG_EMPTY",
			"endpoint catalog contains no endpoints",
			nil,
		)
	}

	seen := make(map[string]struct{}, len(endpoints))
	for _, endpoint := range endpoints {
		key := endpoint.Provider + "/" + endpoint.Operation
		if _, exists := seen[key]; exists {
			return apperrors.NewValidation(
				"ENDPOINT_CATALOG_DUPLICATE",
				"endpoint catalog defines an operation twice",
				map[string]any{"provider": endpoint.Provider, "operation": endpoint.Operation},
			)
		}
		seen[key] = struct{}{}
	}

	return u.endpoints.UpsertAll(ctx, endpoints)
}
