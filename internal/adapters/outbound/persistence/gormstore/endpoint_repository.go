package gormstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type EndpointRepository struct {
	db  *gorm.DB
	log repoLogger
}

var _ portsout.EndpointRepository = (*EndpointRepository)(nil)

func NewEndpointRepository(db *gorm.DB, logger *slog.Logger) *EndpointRepository {
	return &EndpointRepository{db: db, log: newRepoLogger(logger, "endpoints")}
}

func (r *EndpointRepository) FindByOperation(
	ctx context.Context,
	provider string,
	operation string,
) (entities.Endpoint, bool, *apperrors.AppError) {
	var row endpointModel
	err := dbFrom(ctx, r.db).
		Where("provider = ? AND operation = ?",
			strings.ToLower(strings.TrimSpace(provider)),
			strings.ToLower(strings.TrimSpace(operation)),
		).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Endpoint{}, false, nil
		}
		return entities.Endpoint{}, false, r.log.fail("endpoint_get_failed", "failed to load endpoint", err,
			"provider", provider,
			"operation", operation,
		)
	}
	return row.toEntity(), true, nil
}

// UpsertAll syncs the catalog. Endpoints are matched on (provider,
// operation) so ids referenced by queue items never change.
func (r *EndpointRepository) UpsertAll(ctx context.Context, endpoints []entities.Endpoint) *apperrors.AppError {
	if len(endpoints) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]endpointModel, 0, len(endpoints))
	for _, endpoint := range endpoints {
		rows = append(rows, endpointModel{
			ID:        endpoint.ID,
			Provider:  endpoint.Provider,
			Operation: endpoint.Operation,
			Path:      endpoint.Path,
			Method:    endpoint.Method.String(),
			UpdatedAt: now,
		})
	}

	err := dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "operation"}},
		DoUpdates: clause.AssignmentColumns([]string{"path", "method", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return r.log.fail("endpoint_upsert_failed", "failed to sync endpoint catalog", err, "count", len(rows))
	}
	return nil
}
