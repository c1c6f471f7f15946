package out

import (
	"context"

	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type ReservationRepository interface {
	FindByID(ctx context.Context, id string) (entities.Reservation, bool, *apperrors.AppError)
	FindByRemoteID(ctx context.Context, configID string, remoteID string) (entities.Reservation, bool, *apperrors.AppError)
	Save(ctx context.Context, reservation *entities.Reservation) *apperrors.AppError
}
