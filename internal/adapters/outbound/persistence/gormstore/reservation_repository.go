package gormstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type ReservationRepository struct {
	db  *gorm.DB
	log repoLogger
}

var _ portsout.ReservationRepository = (*ReservationRepository)(nil)

func NewReservationRepository(db *gorm.DB, logger *slog.Logger) *ReservationRepository {
	return &ReservationRepository{db: db, log: newRepoLogger(logger, "reservations")}
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (entities.Reservation, bool, *apperrors.AppError) {
	return r.findOne(ctx, "reservation_get_failed",
		dbFrom(ctx, r.db).Where("id = ?", strings.TrimSpace(id)),
		"reservation_id", id,
	)
}

func (r *ReservationRepository) FindByRemoteID(
	ctx context.Context,
	configID string,
	remoteID string,
) (entities.Reservation, bool, *apperrors.AppError) {
	return r.findOne(ctx, "reservation_get_by_remote_failed",
		dbFrom(ctx, r.db).Where("config_id = ? AND remote_id = ?", strings.TrimSpace(configID), strings.TrimSpace(remoteID)),
		"config_id", configID,
		"remote_id", remoteID,
	)
}

func (r *ReservationRepository) Save(ctx context.Context, reservation *entities.Reservation) *apperrors.AppError {
	if reservation == nil {
		return apperrors.NewInternal("reservation_missing", "reservation is required", nil)
	}
	row := reservationModelFromEntity(*reservation)
	err := dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"remote_id", "property_id", "guest_name", "guest_phone", "room_code",
			"check_in", "check_out", "status", "total_amount_minor", "currency", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict(
				"reservation_remote_id_taken",
				"another reservation already uses this remote id",
				map[string]any{"reservation_id": reservation.ID},
			)
		}
		return r.log.fail("reservation_save_failed", "failed to save reservation", err, "reservation_id", reservation.ID)
	}
	return nil
}

func (r *ReservationRepository) findOne(
	_ context.Context,
	event string,
	query *gorm.DB,
	attrs ...any,
) (entities.Reservation, bool, *apperrors.AppError) {
	var row reservationModel
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Reservation{}, false, nil
		}
		return entities.Reservation{}, false, r.log.fail(event, "failed to load reservation", err, attrs...)
	}
	return row.toEntity(), true, nil
}
