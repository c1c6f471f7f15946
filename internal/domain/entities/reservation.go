package entities

import (
	"strings"
	"time"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusModified  = "modified"
)

// Reservation is the local copy of a booking kept in sync with the channel
// manager. RemoteID is the channel manager's identifier once known.
type Reservation struct {
	ID               string
	ConfigID         string
	RemoteID         *string
	PropertyID       string
	GuestName        string
	GuestPhone       string
	RoomCode         string
	CheckIn          time.Time
	CheckOut         time.Time
	Status           string
	TotalAmountMinor int64
	Currency         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NormalizeReservationStatus(raw string) (string, *apperrors.AppError) {
	switch status := strings.ToLower(strings.TrimSpace(raw)); status {
	case "", ReservationStatusConfirmed, "new", "booked":
		return ReservationStatusConfirmed, nil
	case ReservationStatusCancelled, "canceled":
		return ReservationStatusCancelled, nil
	case ReservationStatusModified:
		return ReservationStatusModified, nil
	default:
		return "", apperrors.NewValidation(
			"reservation_status_invalid",
			"reservation status is invalid",
			map[string]any{"status": raw},
		)
	}
}

func (r Reservation) Validate() *apperrors.AppError {
	if strings.TrimSpace(r.ConfigID) == "" {
		return apperrors.NewValidation("reservation_config_missing", "reservation config id is required", nil)
	}
	if strings.TrimSpace(r.GuestName) == "" {
		return apperrors.NewValidation("reservation_guest_missing", "reservation guest name is required", nil)
	}
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() || !r.CheckOut.After(r.CheckIn) {
		return apperrors.NewValidation(
			"reservation_dates_invalid",
			"reservation check_out must be after check_in",
			map[string]any{
				"check_in":  r.CheckIn.Format(time.DateOnly),
				"check_out": r.CheckOut.Format(time.DateOnly),
			},
		)
	}
	if r.TotalAmountMinor < 0 {
		return apperrors.NewValidation("reservation_amount_invalid", "reservation amount must not be negative", nil)
	}
	return nil
}

func (r *Reservation) AssignRemoteID(remoteID string, now time.Time) {
	trimmed := strings.TrimSpace(remoteID)
	if trimmed == "" {
		return
	}
	r.RemoteID = &trimmed
	r.UpdatedAt = now.UTC()
}
