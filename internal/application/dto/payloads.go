package dto

import (
	"time"

	"exchangeengine/internal/domain/entities"
)

const (
	SourceTypeOutboundMessage = "outbound_message"
	SourceTypeReservation     = "reservation"
	SourceTypeReservationPull = "reservation_pull"
)

// MessagePayload is the queue snapshot of an outbound message.
type MessagePayload struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

// ReservationPayload is the queue snapshot of a reservation at the time it
// was saved.
type ReservationPayload struct {
	ReservationID    string  `json:"reservation_id"`
	RemoteID         *string `json:"remote_id,omitempty"`
	PropertyID       string  `json:"property_id"`
	GuestName        string  `json:"guest_name"`
	GuestPhone       string  `json:"guest_phone,omitempty"`
	RoomCode         string  `json:"room_code"`
	CheckIn          string  `json:"check_in"`
	CheckOut         string  `json:"check_out"`
	Status           string  `json:"status"`
	TotalAmountMinor int64   `json:"total_amount_minor"`
	Currency         string  `json:"currency"`
}

func NewReservationPayload(reservation entities.Reservation) ReservationPayload {
	return ReservationPayload{
		ReservationID:    reservation.ID,
		RemoteID:         reservation.RemoteID,
		PropertyID:       reservation.PropertyID,
		GuestName:        reservation.GuestName,
		GuestPhone:       reservation.GuestPhone,
		RoomCode:         reservation.RoomCode,
		CheckIn:          reservation.CheckIn.Format(time.DateOnly),
		CheckOut:         reservation.CheckOut.Format(time.DateOnly),
		Status:           reservation.Status,
		TotalAmountMinor: reservation.TotalAmountMinor,
		Currency:         reservation.Currency,
	}
}

type ReservationPullPayload struct {
	PropertyID   string     `json:"property_id"`
	UpdatedSince *time.Time `json:"updated_since,omitempty"`
}

type RequestReservationPullCommand struct {
	ConfigID     string
	PropertyID   string
	UpdatedSince *time.Time
	Now          time.Time
}

type RequestReservationPullOutput struct {
	QueueItemID string    `json:"queue_item_id"`
	RunAt       time.Time `json:"run_at"`
}
