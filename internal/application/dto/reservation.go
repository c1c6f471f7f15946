package dto

import (
	"encoding/json"
	"time"
)

// InboundReservation is a reservation as the channel manager describes it,
// both in pull responses and in webhook bodies.
type InboundReservation struct {
	RemoteID         string `json:"id"`
	PropertyID       string `json:"property_id"`
	GuestName        string `json:"guest_name"`
	GuestPhone       string `json:"guest_phone"`
	RoomCode         string `json:"room_code"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	Status           string `json:"status"`
	TotalAmountMinor int64  `json:"total_amount_minor"`
	Currency         string `json:"currency"`
}

type UpsertReservationOutput struct {
	ReservationID string
	Created       bool
	Changed       bool
}

// InboundReservationEnvelope accepts either {"reservation":{...}},
// {"reservations":[...]} or a bare reservation object.
type InboundReservationEnvelope struct {
	Reservation  *InboundReservation  `json:"reservation"`
	Reservations []InboundReservation `json:"reservations"`
}

func DecodeInboundReservations(body []byte) ([]InboundReservation, error) {
	var envelope InboundReservationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Reservations) > 0 {
		return envelope.Reservations, nil
	}
	if envelope.Reservation != nil {
		return []InboundReservation{*envelope.Reservation}, nil
	}

	var single InboundReservation
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	if single.RemoteID == "" {
		return nil, nil
	}
	return []InboundReservation{single}, nil
}

// SaveReservationCommand is a local edit. An empty ReservationID creates a
// new reservation.
type SaveReservationCommand struct {
	ReservationID    string
	ConfigID         string
	PropertyID       string
	GuestName        string
	GuestPhone       string
	RoomCode         string
	CheckIn          string
	CheckOut         string
	Status           string
	TotalAmountMinor int64
	Currency         string
	Now              time.Time
}

type SaveReservationOutput struct {
	ReservationID string    `json:"reservation_id"`
	RemoteID      *string   `json:"remote_id,omitempty"`
	Status        string    `json:"status"`
	QueueItemID   *string   `json:"queue_item_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}
