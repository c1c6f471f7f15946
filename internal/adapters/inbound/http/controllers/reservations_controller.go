package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"exchangeengine/internal/application/dto"
	portsin "exchangeengine/internal/application/ports/in"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type ReservationsController struct {
	saveUseCase portsin.SaveReservationUseCase
	pullUseCase portsin.RequestReservationPullUseCase
	logger      *slog.Logger
}

type saveReservationPayload struct {
	ConfigID         string `json:"config_id"`
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

type requestPullPayload struct {
	ConfigID     string `json:"config_id"`
	PropertyID   string `json:"property_id"`
	UpdatedSince string `json:"updated_since,omitempty"`
}

func NewReservationsController(
	saveUseCase portsin.SaveReservationUseCase,
	pullUseCase portsin.RequestReservationPullUseCase,
	logger *slog.Logger,
) *ReservationsController {
	return &ReservationsController{
		saveUseCase: saveUseCase,
		pullUseCase: pullUseCase,
		logger:      orDiscard(logger),
	}
}

func (c *ReservationsController) CreateReservation(w http.ResponseWriter, r *http.Request) {
	c.save(w, r, "", "/v1/reservations", http.StatusCreated)
}

func (c *ReservationsController) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	c.save(w, r, pathParam(r, "id"), "/v1/reservations/{id}", http.StatusOK)
}

func (c *ReservationsController) save(w http.ResponseWriter, r *http.Request, id string, route string, status int) {
	var payload saveReservationPayload
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.saveUseCase.Execute(r.Context(), dto.SaveReservationCommand{
		ReservationID:    id,
		ConfigID:         payload.ConfigID,
		PropertyID:       payload.PropertyID,
		GuestName:        payload.GuestName,
		GuestPhone:       payload.GuestPhone,
		RoomCode:         payload.RoomCode,
		CheckIn:          payload.CheckIn,
		CheckOut:         payload.CheckOut,
		Status:           payload.Status,
		TotalAmountMinor: payload.TotalAmountMinor,
		Currency:         payload.Currency,
		Now:              time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r, route, appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, status, output)
}

func (c *ReservationsController) RequestPull(w http.ResponseWriter, r *http.Request) {
	var payload requestPullPayload
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	var updatedSince *time.Time
	if raw := strings.TrimSpace(payload.UpdatedSince); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeAppError(w, apperrors.NewValidation(
				"invalid_request",
				"updated_since must be an RFC3339 timestamp",
				map[string]any{"field": "updated_since"},
			))
			return
		}
		updatedSince = &parsed
	}

	output, appErr := c.pullUseCase.Execute(r.Context(), dto.RequestReservationPullCommand{
		ConfigID:     payload.ConfigID,
		PropertyID:   payload.PropertyID,
		UpdatedSince: updatedSince,
		Now:          time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r, "/v1/reservations/pulls", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusAccepted, output)
}
