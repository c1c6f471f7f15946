package channelmanager

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

var pushSuccessStatuses = map[string]struct{}{
	"ok":      {},
	"created": {},
	"updated": {},
}

type pushRequest struct {
	Reservations []pushRecord `json:"reservations"`
}

type pushRecord struct {
	Ref              string  `json:"ref"`
	ExternalID       string  `json:"external_id"`
	ReservationID    *string `json:"reservation_id,omitempty"`
	PropertyID       string  `json:"property_id,omitempty"`
	GuestName        string  `json:"guest_name"`
	GuestPhone       string  `json:"guest_phone,omitempty"`
	RoomCode         string  `json:"room_code,omitempty"`
	CheckIn          string  `json:"check_in"`
	CheckOut         string  `json:"check_out"`
	Status           string  `json:"status"`
	TotalAmountMinor int64   `json:"total_amount_minor"`
	Currency         string  `json:"currency,omitempty"`
}

type pushResponse struct {
	Results []pushResult `json:"results"`
	Result  *pushResult  `json:"result"`
}

type pushResult struct {
	Ref           string `json:"ref"`
	Status        string `json:"status"`
	ReservationID string `json:"reservation_id"`
	Error         string `json:"error"`
}

// PushReservationsMapping sends local reservation changes in bulk. Each
// record carries a ref that the channel manager echoes back.
type PushReservationsMapping struct {
	logger *slog.Logger
}

var _ portsout.MappingStrategy = (*PushReservationsMapping)(nil)

func NewPushReservationsMapping(logger *slog.Logger) *PushReservationsMapping {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PushReservationsMapping{logger: logger}
}

func (m *PushReservationsMapping) Map(
	ctx context.Context,
	batch entities.HomogeneousBatch,
) (dto.MappingResult, *apperrors.AppError) {
	request := pushRequest{Reservations: make([]pushRecord, 0, batch.Len())}
	correlation := make(map[string]string, batch.Len())

	for _, item := range batch.Items() {
		var payload dto.ReservationPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			m.logger.WarnContext(ctx, "reservation payload skipped",
				"queue_item_id", item.ID,
				"error", err.Error(),
			)
			continue
		}
		ref := strconv.Itoa(len(request.Reservations))
		correlation[ref] = item.ID
		request.Reservations = append(request.Reservations, pushRecord{
			Ref:              ref,
			ExternalID:       payload.ReservationID,
			ReservationID:    payload.RemoteID,
			PropertyID:       payload.PropertyID,
			GuestName:        payload.GuestName,
			GuestPhone:       payload.GuestPhone,
			RoomCode:         payload.RoomCode,
			CheckIn:          payload.CheckIn,
			CheckOut:         payload.CheckOut,
			Status:           payload.Status,
			TotalAmountMinor: payload.TotalAmountMinor,
			Currency:         payload.Currency,
		})
	}
	if len(request.Reservations) == 0 {
		return dto.MappingResult{}, apperrors.NewValidation(
			"channelmanager_batch_empty",
			"no reservation in the batch could be mapped",
			map[string]any{"queue_item_ids": batch.ItemIDs()},
		)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return dto.MappingResult{}, apperrors.NewInternal(
			"channelmanager_request_encode_failed",
			"failed to encode channel manager request",
			map[string]any{"error": err.Error()},
		)
	}

	endpoint := batch.Endpoint()
	return dto.MappingResult{
		Method:      endpoint.Method,
		URL:         valueobjects.JoinEndpointURL(batch.Config().BaseURL, endpoint.Path),
		Payload:     body,
		Config:      batch.Config(),
		Correlation: correlation,
	}, nil
}

func (m *PushReservationsMapping) ParseResponse(
	ctx context.Context,
	decoded json.RawMessage,
	mapping dto.MappingResult,
) map[string]dto.ItemResult {
	var response pushResponse
	if err := json.Unmarshal(decoded, &response); err != nil {
		m.logger.WarnContext(ctx, "channel manager response not understood", "error", err.Error())
		return map[string]dto.ItemResult{}
	}
	entries := response.Results
	if len(entries) == 0 && response.Result != nil {
		entries = []pushResult{*response.Result}
	}

	results := make(map[string]dto.ItemResult, len(entries))
	for _, entry := range entries {
		itemID, ok := mapping.ItemIDFor(entry.Ref)
		if !ok {
			m.logger.WarnContext(ctx, "channel manager result uncorrelated", "ref", entry.Ref)
			continue
		}

		status := strings.ToLower(strings.TrimSpace(entry.Status))
		_, success := pushSuccessStatuses[status]
		message := strings.TrimSpace(entry.Error)
		if message == "" {
			message = status
		}
		if message == "" {
			message = "provider status missing"
		}
		results[itemID] = dto.ItemResult{
			ItemID:   itemID,
			Success:  success,
			Message:  message,
			RemoteID: strings.TrimSpace(entry.ReservationID),
			Extra:    map[string]any{"provider_status": status},
		}
	}
	return results
}
