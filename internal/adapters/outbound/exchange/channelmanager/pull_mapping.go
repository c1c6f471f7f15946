package channelmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type pullResponse struct {
	Reservations []json.RawMessage `json:"reservations"`
	Error        string            `json:"error"`
}

// PullReservationsMapping fetches reservations changed on the channel
// manager. A pull batch holds one item; every returned record belongs to it.
type PullReservationsMapping struct {
	logger *slog.Logger
}

var _ portsout.MappingStrategy = (*PullReservationsMapping)(nil)

func NewPullReservationsMapping(logger *slog.Logger) *PullReservationsMapping {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PullReservationsMapping{logger: logger}
}

func (m *PullReservationsMapping) Map(
	ctx context.Context,
	batch entities.HomogeneousBatch,
) (dto.MappingResult, *apperrors.AppError) {
	items := batch.Items()
	item := items[0]
	if len(items) > 1 {
		m.logger.WarnContext(ctx, "pull batch holds more than one item",
			"queue_item_ids", batch.ItemIDs(),
		)
	}

	var payload dto.ReservationPullPayload
	if len(bytes.TrimSpace(item.Payload)) > 0 {
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return dto.MappingResult{}, apperrors.NewValidation(
				"queue_item_payload_invalid",
				"reservation pull payload is invalid",
				map[string]any{"queue_item_id": item.ID, "error": err.Error()},
			)
		}
	}

	query := url.Values{}
	if propertyID := strings.TrimSpace(payload.PropertyID); propertyID != "" {
		query.Set("property_id", propertyID)
	}
	if payload.UpdatedSince != nil {
		query.Set("updated_since", payload.UpdatedSince.UTC().Format(time.RFC3339))
	}

	endpoint := batch.Endpoint()
	return dto.MappingResult{
		Method:      endpoint.Method,
		URL:         valueobjects.JoinEndpointURL(batch.Config().BaseURL, endpoint.Path),
		Query:       query,
		Config:      batch.Config(),
		Correlation: map[string]string{"0": item.ID},
	}, nil
}

func (m *PullReservationsMapping) ParseResponse(
	ctx context.Context,
	decoded json.RawMessage,
	mapping dto.MappingResult,
) map[string]dto.ItemResult {
	itemID, ok := mapping.ItemIDFor("0")
	if !ok {
		return map[string]dto.ItemResult{}
	}

	var records []json.RawMessage
	trimmed := bytes.TrimSpace(decoded)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			m.logger.WarnContext(ctx, "pull response not understood", "error", err.Error())
			return map[string]dto.ItemResult{}
		}
	} else {
		var response pullResponse
		if err := json.Unmarshal(trimmed, &response); err != nil {
			m.logger.WarnContext(ctx, "pull response not understood", "error", err.Error())
			return map[string]dto.ItemResult{}
		}
		if response.Reservations == nil {
			message := strings.TrimSpace(response.Error)
			if message == "" {
				message = "pull response has no reservations"
			}
			return map[string]dto.ItemResult{
				itemID: {ItemID: itemID, Success: false, Message: message},
			}
		}
		records = response.Reservations
	}

	return map[string]dto.ItemResult{
		itemID: {
			ItemID:  itemID,
			Success: true,
			Message: "pulled " + strconv.Itoa(len(records)) + " reservations",
			Inbound: records,
		},
	}
}
