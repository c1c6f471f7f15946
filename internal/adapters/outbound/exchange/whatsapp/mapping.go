package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

var acceptedStatuses = map[string]struct{}{
	"submitted": {},
	"queued":    {},
	"sent":      {},
	"accepted":  {},
}

type sendRequest struct {
	Messages []outboundMessage `json:"messages"`
}

type outboundMessage struct {
	To   string   `json:"to"`
	Type string   `json:"type"`
	Text textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResult struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}

// SendMessagesMapping turns queued messages into one batch send. The
// gateway answers positionally: entry i belongs to message i.
type SendMessagesMapping struct {
	logger *slog.Logger
}

var _ portsout.MappingStrategy = (*SendMessagesMapping)(nil)

func NewSendMessagesMapping(logger *slog.Logger) *SendMessagesMapping {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SendMessagesMapping{logger: logger}
}

func (m *SendMessagesMapping) Map(ctx context.Context, batch entities.HomogeneousBatch) (dto.MappingResult, *apperrors.AppError) {
	request := sendRequest{Messages: make([]outboundMessage, 0, batch.Len())}
	correlation := make(map[string]string, batch.Len())

	for _, item := range batch.Items() {
		var payload dto.MessagePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			// Left out of the request; the item fails with a missing result.
			m.logger.WarnContext(ctx, "message payload skipped",
				"queue_item_id", item.ID,
				"error", err.Error(),
			)
			continue
		}
		correlation[strconv.Itoa(len(request.Messages))] = item.ID
		request.Messages = append(request.Messages, outboundMessage{
			To:   strings.TrimSpace(payload.Recipient),
			Type: "text",
			Text: textBody{Body: norm.NFC.String(strings.TrimSpace(payload.Body))},
		})
	}
	if len(request.Messages) == 0 {
		return dto.MappingResult{}, apperrors.NewValidation(
			"whatsapp_batch_empty",
			"no message in the batch could be mapped",
			map[string]any{"queue_item_ids": batch.ItemIDs()},
		)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return dto.MappingResult{}, apperrors.NewInternal(
			"whatsapp_request_encode_failed",
			"failed to encode whatsapp request",
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

func (m *SendMessagesMapping) ParseResponse(
	ctx context.Context,
	decoded json.RawMessage,
	mapping dto.MappingResult,
) map[string]dto.ItemResult {
	entries, single, err := decodeResults(decoded)
	if err != nil {
		m.logger.WarnContext(ctx, "whatsapp response not understood", "error", err.Error())
		return map[string]dto.ItemResult{}
	}

	// A lone object answering a larger batch is a batch-wide verdict, usually
	// an error body, and applies to every item.
	if single && len(mapping.Correlation) > 1 {
		results := make(map[string]dto.ItemResult, len(mapping.Correlation))
		for _, itemID := range mapping.Correlation {
			result := itemResult(itemID, entries[0])
			result.RemoteID = ""
			results[itemID] = result
		}
		return results
	}

	results := make(map[string]dto.ItemResult, len(entries))
	for index, entry := range entries {
		itemID, ok := mapping.ItemIDFor(strconv.Itoa(index))
		if !ok {
			m.logger.WarnContext(ctx, "whatsapp result uncorrelated", "index", index)
			continue
		}
		results[itemID] = itemResult(itemID, entry)
	}
	return results
}

func itemResult(itemID string, entry sendResult) dto.ItemResult {
	status := strings.ToLower(strings.TrimSpace(entry.Status))
	_, success := acceptedStatuses[status]
	message := strings.TrimSpace(entry.Message)
	if message == "" {
		message = status
	}
	if message == "" {
		message = "provider status missing"
	}
	return dto.ItemResult{
		ItemID:   itemID,
		Success:  success,
		Message:  message,
		RemoteID: strings.TrimSpace(entry.MessageID),
		Extra:    map[string]any{"provider_status": status},
	}
}

// decodeResults accepts a bare array of results or a single result object;
// single reports the latter.
func decodeResults(decoded json.RawMessage) (entries []sendResult, single bool, err error) {
	trimmed := bytes.TrimSpace(decoded)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, false, err
		}
		return entries, false, nil
	}

	var result sendResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, false, err
	}
	return []sendResult{result}, true, nil
}
