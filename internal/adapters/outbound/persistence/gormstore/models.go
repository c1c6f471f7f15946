package gormstore

import (
	"encoding/json"
	"time"

	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
)

type channelConfigModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	Provider           string     `gorm:"column:provider;not null;index"`
	Name               string     `gorm:"column:name;not null"`
	BaseURL            string     `gorm:"column:base_url;not null"`
	APIKey             string     `gorm:"column:api_key"`
	ClientID           string     `gorm:"column:client_id"`
	ClientSecret       string     `gorm:"column:client_secret"`
	WebhookSecret      string     `gorm:"column:webhook_secret"`
	Active             bool       `gorm:"column:active;not null"`
	AuthToken          string     `gorm:"column:auth_token"`
	AuthTokenExpiresAt *time.Time `gorm:"column:auth_token_expires_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;not null"`
}

func (channelConfigModel) TableName() string {
	return "channel_configs"
}

func channelConfigModelFromEntity(config entities.ChannelConfig) channelConfigModel {
	return channelConfigModel{
		ID:                 config.ID,
		Provider:           config.Provider,
		Name:               config.Name,
		BaseURL:            config.BaseURL,
		APIKey:             config.Credentials.APIKey,
		ClientID:           config.Credentials.ClientID,
		ClientSecret:       config.Credentials.ClientSecret,
		WebhookSecret:      config.WebhookSecret,
		Active:             config.Active,
		AuthToken:          config.AuthToken,
		AuthTokenExpiresAt: utcPtr(config.AuthTokenExpiresAt),
		CreatedAt:          config.CreatedAt.UTC(),
		UpdatedAt:          config.UpdatedAt.UTC(),
	}
}

func (m channelConfigModel) toEntity() entities.ChannelConfig {
	return entities.ChannelConfig{
		ID:       m.ID,
		Provider: m.Provider,
		Name:     m.Name,
		BaseURL:  m.BaseURL,
		Credentials: entities.ChannelCredentials{
			APIKey:       m.APIKey,
			ClientID:     m.ClientID,
			ClientSecret: m.ClientSecret,
		},
		WebhookSecret:      m.WebhookSecret,
		Active:             m.Active,
		AuthToken:          m.AuthToken,
		AuthTokenExpiresAt: utcPtr(m.AuthTokenExpiresAt),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type endpointModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Provider  string    `gorm:"column:provider;not null;uniqueIndex:endpoints_provider_operation_key"`
	Operation string    `gorm:"column:operation;not null;uniqueIndex:endpoints_provider_operation_key"`
	Path      string    `gorm:"column:path;not null"`
	Method    string    `gorm:"column:method;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (endpointModel) TableName() string {
	return "endpoints"
}

func (m endpointModel) toEntity() entities.Endpoint {
	return entities.Endpoint{
		ID:        m.ID,
		Provider:  m.Provider,
		Operation: m.Operation,
		Path:      m.Path,
		Method:    valueobjects.HTTPMethod(m.Method),
	}
}

type queueItemModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	TaskName        string     `gorm:"column:task_name;not null;index:exchange_queue_items_claim_idx,priority:1"`
	ConfigID        string     `gorm:"column:config_id;not null"`
	EndpointID      string     `gorm:"column:endpoint_id;not null"`
	Payload         string     `gorm:"column:payload;not null"`
	SourceType      string     `gorm:"column:source_type"`
	SourceID        string     `gorm:"column:source_id"`
	Status          string     `gorm:"column:status;not null;index:exchange_queue_items_claim_idx,priority:2"`
	RunAt           time.Time  `gorm:"column:run_at;not null;index:exchange_queue_items_claim_idx,priority:3"`
	LockedBy        *string    `gorm:"column:locked_by"`
	LockedAt        *time.Time `gorm:"column:locked_at"`
	RetryCount      int        `gorm:"column:retry_count;not null"`
	MaxAttempts     int        `gorm:"column:max_attempts;not null"`
	LastRequestRaw  *string    `gorm:"column:last_request_raw"`
	LastResponseRaw *string    `gorm:"column:last_response_raw"`
	LastHTTPCode    *int       `gorm:"column:last_http_code"`
	ExecutionResult string     `gorm:"column:execution_result;not null"`
	FailedReason    *string    `gorm:"column:failed_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;not null"`
}

func (queueItemModel) TableName() string {
	return "exchange_queue_items"
}

func queueItemModelFromEntity(item entities.QueueItem) (queueItemModel, error) {
	result := item.ExecutionResult
	if result == nil {
		result = map[string]any{}
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return queueItemModel{}, err
	}
	payload := string(item.Payload)
	if payload == "" {
		payload = "{}"
	}

	return queueItemModel{
		ID:              item.ID,
		TaskName:        item.TaskName,
		ConfigID:        item.ConfigID,
		EndpointID:      item.EndpointID,
		Payload:         payload,
		SourceType:      item.SourceType,
		SourceID:        item.SourceID,
		Status:          item.Status.String(),
		RunAt:           item.RunAt.UTC(),
		LockedBy:        item.LockedBy,
		LockedAt:        utcPtr(item.LockedAt),
		RetryCount:      item.RetryCount,
		MaxAttempts:     item.MaxAttempts,
		LastRequestRaw:  item.LastRequestRaw,
		LastResponseRaw: item.LastResponseRaw,
		LastHTTPCode:    item.LastHTTPCode,
		ExecutionResult: string(encoded),
		FailedReason:    item.FailedReason,
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}, nil
}

func (m queueItemModel) toEntity() (entities.QueueItem, error) {
	status, appErr := valueobjects.ParseQueueItemStatus(m.Status)
	if appErr != nil {
		return entities.QueueItem{}, appErr
	}
	result := map[string]any{}
	if m.ExecutionResult != "" {
		if err := json.Unmarshal([]byte(m.ExecutionResult), &result); err != nil {
			return entities.QueueItem{}, err
		}
	}

	return entities.QueueItem{
		ID:              m.ID,
		TaskName:        m.TaskName,
		ConfigID:        m.ConfigID,
		EndpointID:      m.EndpointID,
		Payload:         []byte(m.Payload),
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
		Status:          status,
		RunAt:           m.RunAt.UTC(),
		LockedBy:        m.LockedBy,
		LockedAt:        utcPtr(m.LockedAt),
		RetryCount:      m.RetryCount,
		MaxAttempts:     m.MaxAttempts,
		LastRequestRaw:  m.LastRequestRaw,
		LastResponseRaw: m.LastResponseRaw,
		LastHTTPCode:    m.LastHTTPCode,
		ExecutionResult: result,
		FailedReason:    m.FailedReason,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}, nil
}

type reservationModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	ConfigID         string    `gorm:"column:config_id;not null;uniqueIndex:reservations_config_remote_key"`
	RemoteID         *string   `gorm:"column:remote_id;uniqueIndex:reservations_config_remote_key"`
	PropertyID       string    `gorm:"column:property_id"`
	GuestName        string    `gorm:"column:guest_name;not null"`
	GuestPhone       string    `gorm:"column:guest_phone"`
	RoomCode         string    `gorm:"column:room_code"`
	CheckIn          time.Time `gorm:"column:check_in;not null"`
	CheckOut         time.Time `gorm:"column:check_out;not null"`
	Status           string    `gorm:"column:status;not null"`
	TotalAmountMinor int64     `gorm:"column:total_amount_minor;not null"`
	Currency         string    `gorm:"column:currency"`
	CreatedAt        time.Time `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null"`
}

func (reservationModel) TableName() string {
	return "reservations"
}

func reservationModelFromEntity(reservation entities.Reservation) reservationModel {
	return reservationModel{
		ID:               reservation.ID,
		ConfigID:         reservation.ConfigID,
		RemoteID:         reservation.RemoteID,
		PropertyID:       reservation.PropertyID,
		GuestName:        reservation.GuestName,
		GuestPhone:       reservation.GuestPhone,
		RoomCode:         reservation.RoomCode,
		CheckIn:          reservation.CheckIn.UTC(),
		CheckOut:         reservation.CheckOut.UTC(),
		Status:           reservation.Status,
		TotalAmountMinor: reservation.TotalAmountMinor,
		Currency:         reservation.Currency,
		CreatedAt:        reservation.CreatedAt.UTC(),
		UpdatedAt:        reservation.UpdatedAt.UTC(),
	}
}

func (m reservationModel) toEntity() entities.Reservation {
	return entities.Reservation{
		ID:               m.ID,
		ConfigID:         m.ConfigID,
		RemoteID:         m.RemoteID,
		PropertyID:       m.PropertyID,
		GuestName:        m.GuestName,
		GuestPhone:       m.GuestPhone,
		RoomCode:         m.RoomCode,
		CheckIn:          m.CheckIn.UTC(),
		CheckOut:         m.CheckOut.UTC(),
		Status:           m.Status,
		TotalAmountMinor: m.TotalAmountMinor,
		Currency:         m.Currency,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type outboundMessageModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	ConfigID        string    `gorm:"column:config_id;not null"`
	Recipient       string    `gorm:"column:recipient;not null"`
	Body            string    `gorm:"column:body;not null"`
	Status          string    `gorm:"column:status;not null"`
	RemoteMessageID *string   `gorm:"column:remote_message_id"`
	LastError       *string   `gorm:"column:last_error"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
}

func (outboundMessageModel) TableName() string {
	return "outbound_messages"
}

func outboundMessageModelFromEntity(message entities.OutboundMessage) outboundMessageModel {
	return outboundMessageModel{
		ID:              message.ID,
		ConfigID:        message.ConfigID,
		Recipient:       message.Recipient,
		Body:            message.Body,
		Status:          message.Status,
		RemoteMessageID: message.RemoteMessageID,
		LastError:       message.LastError,
		CreatedAt:       message.CreatedAt.UTC(),
		UpdatedAt:       message.UpdatedAt.UTC(),
	}
}

func (m outboundMessageModel) toEntity() entities.OutboundMessage {
	return entities.OutboundMessage{
		ID:              m.ID,
		ConfigID:        m.ConfigID,
		Recipient:       m.Recipient,
		Body:            m.Body,
		Status:          m.Status,
		RemoteMessageID: m.RemoteMessageID,
		LastError:       m.LastError,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type webhookAuditModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ConfigID      string    `gorm:"column:config_id;not null"`
	Provider      string    `gorm:"column:provider;not null"`
	EventID       string    `gorm:"column:event_id"`
	PayloadDigest string    `gorm:"column:payload_digest;not null"`
	PayloadRaw    string    `gorm:"column:payload_raw"`
	HTTPStatus    int       `gorm:"column:http_status;not null"`
	OK            bool      `gorm:"column:ok;not null"`
	Outcome       string    `gorm:"column:outcome;not null"`
	Error         *string   `gorm:"column:error"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (webhookAuditModel) TableName() string {
	return "webhook_audits"
}

func webhookAuditModelFromEntity(audit entities.WebhookAudit) webhookAuditModel {
	return webhookAuditModel{
		ID:            audit.ID,
		ConfigID:      audit.ConfigID,
		Provider:      audit.Provider,
		EventID:       audit.EventID,
		PayloadDigest: audit.PayloadDigest,
		PayloadRaw:    audit.PayloadRaw,
		HTTPStatus:    audit.HTTPStatus,
		OK:            audit.OK,
		Outcome:       audit.Outcome,
		Error:         audit.Error,
		CreatedAt:     audit.CreatedAt.UTC(),
	}
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	converted := value.UTC()
	return &converted
}
