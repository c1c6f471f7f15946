package dto

const (
	ProviderWhatsApp       = "whatsapp"
	ProviderChannelManager = "channelmanager"

	TaskSendMessages     = "whatsapp.send_messages"
	TaskPushReservations = "channelmanager.push_reservations"
	TaskPullReservations = "channelmanager.pull_reservations"

	OperationSendMessages     = "send_messages"
	OperationPushReservations = "push_reservations"
	OperationPullReservations = "pull_reservations"
)
