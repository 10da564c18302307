package models

import "time"

// Delivery statuses reported by Twilio status callbacks.
const (
	StatusQueued      = "queued"
	StatusSent        = "sent"
	StatusDelivered   = "delivered"
	StatusRead        = "read"
	StatusFailed      = "failed"
	StatusUndelivered = "undelivered"
)

// IsKnownStatus reports whether status is one of the delivery lifecycle values.
func IsKnownStatus(status string) bool {
	switch status {
	case StatusQueued, StatusSent, StatusDelivered, StatusRead, StatusFailed, StatusUndelivered:
		return true
	default:
		return false
	}
}

// StatusEvent represents one delivery lifecycle callback for an outbound
// message.
type StatusEvent struct {
	MessageID    string    `json:"message_id"`
	Status       string    `json:"status"`
	To           string    `json:"to,omitempty"`
	From         string    `json:"from,omitempty"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
