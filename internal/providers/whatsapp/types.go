package whatsapp

import (
	"context"
	"time"
)

// Payload is one outbound WhatsApp message.
type Payload struct {
	// MessageID is the inbound message sid the reply answers; used for
	// correlation only.
	MessageID      string
	From           string
	To             string
	Body           string
	StatusCallback string
	Meta           map[string]string
}

// RawResponse captures the low-level provider response for a WhatsApp send.
type RawResponse struct {
	ID     string
	Code   int
	Status string
	// ErrorCode is the provider error code parsed from a failed response.
	ErrorCode int
	Body      string
	Timestamp time.Time
}

// Provider represents an outbound WhatsApp provider.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
