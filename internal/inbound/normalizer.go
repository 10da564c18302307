// Package inbound turns Twilio WhatsApp webhook payloads into canonical
// messages.
package inbound

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/whatsapp-ai-responder/internal/models"
)

// MaxMedia bounds the indexed media loop. Twilio never sends more than ten
// attachments per message.
const MaxMedia = 10

// Webhook form field names.
const (
	FieldMessageSID    = "MessageSid"
	FieldSMSMessageSID = "SmsMessageSid"
	FieldFrom          = "From"
	FieldTo            = "To"
	FieldBody          = "Body"
	FieldProfileName   = "ProfileName"
	FieldWaID          = "WaId"
	FieldNumMedia      = "NumMedia"
	FieldMediaURL      = "MediaUrl"
	FieldMediaType     = "MediaContentType"
)

// ErrMissingSender is returned when the payload carries no sender identifier.
var ErrMissingSender = errors.New("inbound: sender (From) is required")

// Normalize converts a flat webhook payload into an InboundMessage. The only
// validation gate is the sender: body text and media are optional, and a
// missing or malformed NumMedia counts as zero.
func Normalize(payload map[string]string) (*models.InboundMessage, error) {
	from := strings.TrimSpace(payload[FieldFrom])
	if from == "" {
		return nil, ErrMissingSender
	}

	id := strings.TrimSpace(payload[FieldMessageSID])
	if id == "" {
		id = strings.TrimSpace(payload[FieldSMSMessageSID])
	}

	msg := &models.InboundMessage{
		ID:          id,
		From:        from,
		To:          strings.TrimSpace(payload[FieldTo]),
		Body:        payload[FieldBody],
		ProfileName: strings.TrimSpace(payload[FieldProfileName]),
		WaID:        strings.TrimSpace(payload[FieldWaID]),
	}

	count := ParseMediaCount(payload[FieldNumMedia])
	if count > 0 {
		msg.Attachments = make([]models.Attachment, 0, count)
		for i := 0; i < count; i++ {
			msg.Attachments = append(msg.Attachments, models.Attachment{
				URL:      strings.TrimSpace(payload[fmt.Sprintf("%s%d", FieldMediaURL, i)]),
				MIMEType: strings.TrimSpace(payload[fmt.Sprintf("%s%d", FieldMediaType, i)]),
			})
		}
	}

	return msg, nil
}

// ParseMediaCount reads the declared media count, returning 0 for missing,
// non-numeric or negative values and capping at MaxMedia.
func ParseMediaCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	if n > MaxMedia {
		return MaxMedia
	}
	return n
}

// FlattenForm keeps the first value of every form field.
func FlattenForm(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			out[key] = vals[0]
		}
	}
	return out
}
