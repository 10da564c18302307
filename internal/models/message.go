package models

import "strings"

// Modality is the closed set of content kinds an attachment can carry.
type Modality int

const (
	ModalityUnknown Modality = iota
	ModalityAudio
	ModalityImage
	ModalityVideo
)

func (m Modality) String() string {
	switch m {
	case ModalityAudio:
		return "audio"
	case ModalityImage:
		return "image"
	case ModalityVideo:
		return "video"
	default:
		return "unknown"
	}
}

// ClassifyMIME derives the modality from a declared MIME type. Missing or
// unrecognised types classify as ModalityUnknown.
func ClassifyMIME(mimeType string) Modality {
	lower := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(lower, "audio/"):
		return ModalityAudio
	case strings.HasPrefix(lower, "image/"):
		return ModalityImage
	case strings.HasPrefix(lower, "video/"):
		return ModalityVideo
	default:
		return ModalityUnknown
	}
}

// Attachment is a single media reference extracted from an inbound payload.
type Attachment struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
}

// Modality classifies the attachment by its declared MIME type.
func (a Attachment) Modality() Modality {
	return ClassifyMIME(a.MIMEType)
}

// InboundMessage is the canonical representation of one inbound webhook
// event, independent of the provider's payload shape.
type InboundMessage struct {
	ID          string       `json:"id,omitempty"`
	From        string       `json:"from"`
	To          string       `json:"to,omitempty"`
	Body        string       `json:"body,omitempty"`
	ProfileName string       `json:"profile_name,omitempty"`
	WaID        string       `json:"wa_id,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// HasAudio reports whether any attachment is audio.
func (m *InboundMessage) HasAudio() bool { return m.has(ModalityAudio) }

// HasImage reports whether any attachment is an image.
func (m *InboundMessage) HasImage() bool { return m.has(ModalityImage) }

// HasVideo reports whether any attachment is a video.
func (m *InboundMessage) HasVideo() bool { return m.has(ModalityVideo) }

// FirstOf returns the first attachment of the given modality.
func (m *InboundMessage) FirstOf(modality Modality) (Attachment, bool) {
	if m == nil {
		return Attachment{}, false
	}
	for _, att := range m.Attachments {
		if att.Modality() == modality {
			return att, true
		}
	}
	return Attachment{}, false
}

func (m *InboundMessage) has(modality Modality) bool {
	_, ok := m.FirstOf(modality)
	return ok
}

// FetchedMedia holds attachment bytes for the duration of one invocation.
type FetchedMedia struct {
	Data     []byte
	MIMEType string
}
