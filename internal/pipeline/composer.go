package pipeline

import (
	"strings"

	"github.com/example/whatsapp-ai-responder/internal/models"
)

// UserInput is everything the pipeline derived for the user entry.
type UserInput struct {
	Body             string
	Transcript       string
	AudioFailed      bool
	ImageDescription string
}

// Composer builds completion requests around a fixed persona.
type Composer struct {
	persona string
}

// NewComposer returns a composer for persona, or for Persona when empty.
func NewComposer(persona string) Composer {
	if strings.TrimSpace(persona) == "" {
		persona = Persona
	}
	return Composer{persona: persona}
}

// UserContent derives the user entry text. Media context comes first with
// any typed text on the next line; plain text passes through verbatim and
// no content at all yields GreetingToken.
func (c Composer) UserContent(in UserInput) string {
	var lead string
	switch {
	case in.Transcript != "":
		lead = AudioContextPrefix + in.Transcript
	case in.AudioFailed:
		lead = AudioFailureContent
	case in.ImageDescription != "":
		lead = ImageContextPrefix + in.ImageDescription
	}

	hasBody := strings.TrimSpace(in.Body) != ""
	switch {
	case lead != "" && hasBody:
		return lead + "\n" + in.Body
	case lead != "":
		return lead
	case hasBody:
		return in.Body
	default:
		return GreetingToken
	}
}

// Compose returns the persona followed by one user entry, optionally
// carrying an inline image.
func (c Composer) Compose(content string, image *models.InlineImage) models.CompletionRequest {
	user := models.ChatMessage{Role: models.RoleUser, Content: content}
	if image != nil && image.URL != "" {
		img := *image
		user.Image = &img
	}
	return models.CompletionRequest{Messages: []models.ChatMessage{
		{Role: models.RoleSystem, Content: c.persona},
		user,
	}}
}
