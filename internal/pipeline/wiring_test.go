package pipeline_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/whatsapp-ai-responder/internal/adapters/completion"
	"github.com/example/whatsapp-ai-responder/internal/adapters/transcription"
	"github.com/example/whatsapp-ai-responder/internal/pipeline"
	"github.com/example/whatsapp-ai-responder/internal/providers/media"
	aiprovider "github.com/example/whatsapp-ai-responder/internal/providers/openai"
)

func newWiredResponder(t *testing.T, fetcher media.Fetcher, provider *aiprovider.MockProvider) *pipeline.Responder {
	t.Helper()
	tr, err := transcription.NewAdapter(fetcher, provider, zerolog.Nop())
	require.NoError(t, err)
	comp, err := completion.NewAdapter(provider, zerolog.Nop())
	require.NoError(t, err)
	r, err := pipeline.NewResponder(tr, comp, zerolog.Nop())
	require.NoError(t, err)
	return r
}

func TestWiredVoiceNote(t *testing.T) {
	fetcher := media.NewMockFetcher()
	fetcher.Add("https://api.twilio.com/media/ME1", []byte("OggS"), "audio/ogg")
	provider := aiprovider.NewMockProvider(zerolog.Nop(), aiprovider.WithTranscript("quiero unirme"))
	r := newWiredResponder(t, fetcher, provider)

	reply := r.Respond(context.Background(), map[string]string{
		"From": sender, "NumMedia": "1",
		"MediaUrl0": "https://api.twilio.com/media/ME1", "MediaContentType0": "audio/ogg",
	})
	assert.Equal(t, "mock: "+pipeline.AudioContextPrefix+"quiero unirme", reply.Body)
	assert.Len(t, provider.TranscriptionCalls(), 1)
}

func TestWiredMissingMediaCredentials(t *testing.T) {
	fetcher := media.NewMockFetcher()
	fetcher.FailWith(media.ErrMissingCredentials)
	provider := aiprovider.NewMockProvider(zerolog.Nop())
	r := newWiredResponder(t, fetcher, provider)

	reply := r.Respond(context.Background(), map[string]string{
		"From": sender, "NumMedia": "1",
		"MediaUrl0": "https://api.twilio.com/media/ME1", "MediaContentType0": "audio/ogg",
	})
	assert.Equal(t, "mock: "+pipeline.AudioFailureContent, reply.Body)
	assert.Empty(t, provider.TranscriptionCalls())
}

func TestWiredCompletionFailure(t *testing.T) {
	provider := aiprovider.NewMockProvider(zerolog.Nop(), aiprovider.WithChatScenario(aiprovider.ScenarioTransient))
	r := newWiredResponder(t, media.NewMockFetcher(), provider)

	reply := r.Respond(context.Background(), map[string]string{"From": sender, "Body": "Hola"})
	assert.Equal(t, pipeline.FallbackReply, reply.Body)
}
