package transcription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/example/whatsapp-ai-responder/internal/adapters/common"
	"github.com/example/whatsapp-ai-responder/internal/adapters/transcription"
	"github.com/example/whatsapp-ai-responder/internal/models"
	"github.com/example/whatsapp-ai-responder/internal/providers/media"
	aiprovider "github.com/example/whatsapp-ai-responder/internal/providers/openai"
)

var voiceNote = models.Attachment{URL: "https://api.twilio.com/media/ME1", MIMEType: "audio/ogg"}

func TestNewAdapterRequiresDependencies(t *testing.T) {
	_, err := transcription.NewAdapter(nil, aiprovider.NewMockProvider(zerolog.Nop()), zerolog.Nop())
	require.Error(t, err)
	_, err = transcription.NewAdapter(media.NewMockFetcher(), nil, zerolog.Nop())
	require.Error(t, err)
}

func TestTranscribeSuccess(t *testing.T) {
	fetcher := media.NewMockFetcher()
	fetcher.Add(voiceNote.URL, []byte("OggS"), "audio/ogg")
	provider := aiprovider.NewMockProvider(zerolog.Nop(), aiprovider.WithTranscript("  quiero unirme a la agencia  "))

	a, err := transcription.NewAdapter(fetcher, provider, zerolog.Nop())
	require.NoError(t, err)

	text, err := a.Transcribe(context.Background(), voiceNote)
	require.NoError(t, err)
	assert.Equal(t, "quiero unirme a la agencia", text)

	calls := provider.TranscriptionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "es", calls[0].Language)
	assert.Equal(t, "audio.ogg", calls[0].Filename)
	assert.Equal(t, "whisper-1", calls[0].Model)
	assert.Equal(t, []byte("OggS"), calls[0].Audio)
}

func TestTranscribeFetchFailureIsRecoverable(t *testing.T) {
	fetcher := media.NewMockFetcher()
	fetcher.FailWith(media.ErrMissingCredentials)
	provider := aiprovider.NewMockProvider(zerolog.Nop())

	a, err := transcription.NewAdapter(fetcher, provider, zerolog.Nop())
	require.NoError(t, err)

	_, err = a.Transcribe(context.Background(), voiceNote)
	assert.True(t, errors.Is(err, common.ErrRecoverable))
	assert.True(t, errors.Is(err, media.ErrMissingCredentials))
	assert.Empty(t, provider.TranscriptionCalls())
}

func TestTranscribeProviderFailureIsRecoverable(t *testing.T) {
	for _, scenario := range []aiprovider.Scenario{aiprovider.ScenarioTransient, aiprovider.ScenarioPermanent, aiprovider.ScenarioEmpty} {
		fetcher := media.NewMockFetcher()
		fetcher.Add(voiceNote.URL, []byte("OggS"), "audio/ogg")
		provider := aiprovider.NewMockProvider(zerolog.Nop(), aiprovider.WithTranscriptionScenario(scenario))

		a, err := transcription.NewAdapter(fetcher, provider, zerolog.Nop())
		require.NoError(t, err)

		_, err = a.Transcribe(context.Background(), voiceNote)
		assert.True(t, errors.Is(err, common.ErrRecoverable), "scenario %s: %v", scenario, err)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	fetcher := media.NewMockFetcher()
	fetcher.Add(voiceNote.URL, []byte("OggS"), "audio/ogg")
	provider := aiprovider.NewMockProvider(zerolog.Nop(), aiprovider.WithTranscriptionScenario(aiprovider.ScenarioTimeout))

	a, err := transcription.NewAdapter(fetcher, provider, zerolog.Nop(), transcription.WithTimeout(30*time.Millisecond))
	require.NoError(t, err)

	_, err = a.Transcribe(context.Background(), voiceNote)
	assert.True(t, errors.Is(err, common.ErrRecoverable))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
