// Package transcription converts voice notes into text.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/whatsapp-ai-responder/internal/adapters/common"
	"github.com/example/whatsapp-ai-responder/internal/models"
	"github.com/example/whatsapp-ai-responder/internal/providers/media"
	aiprovider "github.com/example/whatsapp-ai-responder/internal/providers/openai"
	"github.com/example/whatsapp-ai-responder/internal/util"
)

const (
	defaultModel    = "whisper-1"
	defaultLanguage = "es"
	defaultFilename = "audio.ogg"
	defaultMIMEType = "audio/ogg"
	defaultTimeout  = 30 * time.Second
)

// ErrEmptyTranscript is returned when the provider recognised no speech.
var ErrEmptyTranscript = errors.New("transcription adapter: empty transcript")

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithModel selects the transcription model.
func WithModel(model string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(model) != "" {
			a.model = strings.TrimSpace(model)
		}
	}
}

// WithLanguage sets the source-language hint.
func WithLanguage(lang string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(lang) != "" {
			a.language = strings.TrimSpace(lang)
		}
	}
}

// WithTimeout bounds the transcription call. The media download has its own
// timeout on the fetcher.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Adapter downloads an audio attachment and transcribes it.
type Adapter struct {
	logger   zerolog.Logger
	fetcher  media.Fetcher
	provider aiprovider.TranscriptionProvider
	model    string
	language string
	timeout  time.Duration
}

// NewAdapter constructs a transcription adapter.
func NewAdapter(fetcher media.Fetcher, provider aiprovider.TranscriptionProvider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if fetcher == nil {
		return nil, errors.New("transcription adapter: media fetcher dependency is required")
	}
	if provider == nil {
		return nil, errors.New("transcription adapter: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	a := &Adapter{
		logger:   logger,
		fetcher:  fetcher,
		provider: provider,
		model:    defaultModel,
		language: defaultLanguage,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Transcribe returns the transcript of the attachment. Every failure is
// wrapped with common.ErrRecoverable.
func (a *Adapter) Transcribe(ctx context.Context, att models.Attachment) (string, error) {
	audio, err := a.fetcher.Fetch(ctx, att.URL, att.MIMEType)
	if err != nil {
		a.logger.Warn().Err(err).Str("media_url", att.URL).Msg("audio download failed")
		return "", common.WrapRecoverable(fmt.Errorf("transcription adapter: fetch audio: %w", err))
	}

	mimeType := audio.MIMEType
	if strings.TrimSpace(mimeType) == "" {
		mimeType = defaultMIMEType
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.provider.Transcribe(callCtx, &aiprovider.TranscriptionRequest{
		Model:    a.model,
		Language: a.language,
		Filename: defaultFilename,
		MIMEType: mimeType,
		Audio:    audio.Data,
	})
	if err != nil {
		a.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("transcription failed")
		return "", common.WrapRecoverable(fmt.Errorf("transcription adapter: transcribe: %w", err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.WrapRecoverable(ErrEmptyTranscript)
	}

	a.logger.Info().
		Int("audio_bytes", len(audio.Data)).
		Str("transcript", util.Preview(text, 120)).
		Dur("elapsed", time.Since(start)).
		Msg("audio transcribed")
	return text, nil
}
