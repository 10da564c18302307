package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/providers/media"
	aiprovider "github.com/example/whatsapp-ai-responder/internal/providers/openai"
	waprovider "github.com/example/whatsapp-ai-responder/internal/providers/whatsapp"
)

// AIProvider serves both chat completions and audio transcriptions.
type AIProvider interface {
	aiprovider.ChatProvider
	aiprovider.TranscriptionProvider
}

// AI constructs the configured AI provider. Supports OpenAI and mock backends.
func AI(cfg config.ProviderConfig, logger zerolog.Logger) (AIProvider, error) {
	backend := normalize(cfg.AIProvider, "openai")
	switch backend {
	case "openai":
		provider, err := aiprovider.NewClient(cfg.OpenAI, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: openai provider init: %w", err)
		}
		logger.Info().
			Str("backend", "openai").
			Str("chat_model", cfg.OpenAI.ChatModel).
			Msg("ai provider initialised")
		return provider, nil
	case "mock":
		provider := aiprovider.NewMockProvider(logger)
		logger.Info().
			Str("backend", "mock").
			Msg("ai provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported ai provider backend %q", cfg.AIProvider)
	}
}

// Media constructs the Twilio media fetcher. Missing credentials are logged
// here and reported per call by the fetcher.
func Media(cfg *config.Config, logger zerolog.Logger) media.Fetcher {
	if !cfg.Providers.Twilio.HasCredentials() {
		logger.Warn().Msg("twilio credentials missing, media attachments will use fallback content")
	}
	return media.NewTwilioFetcher(cfg.Providers.Twilio, logger,
		media.WithMaxBytes(int64(cfg.Pipeline.MediaMaxBytes)),
		media.WithTimeout(time.Duration(cfg.Timeouts.MediaFetchSeconds)*time.Second),
	)
}

// WhatsApp constructs the configured WhatsApp provider. Supports mock and Twilio backends.
func WhatsApp(cfg config.ProviderConfig, logger zerolog.Logger) (waprovider.Provider, error) {
	backend := normalize(cfg.WhatsAppProvider, "mock")
	switch backend {
	case "twilio":
		provider, err := waprovider.NewTwilioProvider(cfg.Twilio, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: twilio whatsapp provider init: %w", err)
		}
		logger.Info().
			Str("backend", "twilio").
			Msg("whatsapp provider initialised")
		return provider, nil
	case "mock":
		provider := waprovider.NewMockProvider(logger)
		logger.Info().
			Str("backend", "mock").
			Msg("whatsapp provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported whatsapp provider backend %q", cfg.WhatsAppProvider)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
