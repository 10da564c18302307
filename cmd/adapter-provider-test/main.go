package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	waadapter "github.com/example/whatsapp-ai-responder/internal/adapters/whatsapp"
	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/providers/factory"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	defaults := map[string]string{
		"AI_PROVIDER":       "mock",
		"WHATSAPP_PROVIDER": "mock",
		"DELIVERY_MODE":     "api",
	}
	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			logger.Fatal().Err(err).Str("key", key).Msg("failed to set env value")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ai, err := factory.AI(cfg.Providers, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise ai provider")
	}
	responder, err := factory.Pipeline(cfg, ai, factory.Media(cfg, logger), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise pipeline")
	}

	provider, err := factory.WhatsApp(cfg.Providers, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise whatsapp provider")
	}
	adapter, err := waadapter.NewAdapter(provider, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise whatsapp adapter")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	to := os.Getenv("SMOKE_TEST_TO")
	if to == "" {
		to = "whatsapp:+15005550006"
	}
	reply := responder.Respond(ctx, map[string]string{
		"MessageSid":  "adapter-provider-test",
		"From":        to,
		"To":          "whatsapp:" + cfg.Providers.Twilio.PhoneNumber,
		"Body":        "Hola",
		"NumMedia":    "0",
		"ProfileName": "Smoke Test",
	})
	if reply.Body == "" {
		logger.Fatal().Str("route", string(reply.Route)).Msg("pipeline returned an empty reply")
	}
	logger.Info().Str("route", string(reply.Route)).Str("reply", reply.Body).Msg("pipeline produced reply")

	response, err := adapter.Send(ctx, reply)
	if err != nil {
		logger.Fatal().Err(err).Interface("response", response).Msg("adapter failed to send reply")
	}

	logger.Info().
		Str("message_id", reply.MessageID).
		Str("provider_id", response.Meta["provider_id"]).
		Str("status", response.Status).
		Msg("pipeline, adapter and provider working as expected")
}
