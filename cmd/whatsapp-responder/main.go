package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	waadapter "github.com/example/whatsapp-ai-responder/internal/adapters/whatsapp"
	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/handlers"
	"github.com/example/whatsapp-ai-responder/internal/kafka/producer"
	kafkapublisher "github.com/example/whatsapp-ai-responder/internal/kafka/publisher"
	"github.com/example/whatsapp-ai-responder/internal/logger"
	"github.com/example/whatsapp-ai-responder/internal/providers/factory"
	"github.com/example/whatsapp-ai-responder/internal/server"
	"github.com/example/whatsapp-ai-responder/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "whatsapp-responder").Logger()

	aiLogger := log.With().
		Str("component", "ai-provider").
		Str("backend", strings.ToLower(strings.TrimSpace(cfg.Providers.AIProvider))).
		Logger()
	ai, err := factory.AI(cfg.Providers, aiLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise ai provider")
	}

	fetcher := factory.Media(cfg, logger.Component(log, "media-fetcher"))

	responder, err := factory.Pipeline(cfg, ai, fetcher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise pipeline")
	}

	var (
		statusSink kafkapublisher.StatusSink = kafkapublisher.NewLogSink(logger.Component(log, "status-sink"))
		readiness  handlers.Readiness
	)
	if cfg.Kafka.Enabled() {
		prod, err := producer.New(cfg.Kafka.Brokers, logger.Component(log, "kafka"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		defer func() {
			if err := prod.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka producer")
			}
		}()
		statusSink = kafkapublisher.NewStatusPublisher(prod, cfg.Kafka.StatusTopic, logger.Component(log, "status-publisher"))
		readiness = prod
	}

	var (
		dispatcher *worker.Dispatcher
		dispatch   handlers.Dispatcher
	)
	if cfg.Delivery.Mode == config.DeliveryModeAPI {
		providerLogger := log.With().
			Str("component", "whatsapp-provider").
			Str("backend", strings.ToLower(strings.TrimSpace(cfg.Providers.WhatsAppProvider))).
			Logger()
		provider, err := factory.WhatsApp(cfg.Providers, providerLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise whatsapp provider")
		}

		sender, err := waadapter.NewAdapter(provider, logger.Component(log, "whatsapp-adapter"),
			waadapter.WithStatusCallback(cfg.Delivery.StatusCallbackURL),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise whatsapp adapter")
		}

		dispatcher, err = worker.NewDispatcher(worker.Config{
			Concurrency: cfg.Delivery.DispatchConcurrency,
		}, worker.Dependencies{
			Responder:  responder,
			Sender:     sender,
			StatusSink: statusSink,
			Logger:     logger.Component(log, "dispatcher"),
			Now:        time.Now,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise dispatcher")
		}
		dispatch = dispatcher
	}

	srv := server.New(fmt.Sprintf(":%d", cfg.App.Port), logger.Component(log, "http"),
		handlers.NewWebhookHandler(log, responder, dispatch),
		handlers.NewStatusHandler(log, statusSink),
		handlers.NewHealthHandler(cfg.Delivery.Mode, readiness),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
		close(errCh)
	}()

	log.Info().
		Str("delivery_mode", cfg.Delivery.Mode).
		Str("image_policy", cfg.Pipeline.ImagePolicy).
		Bool("kafka_status_sink", cfg.Kafka.Enabled()).
		Msg("whatsapp responder started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	if dispatcher != nil {
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("in-flight replies abandoned at shutdown")
		}
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("whatsapp responder init failed")
}
