package factory

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/adapters/completion"
	"github.com/example/whatsapp-ai-responder/internal/adapters/transcription"
	"github.com/example/whatsapp-ai-responder/internal/adapters/vision"
	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/logger"
	"github.com/example/whatsapp-ai-responder/internal/pipeline"
	"github.com/example/whatsapp-ai-responder/internal/providers/media"
)

// Pipeline wires the adapters around ai and fetcher into a Responder.
func Pipeline(cfg *config.Config, ai AIProvider, fetcher media.Fetcher, log zerolog.Logger) (*pipeline.Responder, error) {
	transcriber, err := transcription.NewAdapter(fetcher, ai, logger.Component(log, "transcription-adapter"),
		transcription.WithModel(cfg.Providers.OpenAI.TranscriptionModel),
		transcription.WithLanguage(cfg.Pipeline.TranscriptionLanguage),
		transcription.WithTimeout(seconds(cfg.Timeouts.TranscriptionSeconds)),
	)
	if err != nil {
		return nil, fmt.Errorf("factory: transcription adapter init: %w", err)
	}

	completer, err := completion.NewAdapter(ai, logger.Component(log, "completion-adapter"),
		completion.WithModel(cfg.Providers.OpenAI.ChatModel),
		completion.WithTimeout(seconds(cfg.Timeouts.CompletionSeconds)),
	)
	if err != nil {
		return nil, fmt.Errorf("factory: completion adapter init: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithImagePolicy(cfg.Pipeline.ImagePolicy)}
	if cfg.Pipeline.ImagePolicy == config.ImagePolicyDescribe {
		describer, err := vision.NewAdapter(fetcher, ai, logger.Component(log, "vision-adapter"),
			vision.WithModel(cfg.Providers.OpenAI.VisionModel),
			vision.WithTimeout(seconds(cfg.Timeouts.VisionSeconds)),
		)
		if err != nil {
			return nil, fmt.Errorf("factory: vision adapter init: %w", err)
		}
		opts = append(opts, pipeline.WithDescriber(describer))
	}

	responder, err := pipeline.NewResponder(transcriber, completer, logger.Component(log, "pipeline"), opts...)
	if err != nil {
		return nil, fmt.Errorf("factory: pipeline init: %w", err)
	}
	return responder, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
