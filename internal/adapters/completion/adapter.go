// Package completion generates reply text from a composed prompt.
package completion

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
	aiprovider "github.com/example/whatsapp-ai-responder/internal/providers/openai"
	"github.com/example/whatsapp-ai-responder/internal/util"
)

const (
	defaultModel       = "gpt-4o"
	defaultMaxTokens   = 500
	defaultTemperature = 0.7
	defaultTimeout     = 30 * time.Second
)

// ApologyMessage is the user-facing text attached to completion failures.
const ApologyMessage = "Hubo un problema procesando tu mensaje. ¿Podrías intentarlo de nuevo?"

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithModel selects the chat model.
func WithModel(model string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(model) != "" {
			a.model = strings.TrimSpace(model)
		}
	}
}

// WithTimeout bounds the completion call.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Adapter shapes completion requests and classifies their failures.
type Adapter struct {
	logger      zerolog.Logger
	provider    aiprovider.ChatProvider
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewAdapter constructs a completion adapter.
func NewAdapter(provider aiprovider.ChatProvider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("completion adapter: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	a := &Adapter{
		logger:      logger,
		provider:    provider,
		model:       defaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Complete returns the generated reply. An empty reply is valid. Failures
// are fatal to the invocation and carry ApologyMessage as a
// common.UserError.
func (a *Adapter) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fatal(errors.New("completion adapter: request has no messages"))
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.provider.Chat(callCtx, &aiprovider.ChatRequest{
		Model:       a.model,
		Messages:    req.Messages,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		ImageDetail: aiprovider.ImageDetailLow,
	})
	if err != nil {
		evt := a.logger.Error().Err(err).Dur("elapsed", time.Since(start))
		if code, ok := aiprovider.StatusCode(err); ok {
			evt = evt.Int("status_code", code)
		}
		evt.Msg("completion failed")
		return "", fatal(fmt.Errorf("completion adapter: chat: %w", err))
	}

	a.logger.Info().
		Str("model", resp.Model).
		Str("finish_reason", resp.FinishReason).
		Str("reply", util.Preview(resp.Content, 120)).
		Dur("elapsed", time.Since(start)).
		Msg("completion generated")
	return resp.Content, nil
}

func fatal(err error) error {
	return common.WrapFatal(&common.UserError{Err: err, UserMessage: ApologyMessage})
}
