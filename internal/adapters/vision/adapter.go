// Package vision produces short descriptions of inbound images.
package vision

import (
	"context"
	"encoding/base64"
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
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 150
	defaultTimeout   = 20 * time.Second

	// DescribePrompt is the instruction sent alongside the image.
	DescribePrompt = "Describe brevemente esta imagen en español en máximo 50 palabras. Sé conciso."
	// FallbackDescription replaces the description when the model call fails.
	FallbackDescription = "una imagen (no pude analizarla en detalle)"
	// EmptyDescription replaces a blank model answer.
	EmptyDescription = "una imagen"
)

// Result is the outcome of describing one image.
type Result struct {
	Description string
	// Image is the inline data URL of the fetched bytes, reusable in the
	// completion request.
	Image *models.InlineImage
	// Degraded is set when Description is a fallback.
	Degraded bool
}

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithModel selects the vision-capable chat model.
func WithModel(model string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(model) != "" {
			a.model = strings.TrimSpace(model)
		}
	}
}

// WithTimeout bounds the description call.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Adapter fetches an image attachment and asks a multimodal model to
// describe it.
type Adapter struct {
	logger   zerolog.Logger
	fetcher  media.Fetcher
	provider aiprovider.ChatProvider
	model    string
	timeout  time.Duration
}

// NewAdapter constructs a vision adapter.
func NewAdapter(fetcher media.Fetcher, provider aiprovider.ChatProvider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if fetcher == nil {
		return nil, errors.New("vision adapter: media fetcher dependency is required")
	}
	if provider == nil {
		return nil, errors.New("vision adapter: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	a := &Adapter{
		logger:   logger,
		fetcher:  fetcher,
		provider: provider,
		model:    defaultModel,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Describe returns a short description of the image. A failed download is
// a recoverable error; a failed model call degrades to FallbackDescription
// and still returns the inline image.
func (a *Adapter) Describe(ctx context.Context, att models.Attachment) (*Result, error) {
	img, err := a.fetcher.Fetch(ctx, att.URL, att.MIMEType)
	if err != nil {
		a.logger.Warn().Err(err).Str("media_url", att.URL).Msg("image download failed")
		return nil, common.WrapRecoverable(fmt.Errorf("vision adapter: fetch image: %w", err))
	}

	inline := &models.InlineImage{URL: DataURL(img.MIMEType, img.Data)}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.provider.Chat(callCtx, &aiprovider.ChatRequest{
		Model: a.model,
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: DescribePrompt, Image: inline},
		},
		MaxTokens:   defaultMaxTokens,
		ImageDetail: aiprovider.ImageDetailLow,
	})
	if err != nil {
		a.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("image description failed")
		return &Result{Description: FallbackDescription, Image: inline, Degraded: true}, nil
	}

	description := strings.TrimSpace(resp.Content)
	if description == "" {
		return &Result{Description: EmptyDescription, Image: inline, Degraded: true}, nil
	}

	a.logger.Info().
		Str("description", util.Preview(description, 120)).
		Dur("elapsed", time.Since(start)).
		Msg("image described")
	return &Result{Description: description, Image: inline}, nil
}

// DataURL encodes bytes as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
