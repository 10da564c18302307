// Package openai talks to OpenAI-compatible chat and transcription
// endpoints.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/models"
)

// ClientOption customises the SDK-backed client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	httpClient *http.Client
	baseURL    string
}

// WithHTTPClient overrides the HTTP client handed to the SDK.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(s *clientSettings) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithBaseURL points the client at a different API root. Useful for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(s *clientSettings) {
		if strings.TrimSpace(baseURL) != "" {
			s.baseURL = strings.TrimSpace(baseURL)
		}
	}
}

// Client implements ChatProvider and TranscriptionProvider on top of the
// official SDK. Retries are disabled: the first failure is final.
type Client struct {
	logger zerolog.Logger
	api    sdk.Client
}

// NewClient constructs the SDK-backed client.
func NewClient(cfg config.OpenAIConfig, logger zerolog.Logger, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai provider: api key is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	settings := &clientSettings{baseURL: strings.TrimSpace(cfg.BaseURL)}
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if settings.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(settings.baseURL))
	}
	if settings.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(settings.httpClient))
	}

	return &Client{
		logger: logger,
		api:    sdk.NewClient(reqOpts...),
	}, nil
}

// Chat sends the messages and returns the first choice. A response without
// choices yields empty content, not an error.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, errors.New("openai provider: chat request is required")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("openai provider: at least one message is required")
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(req.Model),
		Messages: buildMessages(req.Messages, req.ImageDetail),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logAPIError(err, "chat completion failed")
		return nil, fmt.Errorf("openai provider: chat completion: %w", err)
	}

	out := &ChatResponse{ID: resp.ID, Model: resp.Model}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

// Transcribe uploads the audio as a multipart file and returns the text.
func (c *Client) Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error) {
	if req == nil {
		return "", errors.New("openai provider: transcription request is required")
	}
	if len(req.Audio) == 0 {
		return "", errors.New("openai provider: audio is empty")
	}

	params := sdk.AudioTranscriptionNewParams{
		File:  sdk.File(bytes.NewReader(req.Audio), req.Filename, req.MIMEType),
		Model: sdk.AudioModel(req.Model),
	}
	if strings.TrimSpace(req.Language) != "" {
		params.Language = sdk.String(req.Language)
	}

	resp, err := c.api.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		c.logAPIError(err, "transcription failed")
		return "", fmt.Errorf("openai provider: transcription: %w", err)
	}
	return resp.Text, nil
}

func (c *Client) logAPIError(err error, msg string) {
	evt := c.logger.Warn().Err(err)
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		evt = evt.Int("status_code", apiErr.StatusCode).
			Str("api_type", apiErr.Type).
			Str("api_code", apiErr.Code)
		if apiErr.Response != nil {
			evt = evt.Str("provider_request_id", apiErr.Response.Header.Get("x-request-id"))
		}
	}
	evt.Msg(msg)
}

// StatusCode extracts the HTTP status of a failed API call.
func StatusCode(err error) (int, bool) {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

func buildMessages(msgs []models.ChatMessage, detail string) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		default:
			if m.Image != nil && m.Image.URL != "" {
				out = append(out, multimodalUserMessage(m.Content, m.Image.URL, detail))
				continue
			}
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}

func multimodalUserMessage(text, imageURL, detail string) sdk.ChatCompletionMessageParamUnion {
	if detail == "" {
		detail = ImageDetailLow
	}
	parts := []sdk.ChatCompletionContentPartUnionParam{
		{OfText: &sdk.ChatCompletionContentPartTextParam{Text: text}},
		{OfImageURL: &sdk.ChatCompletionContentPartImageParam{
			ImageURL: sdk.ChatCompletionContentPartImageImageURLParam{
				URL:    imageURL,
				Detail: detail,
			},
		}},
	}
	return sdk.ChatCompletionMessageParamUnion{
		OfUser: &sdk.ChatCompletionUserMessageParam{
			Content: sdk.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: parts,
			},
		},
	}
}
