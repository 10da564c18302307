// Package whatsapp delivers pipeline replies through the outbound WhatsApp
// provider and classifies provider failures.
package whatsapp

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
	waprovider "github.com/example/whatsapp-ai-responder/internal/providers/whatsapp"
	"github.com/example/whatsapp-ai-responder/internal/util"
)

// Twilio error codes that will not succeed on a later attempt.
var permanentCodes = map[int]struct{}{
	21211: {}, 21408: {}, 21610: {}, 21612: {}, 21614: {}, 63016: {},
}

// Twilio error codes signalling throttling or carrier trouble.
var transientCodes = map[int]struct{}{
	20429: {}, 30001: {}, 30003: {}, 63002: {}, 63015: {}, 63018: {},
}

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithRawBodyLimit overrides the maximum number of characters retained from the provider body.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// WithStatusCallback sets the URL Twilio reports delivery status to.
func WithStatusCallback(url string) Option {
	return func(a *Adapter) {
		a.statusCallback = strings.TrimSpace(url)
	}
}

// Adapter sends replies as WhatsApp messages.
type Adapter struct {
	logger         zerolog.Logger
	provider       waprovider.Provider
	maxRawChars    int
	statusCallback string
}

// NewAdapter constructs a WhatsApp delivery adapter.
func NewAdapter(provider waprovider.Provider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if provider == nil {
		return nil, errors.New("whatsapp adapter: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger:      logger,
		provider:    provider,
		maxRawChars: common.DefaultRawBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Send delivers reply.Body to reply.To. Errors are classified with
// common.ErrTransient or common.ErrPermanent.
func (a *Adapter) Send(ctx context.Context, reply models.Reply) (*common.ProviderResponse, error) {
	if strings.TrimSpace(reply.Body) == "" {
		return nil, common.WrapPermanent(errors.New("whatsapp adapter: reply body is empty"))
	}
	to, err := util.NormalizeE164(reply.To)
	if err != nil {
		return nil, common.WrapPermanent(fmt.Errorf("whatsapp adapter: recipient: %w", err))
	}

	payload := &waprovider.Payload{
		MessageID:      reply.MessageID,
		From:           reply.From,
		To:             to,
		Body:           reply.Body,
		StatusCallback: a.statusCallback,
	}

	raw, err := a.provider.Send(ctx, payload)
	if err != nil {
		classified := classify(raw, err)
		resp := a.buildResponse(raw, statusLabel(classified), err.Error())
		a.logger.Warn().
			Str("in_reply_to", reply.MessageID).
			Str("provider_status", resp.Status).
			Str("provider_id", resp.Meta["provider_id"]).
			Err(err).
			Msg("whatsapp reply send failed")
		return resp, classified
	}

	resp := a.buildResponse(raw, "sent", "sent")
	a.logger.Info().
		Str("in_reply_to", reply.MessageID).
		Str("provider_id", resp.Meta["provider_id"]).
		Str("provider_status", resp.Meta["provider_status"]).
		Msg("whatsapp reply sent")
	return resp, nil
}

func (a *Adapter) buildResponse(raw *waprovider.RawResponse, status, message string) *common.ProviderResponse {
	resp := &common.ProviderResponse{Status: status, Message: message}
	if raw == nil {
		return resp
	}

	meta := make(map[string]string)
	if raw.ID != "" {
		meta["provider_id"] = raw.ID
	}
	if raw.Status != "" {
		meta["provider_status"] = raw.Status
	}
	if !raw.Timestamp.IsZero() {
		meta["provider_timestamp"] = raw.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	if len(meta) > 0 {
		resp.Meta = meta
	}
	if raw.Code != 0 {
		code := raw.Code
		resp.Code = &code
	}
	if strings.TrimSpace(raw.Body) != "" {
		resp.Raw = util.TruncateRunes(raw.Body, a.maxRawChars)
	}
	return resp
}

func classify(raw *waprovider.RawResponse, err error) error {
	if raw != nil {
		if _, ok := permanentCodes[raw.ErrorCode]; ok {
			return common.WrapPermanent(err)
		}
		if _, ok := transientCodes[raw.ErrorCode]; ok {
			return common.WrapTransient(err)
		}
		switch {
		case raw.Code == 429 || raw.Code >= 500:
			return common.WrapTransient(err)
		case raw.Code >= 400:
			return common.WrapPermanent(err)
		}
	}
	return common.WrapTransient(err)
}

func statusLabel(err error) string {
	if errors.Is(err, common.ErrPermanent) {
		return "rejected"
	}
	return "rate_limited"
}
