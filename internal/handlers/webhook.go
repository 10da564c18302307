// Package handlers exposes the Twilio-facing HTTP endpoints.
package handlers

import (
	"context"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/inbound"
	"github.com/example/whatsapp-ai-responder/internal/models"
	"github.com/example/whatsapp-ai-responder/internal/twiml"
)

// Responder produces a reply synchronously.
type Responder interface {
	Respond(ctx context.Context, payload map[string]string) models.Reply
}

// Dispatcher hands a payload to background processing.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload map[string]string) error
}

// WebhookHandler receives inbound WhatsApp messages from Twilio.
type WebhookHandler struct {
	logger     zerolog.Logger
	responder  Responder
	dispatcher Dispatcher
}

// NewWebhookHandler constructs the webhook handler. With a nil dispatcher
// the reply is returned inline as TwiML; otherwise the payload is dispatched
// and an empty TwiML response is returned.
func NewWebhookHandler(logger zerolog.Logger, responder Responder, dispatcher Dispatcher) *WebhookHandler {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &WebhookHandler{
		logger:     logger.With().Str("handler", "webhook").Logger(),
		responder:  responder,
		dispatcher: dispatcher,
	}
}

// Register registers the webhook route.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook", h.Handle)
}

// Handle answers every well-formed request with 200 and TwiML. Pipeline
// failures surface as fallback text, never as an HTTP error.
func (h *WebhookHandler) Handle(c echo.Context) error {
	if h.responder == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "webhook responder not configured")
	}

	form, err := c.FormParams()
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to parse webhook form")
	}
	payload := inbound.FlattenForm(form)
	ctx := c.Request().Context()

	if h.dispatcher != nil {
		err := h.dispatcher.Dispatch(ctx, payload)
		if err == nil {
			return c.Blob(http.StatusOK, twiml.ContentType, twiml.Empty())
		}
		h.logger.Warn().Err(err).Msg("dispatch failed, replying inline")
	}

	reply := h.responder.Respond(ctx, payload)
	body, err := twiml.MessageResponse(reply.Body)
	if err != nil {
		h.logger.Error().Err(err).Str("message_sid", reply.MessageID).Msg("failed to render twiml")
		body = twiml.Empty()
	}
	return c.Blob(http.StatusOK, twiml.ContentType, body)
}
