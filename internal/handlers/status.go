package handlers

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/inbound"
	"github.com/example/whatsapp-ai-responder/internal/kafka/publisher"
	"github.com/example/whatsapp-ai-responder/internal/models"
)

// StatusHandler receives Twilio delivery status callbacks for replies sent
// through the Messages API.
type StatusHandler struct {
	logger zerolog.Logger
	sink   publisher.StatusSink
	now    func() time.Time
}

// NewStatusHandler constructs the status callback handler.
func NewStatusHandler(logger zerolog.Logger, sink publisher.StatusSink) *StatusHandler {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &StatusHandler{
		logger: logger.With().Str("handler", "status").Logger(),
		sink:   sink,
		now:    time.Now,
	}
}

// Register registers the status callback route.
func (h *StatusHandler) Register(e *echo.Echo) {
	e.POST("/status", h.Handle)
}

// Handle validates the callback and forwards it to the sink.
func (h *StatusHandler) Handle(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}
	fields := inbound.FlattenForm(form)

	sid := strings.TrimSpace(fields["MessageSid"])
	if sid == "" {
		sid = strings.TrimSpace(fields["SmsSid"])
	}
	if sid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "MessageSid is required")
	}
	status := strings.ToLower(strings.TrimSpace(fields["MessageStatus"]))
	if status == "" {
		status = strings.ToLower(strings.TrimSpace(fields["SmsStatus"]))
	}
	if !models.IsKnownStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown MessageStatus")
	}

	event := models.StatusEvent{
		MessageID:    sid,
		Status:       status,
		To:           strings.TrimSpace(fields["To"]),
		From:         strings.TrimSpace(fields["From"]),
		ErrorCode:    strings.TrimSpace(fields["ErrorCode"]),
		ErrorMessage: strings.TrimSpace(fields["ErrorMessage"]),
		Timestamp:    h.now().UTC(),
	}

	if h.sink != nil {
		if err := h.sink.PublishStatus(c.Request().Context(), event); err != nil {
			h.logger.Error().Err(err).Str("message_sid", sid).Str("status", status).Msg("failed to forward status event")
		}
	}
	return c.NoContent(http.StatusNoContent)
}
