package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Readiness reports whether a dependency can currently serve requests.
type Readiness interface {
	IsReady() bool
}

// HealthHandler reports liveness and status sink readiness.
type HealthHandler struct {
	deliveryMode string
	statusSink   Readiness
}

// NewHealthHandler constructs the health handler. statusSink may be nil when
// status events are only logged.
func NewHealthHandler(deliveryMode string, statusSink Readiness) *HealthHandler {
	return &HealthHandler{deliveryMode: deliveryMode, statusSink: statusSink}
}

// Register registers the health route.
func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Handle)
}

// Handle always answers 200 while the process is alive; a disconnected
// status sink is reported as degraded.
func (h *HealthHandler) Handle(c echo.Context) error {
	sink := "log"
	status := "ok"
	if h.statusSink != nil {
		sink = "kafka"
		if !h.statusSink.IsReady() {
			status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":        status,
		"delivery_mode": h.deliveryMode,
		"status_sink":   sink,
	})
}
