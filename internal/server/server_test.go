package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/example/whatsapp-ai-responder/internal/handlers"
	"github.com/example/whatsapp-ai-responder/internal/server"
)

type panicRoute struct{}

func (panicRoute) Register(e *echo.Echo) {
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})
}

func TestServerMountsRegistrars(t *testing.T) {
	var missing *handlers.WebhookHandler
	srv := server.New(":0", zerolog.Nop(), handlers.NewHealthHandler("twiml", nil), missing)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerRecoversPanics(t *testing.T) {
	srv := server.New(":0", zerolog.Nop(), panicRoute{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
