package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/whatsapp-ai-responder/internal/handlers"
	"github.com/example/whatsapp-ai-responder/internal/models"
	"github.com/example/whatsapp-ai-responder/internal/twiml"
)

type fakeResponder struct {
	mu       sync.Mutex
	reply    models.Reply
	payloads []map[string]string
}

func (f *fakeResponder) Respond(ctx context.Context, payload map[string]string) models.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.reply
}

type fakeDispatcher struct {
	err      error
	payloads []map[string]string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, payload map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeSink struct {
	events []models.StatusEvent
	err    error
	ready  bool
}

func (f *fakeSink) PublishStatus(ctx context.Context, event models.StatusEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeSink) IsReady() bool { return f.ready }

func postForm(e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func inboundForm() url.Values {
	return url.Values{
		"MessageSid":  {"SM123"},
		"From":        {"whatsapp:+5215512345678"},
		"To":          {"whatsapp:+14155238886"},
		"Body":        {"Hola, quiero info"},
		"NumMedia":    {"0"},
		"ProfileName": {"Ana"},
	}
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	responder := &fakeResponder{reply: models.Reply{Body: "¡Hola Ana! <3 & bienvenida", Route: models.RouteText}}
	e := echo.New()
	handlers.NewWebhookHandler(zerolog.Nop(), responder, nil).Register(e)

	rec := postForm(e, "/webhook", inboundForm())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, twiml.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<Response><Message>¡Hola Ana! &lt;3 &amp; bienvenida</Message></Response>")
	require.Len(t, responder.payloads, 1)
	assert.Equal(t, "whatsapp:+5215512345678", responder.payloads[0]["From"])
	assert.Equal(t, "Hola, quiero info", responder.payloads[0]["Body"])
}

func TestWebhookEmptyReplyRendersEmptyResponse(t *testing.T) {
	responder := &fakeResponder{reply: models.Reply{Route: models.RouteSuppressed}}
	e := echo.New()
	handlers.NewWebhookHandler(zerolog.Nop(), responder, nil).Register(e)

	rec := postForm(e, "/webhook", inboundForm())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Response></Response>")
	assert.NotContains(t, rec.Body.String(), "<Message>")
}

func TestWebhookEmptyFormStillAnswers200(t *testing.T) {
	responder := &fakeResponder{reply: models.Reply{Body: "greeting", Route: models.RouteInvalid}}
	e := echo.New()
	handlers.NewWebhookHandler(zerolog.Nop(), responder, nil).Register(e)

	rec := postForm(e, "/webhook", url.Values{})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Message>greeting</Message>")
	require.Len(t, responder.payloads, 1)
	assert.Empty(t, responder.payloads[0])
}

func TestWebhookDispatchesInAPIMode(t *testing.T) {
	responder := &fakeResponder{reply: models.Reply{Body: "inline"}}
	dispatcher := &fakeDispatcher{}
	e := echo.New()
	handlers.NewWebhookHandler(zerolog.Nop(), responder, dispatcher).Register(e)

	rec := postForm(e, "/webhook", inboundForm())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Response></Response>")
	require.Len(t, dispatcher.payloads, 1)
	assert.Equal(t, "SM123", dispatcher.payloads[0]["MessageSid"])
	assert.Empty(t, responder.payloads)
}

func TestWebhookDispatchFailureRepliesInline(t *testing.T) {
	responder := &fakeResponder{reply: models.Reply{Body: "inline"}}
	dispatcher := &fakeDispatcher{err: context.DeadlineExceeded}
	e := echo.New()
	handlers.NewWebhookHandler(zerolog.Nop(), responder, dispatcher).Register(e)

	rec := postForm(e, "/webhook", inboundForm())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Message>inline</Message>")
	assert.Len(t, responder.payloads, 1)
}

func TestStatusForwardsEvent(t *testing.T) {
	sink := &fakeSink{}
	e := echo.New()
	handlers.NewStatusHandler(zerolog.Nop(), sink).Register(e)

	rec := postForm(e, "/status", url.Values{
		"MessageSid":    {"SMout"},
		"MessageStatus": {"undelivered"},
		"To":            {"whatsapp:+5215512345678"},
		"ErrorCode":     {"63016"},
	})

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, sink.events, 1)
	got := sink.events[0]
	assert.Equal(t, "SMout", got.MessageID)
	assert.Equal(t, models.StatusUndelivered, got.Status)
	assert.Equal(t, "63016", got.ErrorCode)
	assert.False(t, got.Timestamp.IsZero())
}

func TestStatusRejectsInvalidCallbacks(t *testing.T) {
	cases := map[string]url.Values{
		"missing sid":    {"MessageStatus": {"sent"}},
		"unknown status": {"MessageSid": {"SM1"}, "MessageStatus": {"exploded"}},
		"missing status": {"MessageSid": {"SM1"}},
	}
	for name, form := range cases {
		form := form
		t.Run(name, func(t *testing.T) {
			sink := &fakeSink{}
			e := echo.New()
			handlers.NewStatusHandler(zerolog.Nop(), sink).Register(e)

			rec := postForm(e, "/status", form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, sink.events)
		})
	}
}

func TestStatusSinkFailureStillAcknowledges(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker down")}
	e := echo.New()
	handlers.NewStatusHandler(zerolog.Nop(), sink).Register(e)

	rec := postForm(e, "/status", url.Values{"MessageSid": {"SM1"}, "MessageStatus": {"Delivered"}})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, sink.events, 1)
	assert.Equal(t, models.StatusDelivered, sink.events[0].Status)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		sink   handlers.Readiness
		status string
		kind   string
	}{
		{name: "log sink", sink: nil, status: "ok", kind: "log"},
		{name: "ready kafka", sink: &fakeSink{ready: true}, status: "ok", kind: "kafka"},
		{name: "disconnected kafka", sink: &fakeSink{}, status: "degraded", kind: "kafka"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			handlers.NewHealthHandler("twiml", tc.sink).Register(e)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body["status"])
			assert.Equal(t, tc.kind, body["status_sink"])
			assert.Equal(t, "twiml", body["delivery_mode"])
		})
	}
}
