package media_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/providers/media"
	"github.com/example/whatsapp-ai-responder/internal/util"
)

var creds = config.TwilioConfig{AccountSID: "AC123", AuthToken: "secret"}

func TestFetchUsesBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "audio/ogg; codecs=opus")
		_, _ = w.Write([]byte("OggS-bytes"))
	}))
	defer srv.Close()

	f := media.NewTwilioFetcher(creds, zeroLogger())
	got, err := f.Fetch(context.Background(), srv.URL+"/ME1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.Data) != "OggS-bytes" {
		t.Fatalf("unexpected body %q", got.Data)
	}
	if got.MIMEType != "audio/ogg" {
		t.Fatalf("expected response content type, got %q", got.MIMEType)
	}
}

func TestFetchPrefersDeclaredMIME(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	f := media.NewTwilioFetcher(creds, zeroLogger())
	got, err := f.Fetch(context.Background(), srv.URL, "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MIMEType != "image/jpeg" {
		t.Fatalf("expected declared mime type, got %q", got.MIMEType)
	}
}

func TestFetchMissingCredentialsMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	for _, cfg := range []config.TwilioConfig{{}, {AccountSID: "AC123"}, {AuthToken: "secret"}} {
		f := media.NewTwilioFetcher(cfg, zeroLogger())
		_, err := f.Fetch(context.Background(), srv.URL, "audio/ogg")
		if !errors.Is(err, media.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
		if !media.IsMissingCredentials(err) {
			t.Fatalf("expected helper to detect missing credentials")
		}
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	f := media.NewTwilioFetcher(creds, zeroLogger())
	_, err := f.Fetch(context.Background(), "", "audio/ogg")
	if !errors.Is(err, util.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":20404,"message":"not found"}`))
	}))
	defer srv.Close()

	f := media.NewTwilioFetcher(creds, zeroLogger())
	_, err := f.Fetch(context.Background(), srv.URL, "audio/ogg")
	if err == nil || !strings.Contains(err.Error(), "http 404") {
		t.Fatalf("expected http 404 error, got %v", err)
	}
}

func TestFetchEnforcesSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	f := media.NewTwilioFetcher(creds, zeroLogger(), media.WithMaxBytes(16))
	_, err := f.Fetch(context.Background(), srv.URL, "image/png")
	if !errors.Is(err, media.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := media.NewTwilioFetcher(creds, zeroLogger(), media.WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL, "audio/ogg")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("fetch did not honour timeout")
	}
}

func TestMockFetcher(t *testing.T) {
	m := media.NewMockFetcher()
	m.Add("https://media/1", []byte("abc"), "audio/ogg")

	got, err := m.Fetch(context.Background(), "https://media/1", "")
	if err != nil || string(got.Data) != "abc" || got.MIMEType != "audio/ogg" {
		t.Fatalf("unexpected result %+v %v", got, err)
	}
	if _, err := m.Fetch(context.Background(), "https://media/2", ""); err == nil {
		t.Fatalf("expected unknown url to fail")
	}
	boom := errors.New("boom")
	m.FailWith(boom)
	if _, err := m.Fetch(context.Background(), "https://media/1", ""); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if len(m.Calls()) != 3 {
		t.Fatalf("expected 3 recorded calls, got %d", len(m.Calls()))
	}
}
