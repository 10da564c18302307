// Package media downloads inbound WhatsApp attachments from Twilio's media
// store.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/models"
	"github.com/example/whatsapp-ai-responder/internal/util"
)

const (
	defaultMaxBytes = 16 * 1024 * 1024
	defaultTimeout  = 30 * time.Second
	errorBodyLimit  = 512
)

// Option customises the Twilio fetcher.
type Option func(*TwilioFetcher)

// WithHTTPClient overrides the HTTP client used to download media.
func WithHTTPClient(client HTTPClient) Option {
	return func(f *TwilioFetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithMaxBytes caps the number of bytes accepted for a single attachment.
func WithMaxBytes(limit int64) Option {
	return func(f *TwilioFetcher) {
		if limit > 0 {
			f.maxBytes = limit
		}
	}
}

// WithTimeout bounds a single download.
func WithTimeout(d time.Duration) Option {
	return func(f *TwilioFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// TwilioFetcher downloads media using HTTP basic auth with the account SID
// and auth token. Redirects to the CDN are followed by the client.
type TwilioFetcher struct {
	logger     zerolog.Logger
	accountSID string
	authToken  string
	httpClient HTTPClient
	maxBytes   int64
	timeout    time.Duration
}

// NewTwilioFetcher constructs a fetcher. Missing credentials are not an
// error here; Fetch reports ErrMissingCredentials per call instead.
func NewTwilioFetcher(cfg config.TwilioConfig, logger zerolog.Logger, opts ...Option) *TwilioFetcher {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	f := &TwilioFetcher{
		logger:     logger,
		accountSID: strings.TrimSpace(cfg.AccountSID),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		httpClient: http.DefaultClient,
		maxBytes:   defaultMaxBytes,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch downloads the media at mediaURL. The returned MIME type is the
// declared one when present, otherwise the response Content-Type.
func (f *TwilioFetcher) Fetch(ctx context.Context, mediaURL, declaredMIME string) (*models.FetchedMedia, error) {
	if f.accountSID == "" || f.authToken == "" {
		return nil, ErrMissingCredentials
	}
	target, err := util.ValidateHTTPURL(mediaURL)
	if err != nil {
		return nil, fmt.Errorf("media fetcher: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("media fetcher: new request: %w", err)
	}
	req.SetBasicAuth(f.accountSID, f.authToken)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media fetcher: http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("media fetcher: http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media fetcher: read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	mimeType := strings.TrimSpace(declaredMIME)
	if mimeType == "" {
		mimeType = contentType(resp.Header.Get("Content-Type"))
	}

	f.logger.Debug().
		Int("bytes", len(data)).
		Str("mime_type", mimeType).
		Dur("elapsed", time.Since(start)).
		Msg("media fetched")

	return &models.FetchedMedia{Data: data, MIMEType: mimeType}, nil
}

func contentType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.TrimSpace(header)
	}
	return mt
}

// IsMissingCredentials reports whether err stems from absent credentials.
func IsMissingCredentials(err error) bool {
	return errors.Is(err, ErrMissingCredentials)
}
