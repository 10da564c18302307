package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/util"
)

const (
	twilioAPIBase    = "https://api.twilio.com/2010-04-01"
	defaultBodyLimit = 16 * 1024
)

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TwilioOption customises the behaviour of the WhatsApp Twilio provider.
type TwilioOption func(*TwilioProvider)

// WithTwilioHTTPClient overrides the HTTP client used to talk to Twilio.
func WithTwilioHTTPClient(client HTTPClient) TwilioOption {
	return func(p *TwilioProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithTwilioBaseURL sets the base Twilio API URL. Useful for tests.
func WithTwilioBaseURL(baseURL string) TwilioOption {
	return func(p *TwilioProvider) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			p.baseURL = trimmed
		}
	}
}

// WithTwilioClock overrides the clock used for timestamps.
func WithTwilioClock(now func() time.Time) TwilioOption {
	return func(p *TwilioProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTwilioBodyLimit adjusts how many bytes are retained from the HTTP response body.
func WithTwilioBodyLimit(limit int64) TwilioOption {
	return func(p *TwilioProvider) {
		if limit > 0 {
			p.maxBodyBytes = limit
		}
	}
}

// TwilioProvider sends WhatsApp replies through Twilio's Messages API.
type TwilioProvider struct {
	logger       zerolog.Logger
	accountSID   string
	authToken    string
	defaultFrom  string
	httpClient   HTTPClient
	baseURL      string
	now          func() time.Time
	maxBodyBytes int64
}

// NewTwilioProvider constructs a Twilio-backed WhatsApp provider.
func NewTwilioProvider(cfg config.TwilioConfig, logger zerolog.Logger, opts ...TwilioOption) (*TwilioProvider, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, errors.New("twilio whatsapp provider: account SID is required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("twilio whatsapp provider: auth token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumber) == "" {
		return nil, errors.New("twilio whatsapp provider: phone number is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	provider := &TwilioProvider{
		logger:       logger,
		accountSID:   strings.TrimSpace(cfg.AccountSID),
		authToken:    strings.TrimSpace(cfg.AuthToken),
		defaultFrom:  util.FormatWhatsAppAddress(cfg.PhoneNumber),
		baseURL:      twilioAPIBase,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		maxBodyBytes: defaultBodyLimit,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}

	return provider, nil
}

// Send posts the message to the Twilio Messages API. Delivery outcomes
// arrive later on the status callback.
func (p *TwilioProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("twilio whatsapp provider: payload is required")
	}
	to := util.FormatWhatsAppAddress(payload.To)
	if to == "" {
		return nil, errors.New("twilio whatsapp provider: recipient is required")
	}
	if strings.TrimSpace(payload.Body) == "" {
		return nil, errors.New("twilio whatsapp provider: body is required")
	}

	from := util.FormatWhatsAppAddress(payload.From)
	if from == "" {
		from = p.defaultFrom
	}
	if from == "" {
		return nil, errors.New("twilio whatsapp provider: from number is required")
	}

	params := url.Values{}
	params.Set("To", to)
	params.Set("From", from)
	params.Set("Body", payload.Body)
	if cb := strings.TrimSpace(payload.StatusCallback); cb != "" {
		params.Set("StatusCallback", cb)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(p.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio whatsapp provider: new request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio whatsapp provider: http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := p.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	parsed := parseTwilioBody(body)
	raw := &RawResponse{
		ID:        parsed.SID,
		Code:      resp.StatusCode,
		Status:    parsed.Status,
		ErrorCode: parsed.ErrorCode,
		Body:      body,
		Timestamp: p.now(),
	}
	if raw.Status == "" {
		raw.Status = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.logger.Debug().
			Str("provider_id", raw.ID).
			Str("provider_status", raw.Status).
			Str("in_reply_to", payload.MessageID).
			Msg("twilio accepted whatsapp message")
		return raw, nil
	}

	message := parsed.Message
	if message == "" {
		message = strings.TrimSpace(body)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if parsed.ErrorCode > 0 {
		return raw, fmt.Errorf("twilio whatsapp provider: error %d: %s", parsed.ErrorCode, message)
	}
	return raw, fmt.Errorf("twilio whatsapp provider: http %d: %s", resp.StatusCode, message)
}

func (p *TwilioProvider) readBody(rc io.ReadCloser) (string, error) {
	if rc == nil {
		return "", nil
	}

	data, err := io.ReadAll(io.LimitReader(rc, p.maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("twilio whatsapp provider: read body: %w", err)
	}
	return string(data), nil
}

type twilioBody struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	ErrorCode int    `json:"code"`
	Message   string `json:"message"`
}

func parseTwilioBody(body string) twilioBody {
	if strings.TrimSpace(body) == "" {
		return twilioBody{}
	}

	var parsed twilioBody
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		return parsed
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return twilioBody{}
	}

	result := twilioBody{}
	if v, ok := generic["sid"].(string); ok {
		result.SID = v
	}
	if v, ok := generic["status"].(string); ok {
		result.Status = v
	}
	if v, ok := generic["code"]; ok {
		switch value := v.(type) {
		case float64:
			result.ErrorCode = int(value)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				result.ErrorCode = n
			}
		}
	}
	if v, ok := generic["message"].(string); ok {
		result.Message = v
	}
	return result
}
