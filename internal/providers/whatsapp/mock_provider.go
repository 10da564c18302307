package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Scenario enumerates supported behaviours for the mock WhatsApp provider.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"
)

// Option customises the mock provider at construction time.
type Option func(*MockProvider)

// WithScenario overrides the default scenario.
func WithScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithLatency sets the artificial latency inserted before responding.
func WithLatency(d time.Duration) Option {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithClock swaps out the clock for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider accepts messages without network access and remembers them.
// A "scenario" meta entry overrides the default scenario per message.
type MockProvider struct {
	logger          zerolog.Logger
	defaultScenario Scenario
	latency         time.Duration
	now             func() time.Time
	seq             atomic.Int64

	mu   sync.Mutex
	sent []Payload
}

// NewMockProvider constructs a new mock WhatsApp provider.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		latency:         25 * time.Millisecond,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send simulates sending a WhatsApp message.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("whatsapp mock: payload is required")
	}
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("whatsapp mock: recipient is required")
	}

	if err := p.sleep(ctx, p.latency); err != nil {
		return nil, err
	}

	scenario := p.defaultScenario
	if val, ok := payload.Meta["scenario"]; ok && strings.TrimSpace(val) != "" {
		scenario = Scenario(strings.ToLower(strings.TrimSpace(val)))
	}

	resp := &RawResponse{
		ID:        fmt.Sprintf("SMmock%06d", p.seq.Add(1)),
		Code:      201,
		Status:    "queued",
		Body:      "mock: message queued",
		Timestamp: p.now(),
	}

	switch scenario {
	case ScenarioSuccess:
		p.mu.Lock()
		p.sent = append(p.sent, *payload)
		p.mu.Unlock()
		p.logger.Debug().Str("provider_id", resp.ID).Str("to", payload.To).Msg("mock whatsapp message queued")
		return resp, nil
	case ScenarioTransient:
		resp.Code = 429
		resp.Status = "transient_failure"
		resp.ErrorCode = 20429
		resp.Body = `{"code":20429,"message":"Too Many Requests"}`
		return resp, errors.New("whatsapp mock transient error: rate limited")
	case ScenarioPermanent:
		resp.Code = 400
		resp.Status = "permanent_failure"
		resp.ErrorCode = 21211
		resp.Body = `{"code":21211,"message":"Invalid 'To' Phone Number"}`
		return resp, errors.New("whatsapp mock permanent error: invalid recipient")
	case ScenarioTimeout:
		if err := p.sleep(ctx, p.latency); err != nil {
			return resp, err
		}
		return resp, errors.New("whatsapp mock timeout")
	default:
		resp.Status = "unknown"
		resp.Body = "mock: unknown scenario"
		return resp, fmt.Errorf("whatsapp mock unknown scenario: %s", scenario)
	}
}

// Sent returns the messages accepted so far.
func (p *MockProvider) Sent() []Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Payload(nil), p.sent...)
}

func (p *MockProvider) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
