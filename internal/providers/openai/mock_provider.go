package openai

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/models"
)

// Scenario enumerates supported behaviours for the mock AI provider.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"
	ScenarioEmpty     Scenario = "empty"
)

// MockOption customises the mock provider at construction time.
type MockOption func(*MockProvider)

// WithScenario sets the behaviour of chat and transcription calls.
func WithScenario(s Scenario) MockOption {
	return func(p *MockProvider) {
		p.chatScenario = s
		p.transcriptionScenario = s
	}
}

// WithChatScenario sets the behaviour of chat calls only.
func WithChatScenario(s Scenario) MockOption {
	return func(p *MockProvider) {
		p.chatScenario = s
	}
}

// WithTranscriptionScenario sets the behaviour of transcription calls only.
func WithTranscriptionScenario(s Scenario) MockOption {
	return func(p *MockProvider) {
		p.transcriptionScenario = s
	}
}

// WithLatency sets the artificial latency inserted before responding.
func WithLatency(d time.Duration) MockOption {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithReply derives the chat reply from the request.
func WithReply(fn func(*ChatRequest) string) MockOption {
	return func(p *MockProvider) {
		if fn != nil {
			p.reply = fn
		}
	}
}

// WithTranscript fixes the transcript returned on success.
func WithTranscript(text string) MockOption {
	return func(p *MockProvider) {
		p.transcript = text
	}
}

// MockProvider is a deterministic stand-in for the AI capabilities. It
// records every request it receives.
type MockProvider struct {
	logger                zerolog.Logger
	chatScenario          Scenario
	transcriptionScenario Scenario
	latency               time.Duration
	reply                 func(*ChatRequest) string
	transcript            string

	mu             sync.Mutex
	chatCalls      []ChatRequest
	transcriptions []TranscriptionRequest
}

// NewMockProvider constructs a mock provider that echoes the user content.
func NewMockProvider(logger zerolog.Logger, opts ...MockOption) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:                logger,
		chatScenario:          ScenarioSuccess,
		transcriptionScenario: ScenarioSuccess,
		transcript:            "mensaje de voz de prueba",
		reply: func(req *ChatRequest) string {
			for i := len(req.Messages) - 1; i >= 0; i-- {
				if req.Messages[i].Role == models.RoleUser {
					return "mock: " + req.Messages[i].Content
				}
			}
			return "mock"
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Chat implements ChatProvider.
func (p *MockProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, errors.New("openai mock: chat request is required")
	}
	p.mu.Lock()
	p.chatCalls = append(p.chatCalls, *req)
	p.mu.Unlock()

	if err := p.wait(ctx, p.chatScenario); err != nil {
		return nil, err
	}
	switch p.chatScenario {
	case ScenarioSuccess:
		return &ChatResponse{ID: "mock-chat", Model: req.Model, Content: p.reply(req), FinishReason: "stop"}, nil
	case ScenarioEmpty:
		return &ChatResponse{ID: "mock-chat", Model: req.Model, FinishReason: "stop"}, nil
	default:
		return nil, scenarioError("chat", p.chatScenario)
	}
}

// Transcribe implements TranscriptionProvider.
func (p *MockProvider) Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error) {
	if req == nil {
		return "", errors.New("openai mock: transcription request is required")
	}
	p.mu.Lock()
	p.transcriptions = append(p.transcriptions, *req)
	p.mu.Unlock()

	if err := p.wait(ctx, p.transcriptionScenario); err != nil {
		return "", err
	}
	switch p.transcriptionScenario {
	case ScenarioSuccess:
		return p.transcript, nil
	case ScenarioEmpty:
		return "", nil
	default:
		return "", scenarioError("transcription", p.transcriptionScenario)
	}
}

// ChatCalls returns a copy of the recorded chat requests.
func (p *MockProvider) ChatCalls() []ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ChatRequest(nil), p.chatCalls...)
}

// TranscriptionCalls returns a copy of the recorded transcription requests.
func (p *MockProvider) TranscriptionCalls() []TranscriptionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TranscriptionRequest(nil), p.transcriptions...)
}

func (p *MockProvider) wait(ctx context.Context, scenario Scenario) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if scenario == ScenarioTimeout {
		<-ctx.Done()
		return ctx.Err()
	}
	if p.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func scenarioError(call string, s Scenario) error {
	switch s {
	case ScenarioTransient:
		return fmt.Errorf("openai mock %s transient error: rate limited", call)
	case ScenarioPermanent:
		return fmt.Errorf("openai mock %s permanent error: invalid request", call)
	default:
		return fmt.Errorf("openai mock %s unknown scenario: %s", call, s)
	}
}
