package openai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/models"
	"github.com/example/whatsapp-ai-responder/internal/providers/openai"
)

func TestMockProviderEchoesUserContent(t *testing.T) {
	p := openai.NewMockProvider(zerolog.Nop(), openai.WithLatency(0))

	resp, err := p.Chat(context.Background(), &openai.ChatRequest{
		Messages: []models.ChatMessage{{Role: models.RoleSystem, Content: "persona"}, {Role: models.RoleUser, Content: "Hola"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock: Hola" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if len(p.ChatCalls()) != 1 {
		t.Fatalf("expected one recorded call")
	}
}

func TestMockProviderScenarios(t *testing.T) {
	p := openai.NewMockProvider(zerolog.Nop(),
		openai.WithChatScenario(openai.ScenarioPermanent),
		openai.WithTranscriptionScenario(openai.ScenarioEmpty),
	)

	if _, err := p.Chat(context.Background(), &openai.ChatRequest{}); err == nil {
		t.Fatalf("expected permanent failure")
	}
	text, err := p.Transcribe(context.Background(), &openai.TranscriptionRequest{Audio: []byte("x")})
	if err != nil || text != "" {
		t.Fatalf("expected empty transcript, got %q %v", text, err)
	}
}

func TestMockProviderTimeoutHonoursContext(t *testing.T) {
	p := openai.NewMockProvider(zerolog.Nop(), openai.WithScenario(openai.ScenarioTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Transcribe(ctx, &openai.TranscriptionRequest{Audio: []byte("x")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
