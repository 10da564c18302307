package whatsapp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	waprovider "github.com/example/whatsapp-ai-responder/internal/providers/whatsapp"
)

func TestMockProviderSuccess(t *testing.T) {
	fixed := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	provider := waprovider.NewMockProvider(zerolog.Nop(), waprovider.WithClock(func() time.Time { return fixed }), waprovider.WithLatency(0))

	resp, err := provider.Send(context.Background(), &waprovider.Payload{To: "+5215512345678", Body: "hola"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Status != "queued" || resp.ID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Timestamp != fixed {
		t.Fatalf("expected fixed timestamp, got %v", resp.Timestamp)
	}
	if len(provider.Sent()) != 1 {
		t.Fatalf("expected message to be recorded")
	}
}

func TestMockProviderScenarioOverride(t *testing.T) {
	provider := waprovider.NewMockProvider(zerolog.Nop(), waprovider.WithLatency(0))

	resp, err := provider.Send(context.Background(), &waprovider.Payload{
		To:   "+5215512345678",
		Body: "hola",
		Meta: map[string]string{"scenario": string(waprovider.ScenarioPermanent)},
	})
	if err == nil {
		t.Fatalf("expected error for permanent scenario")
	}
	if resp.ErrorCode != 21211 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(provider.Sent()) != 0 {
		t.Fatalf("failed sends must not be recorded")
	}
}

func TestMockProviderTimeoutRespectsContext(t *testing.T) {
	provider := waprovider.NewMockProvider(zerolog.Nop(), waprovider.WithScenario(waprovider.ScenarioTimeout), waprovider.WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Send(ctx, &waprovider.Payload{To: "+5215512345678", Body: "hola"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
