package openai

import (
	"context"

	"github.com/example/whatsapp-ai-responder/internal/models"
)

// ImageDetailLow asks the model to process inline images at low resolution.
const ImageDetailLow = "low"

// ChatRequest is one chat completion call.
type ChatRequest struct {
	Model       string
	Messages    []models.ChatMessage
	MaxTokens   int
	Temperature float64
	ImageDetail string
}

// ChatResponse carries the first choice of a completion.
type ChatResponse struct {
	ID           string
	Model        string
	Content      string
	FinishReason string
}

// TranscriptionRequest is one speech-to-text call.
type TranscriptionRequest struct {
	Model    string
	Language string
	Filename string
	MIMEType string
	Audio    []byte
}

// ChatProvider performs chat completions.
type ChatProvider interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// TranscriptionProvider turns audio into text.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error)
}
