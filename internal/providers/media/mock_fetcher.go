package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/example/whatsapp-ai-responder/internal/models"
)

// MockFetcher serves media from memory. Unknown URLs fail.
type MockFetcher struct {
	mu    sync.Mutex
	items map[string]models.FetchedMedia
	err   error
	calls []string
}

// NewMockFetcher constructs an empty mock fetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{items: make(map[string]models.FetchedMedia)}
}

// Add registers content for url.
func (m *MockFetcher) Add(url string, data []byte, mimeType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[url] = models.FetchedMedia{Data: append([]byte(nil), data...), MIMEType: mimeType}
}

// FailWith makes every subsequent Fetch return err.
func (m *MockFetcher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the URLs requested so far.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Fetch implements Fetcher.
func (m *MockFetcher) Fetch(ctx context.Context, mediaURL, declaredMIME string) (*models.FetchedMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mediaURL)
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[mediaURL]
	if !ok {
		return nil, fmt.Errorf("media mock: %w", errors.New("not found: "+mediaURL))
	}
	if strings.TrimSpace(declaredMIME) != "" {
		item.MIMEType = declaredMIME
	}
	return &item, nil
}
