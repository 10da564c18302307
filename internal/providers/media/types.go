package media

import (
	"context"
	"errors"
	"net/http"

	"github.com/example/whatsapp-ai-responder/internal/models"
)

// ErrMissingCredentials is returned before any request is made when the
// account SID or auth token is not configured.
var ErrMissingCredentials = errors.New("media fetcher: twilio credentials are not configured")

// ErrTooLarge is returned when the media body exceeds the configured limit.
var ErrTooLarge = errors.New("media fetcher: media exceeds size limit")

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves attachment bytes from the provider's media store.
type Fetcher interface {
	Fetch(ctx context.Context, mediaURL, declaredMIME string) (*models.FetchedMedia, error)
}
