package common

// DefaultRawBodyLimit defines the maximum number of characters retained from a
// provider response body when attaching it to a ProviderResponse.
const DefaultRawBodyLimit = 1024

// ProviderResponse captures normalized provider information returned by
// delivery adapters.
type ProviderResponse struct {
	Status  string            `json:"status"`
	Code    *int              `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Raw     string            `json:"raw,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}
