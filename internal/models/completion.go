package models

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// InlineImage is an image reference embedded in a user message, usually a
// base64 data URL.
type InlineImage struct {
	URL string
}

// ChatMessage is one entry of a completion request.
type ChatMessage struct {
	Role    Role
	Content string
	Image   *InlineImage
}

// CompletionRequest is the ordered message sequence sent to the completion
// capability: the persona as system entry followed by a single user entry.
type CompletionRequest struct {
	Messages []ChatMessage
}

// UserContent returns the text of the last user entry.
func (r CompletionRequest) UserContent() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Route names the processing path the pipeline took for a message.
type Route string

const (
	RouteText       Route = "text"
	RouteAudio      Route = "audio"
	RouteImage      Route = "image"
	RouteSuppressed Route = "suppressed"
	RouteInvalid    Route = "invalid"
)

// Reply is the outcome of one pipeline invocation.
type Reply struct {
	Body      string
	Route     Route
	MessageID string
	// To is the original sender, From the number the message was sent to.
	To   string
	From string
}
