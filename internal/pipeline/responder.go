// Package pipeline turns one inbound webhook payload into one bounded reply.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	common "github.com/example/whatsapp-ai-responder/internal/adapters/common"
	"github.com/example/whatsapp-ai-responder/internal/adapters/vision"
	"github.com/example/whatsapp-ai-responder/internal/inbound"
	"github.com/example/whatsapp-ai-responder/internal/models"
	"github.com/example/whatsapp-ai-responder/internal/util"
)

// Transcriber converts an audio attachment into text.
type Transcriber interface {
	Transcribe(ctx context.Context, att models.Attachment) (string, error)
}

// Describer produces a short description of an image attachment.
type Describer interface {
	Describe(ctx context.Context, att models.Attachment) (*vision.Result, error)
}

// Completer generates reply text from a composed request.
type Completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (string, error)
}

// Option customises the responder.
type Option func(*Responder)

// WithImagePolicy sets the router's image policy.
func WithImagePolicy(policy string) Option {
	return func(r *Responder) {
		r.router = NewRouter(policy)
	}
}

// WithDescriber enables the vision path collaborator.
func WithDescriber(d Describer) Option {
	return func(r *Responder) {
		if d != nil {
			r.describer = d
		}
	}
}

// WithPersona overrides the system instruction.
func WithPersona(persona string) Option {
	return func(r *Responder) {
		r.composer = NewComposer(persona)
	}
}

// WithIDGenerator swaps the request id source for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(r *Responder) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Responder runs the full pipeline. It holds no per-request state and is
// safe for concurrent use.
type Responder struct {
	logger      zerolog.Logger
	router      Router
	composer    Composer
	transcriber Transcriber
	describer   Describer
	completer   Completer
	newID       func() string
}

// NewResponder wires the pipeline. A describer is required only when the
// image policy enables the vision path.
func NewResponder(transcriber Transcriber, completer Completer, logger zerolog.Logger, opts ...Option) (*Responder, error) {
	if transcriber == nil {
		return nil, errors.New("pipeline: transcriber dependency is required")
	}
	if completer == nil {
		return nil, errors.New("pipeline: completer dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	r := &Responder{
		logger:      logger,
		router:      NewRouter(""),
		composer:    NewComposer(""),
		transcriber: transcriber,
		completer:   completer,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.router.DescribesImages() && r.describer == nil {
		return nil, errors.New("pipeline: describer dependency is required when images are described")
	}
	return r, nil
}

// Respond always produces a reply. Invalid payloads get DefaultReply,
// suppressed images an empty body, and any failure past validation
// FallbackReply.
func (r *Responder) Respond(ctx context.Context, payload map[string]string) (reply models.Reply) {
	log := r.logger.With().Str("request_id", r.newID()).Logger()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("pipeline panicked")
			reply.Body = FallbackReply
		}
		log.Info().
			Str("route", string(reply.Route)).
			Str("message_sid", reply.MessageID).
			Int("reply_chars", len([]rune(reply.Body))).
			Dur("elapsed", time.Since(start)).
			Msg("pipeline finished")
	}()

	msg, err := inbound.Normalize(payload)
	if err != nil {
		log.Warn().Err(err).Msg("invalid webhook payload")
		return models.Reply{Body: DefaultReply, Route: models.RouteInvalid}
	}

	reply = models.Reply{MessageID: msg.ID, To: msg.From, From: msg.To}
	log = log.With().Str("message_sid", msg.ID).Str("from", msg.From).Logger()
	log.Info().
		Str("profile_name", msg.ProfileName).
		Int("num_media", len(msg.Attachments)).
		Str("body", util.Preview(msg.Body, 120)).
		Msg("message received")

	decision := r.router.Route(msg)
	reply.Route = decision.Route
	log.Debug().Stringer("decision", decision).Msg("route selected")

	input := UserInput{Body: msg.Body}
	var image *models.InlineImage

	switch decision.Route {
	case models.RouteSuppressed:
		log.Info().Str("mime_type", decision.Attachment.MIMEType).Msg("image attachment ignored")
		return reply
	case models.RouteAudio:
		transcript, err := r.transcriber.Transcribe(ctx, decision.Attachment)
		if err != nil {
			log.Warn().Err(err).Bool("recoverable", errors.Is(err, common.ErrRecoverable)).Msg("using audio failure content")
			input.AudioFailed = true
		} else {
			input.Transcript = transcript
		}
	case models.RouteImage:
		res, err := r.describer.Describe(ctx, decision.Attachment)
		if err != nil {
			log.Warn().Err(err).Msg("using fallback image description")
			input.ImageDescription = vision.FallbackDescription
		} else {
			input.ImageDescription = res.Description
			image = res.Image
		}
	}

	req := r.composer.Compose(r.composer.UserContent(input), image)

	text, err := r.completer.Complete(ctx, req)
	if err != nil {
		evt := log.Error().Err(err)
		if userMsg, ok := common.UserMessage(err); ok {
			evt = evt.Str("adapter_message", userMsg)
		}
		evt.Msg("completion failed, sending fallback reply")
		reply.Body = FallbackReply
		return reply
	}

	if strings.TrimSpace(text) == "" {
		log.Warn().Msg("blank completion, sending default reply")
		text = DefaultReply
	}
	reply.Body = Finalize(text)
	return reply
}

// String renders the decision for logs.
func (d Decision) String() string {
	if d.Attachment.URL == "" {
		return string(d.Route)
	}
	return fmt.Sprintf("%s(%s)", d.Route, d.Attachment.MIMEType)
}
