// Package worker runs the reply pipeline off the request path when replies
// are delivered through the Messages API instead of TwiML.
package worker

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	common "github.com/example/whatsapp-ai-responder/internal/adapters/common"
	"github.com/example/whatsapp-ai-responder/internal/kafka/publisher"
	"github.com/example/whatsapp-ai-responder/internal/models"
)

const defaultJobTimeout = 2 * time.Minute

// ErrClosed is returned by Dispatch after Shutdown has begun.
var ErrClosed = errors.New("worker: dispatcher is shutting down")

// Responder produces a reply for one webhook payload.
type Responder interface {
	Respond(ctx context.Context, payload map[string]string) models.Reply
}

// Sender delivers a reply to the sender of the inbound message.
type Sender interface {
	Send(ctx context.Context, reply models.Reply) (*common.ProviderResponse, error)
}

// Config contains the dispatcher runtime settings.
type Config struct {
	Concurrency int
	JobTimeout  time.Duration
}

// Dependencies groups the dispatcher collaborators. StatusSink is optional.
type Dependencies struct {
	Responder  Responder
	Sender     Sender
	StatusSink publisher.StatusSink
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Dispatcher runs pipeline invocations in the background, bounded by a
// semaphore, and sends non-empty replies.
type Dispatcher struct {
	cfg        Config
	responder  Responder
	sender     Sender
	statusSink publisher.StatusSink
	logger     zerolog.Logger
	now        func() time.Time

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher validates the configuration and collaborators.
func NewDispatcher(cfg Config, deps Dependencies) (*Dispatcher, error) {
	if cfg.Concurrency < 1 {
		return nil, errors.New("worker: concurrency must be >= 1")
	}
	if deps.Responder == nil {
		return nil, errors.New("worker: responder dependency is required")
	}
	if deps.Sender == nil {
		return nil, errors.New("worker: sender dependency is required")
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:        cfg,
		responder:  deps.Responder,
		sender:     deps.Sender,
		statusSink: deps.StatusSink,
		logger:     logger,
		now:        now,
		sem:        semaphore.NewWeighted(int64(cfg.Concurrency)),
		baseCtx:    ctx,
		cancel:     cancel,
	}, nil
}

// Dispatch waits for a free slot, bounded by ctx, then processes the payload
// in the background. The job outlives ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, payload map[string]string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.logger.Error().Err(err).Msg("worker: failed to acquire dispatch slot")
		return err
	}

	d.wg.Add(1)
	go d.process(maps.Clone(payload))
	return nil
}

func (d *Dispatcher) process(payload map[string]string) {
	defer d.wg.Done()
	defer d.sem.Release(1)

	ctx, cancel := context.WithTimeout(d.baseCtx, d.cfg.JobTimeout)
	defer cancel()

	reply := d.responder.Respond(ctx, payload)
	log := d.logger.With().Str("in_reply_to", reply.MessageID).Str("route", string(reply.Route)).Logger()

	if reply.Body == "" {
		log.Info().Msg("worker: empty reply, nothing to send")
		return
	}
	if reply.To == "" {
		log.Warn().Msg("worker: reply has no recipient, dropping")
		return
	}

	resp, err := d.sender.Send(ctx, reply)
	if err != nil {
		log.Error().
			Err(err).
			Bool("transient", errors.Is(err, common.ErrTransient)).
			Msg("worker: reply delivery failed")
		return
	}

	if d.statusSink == nil || resp == nil {
		return
	}
	event := models.StatusEvent{
		MessageID: resp.Meta["provider_id"],
		Status:    models.StatusQueued,
		To:        reply.To,
		From:      reply.From,
		Timestamp: d.now().UTC(),
	}
	if err := d.statusSink.PublishStatus(ctx, event); err != nil {
		log.Error().Err(err).Msg("worker: failed to publish status event")
	}
}

// Shutdown stops accepting work and waits for in-flight jobs. When ctx ends
// first, in-flight jobs are cancelled and ctx's error is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
