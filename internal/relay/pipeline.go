package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/hexrelay/internal/observability"
	"github.com/danmuck/hexrelay/internal/protocol"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

const DefaultWorkers = 8

// submitRetryInterval is how long Submit waits for a free worker before
// offering the message again.
const submitRetryInterval = 5 * time.Millisecond

var ErrPipelineClosed = errors.New("relay: pipeline closed")

// Pipeline decodes bus messages on a bounded worker pool and publishes the
// resulting envelopes to a hub.
type Pipeline struct {
	hub    *Hub
	pool   *ants.Pool
	logger zerolog.Logger
}

func NewPipeline(hub *Hub, workers int, logger zerolog.Logger) (*Pipeline, error) {
	if hub == nil {
		return nil, errors.New("relay: pipeline requires a hub")
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			logger.Error().Interface("panic", v).Msg("relay_decode panic")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("relay: create worker pool: %w", err)
	}
	return &Pipeline{hub: hub, pool: pool, logger: logger}, nil
}

// Submit queues msg for decoding. While every worker is busy it waits for
// one to free up, giving up with the ctx error once ctx is done.
func (p *Pipeline) Submit(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}
	task := func() {
		p.Process(msg)
	}

	var retry *time.Timer
	for {
		err := p.pool.Submit(task)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ants.ErrPoolClosed):
			return ErrPipelineClosed
		case !errors.Is(err, ants.ErrPoolOverload):
			return err
		}

		if retry == nil {
			retry = time.NewTimer(submitRetryInterval)
			defer retry.Stop()
		} else {
			retry.Reset(submitRetryInterval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry.C:
		}
	}
}

// Process decodes msg, publishes the envelope and returns it.
func (p *Pipeline) Process(msg Message) Envelope {
	env, errs := NewEnvelope(msg)
	for _, err := range errs {
		kind := protocol.KindOf(err)
		observability.RecordDecodeError(string(kind))
		p.logger.Warn().
			Err(err).
			Str("topic", msg.Topic).
			Str("kind", string(kind)).
			Msg("relay_decode frame failed")
	}
	observability.RecordRelayMessage(len(env.Frames), len(errs))

	delivered := p.hub.Publish(env)
	p.logger.Debug().
		Str("topic", msg.Topic).
		Str("envelope", env.ID).
		Int("frames", len(env.Frames)).
		Int("failures", len(errs)).
		Int("delivered", delivered).
		Msg("relay_decode")
	return env
}

// Running reports the number of workers currently decoding.
func (p *Pipeline) Running() int {
	return p.pool.Running()
}

// Close stops accepting messages and waits up to timeout for in-flight work.
func (p *Pipeline) Close(timeout time.Duration) error {
	return p.pool.ReleaseTimeout(timeout)
}
