package events

import (
	"context"
	"errors"
	"log/slog"

	"idattest/pkg/platform/circuit"
)

// ErrSinkUnavailable is returned while the breaker keeps a sink out of use.
var ErrSinkUnavailable = errors.New("events: sink circuit open")

// Guarded wraps a slow or flaky sink with a circuit breaker so an outage
// costs one probe per cooldown instead of one timeout per batch.
type Guarded struct {
	sink    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(sink Publisher, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{sink: sink, breaker: breaker, logger: logger}
}

func (g *Guarded) Publish(ctx context.Context, envs ...Envelope) error {
	if !g.breaker.Allow() {
		return ErrSinkUnavailable
	}
	if err := g.sink.Publish(ctx, envs...); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "event sink circuit opened",
				"sink", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "event sink circuit closed", "sink", g.breaker.Name())
	}
	return nil
}
