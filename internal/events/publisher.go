package events

import (
	"context"
	"errors"
)

// Publisher delivers envelopes of one committed transaction.
type Publisher interface {
	Publish(ctx context.Context, envs ...Envelope) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, envs ...Envelope) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, envs...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, ...Envelope) error { return nil }
