package events

import (
	"context"
	"log/slog"
)

const defaultQueueSize = 256

// Queue is a Publisher that hands batches to a Worker over a buffered channel,
// so slow sinks never hold up a committed operation.
type Queue struct {
	ch     chan []Envelope
	logger *slog.Logger
}

func NewQueue(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{ch: make(chan []Envelope, size), logger: logger}
}

// Publish enqueues without blocking. A full queue drops the batch and logs it;
// the ledger remains the source of truth.
func (q *Queue) Publish(ctx context.Context, envs ...Envelope) error {
	if len(envs) == 0 {
		return nil
	}
	select {
	case q.ch <- envs:
	default:
		q.logger.WarnContext(ctx, "event queue full, dropping batch",
			"tx_id", envs[0].TxID,
			"events", len(envs),
		)
	}
	return nil
}

// Worker consumes batches from a Queue and forwards them to a sink.
type Worker struct {
	sink   Publisher
	inbox  <-chan []Envelope
	logger *slog.Logger
}

func NewWorker(sink Publisher, q *Queue) *Worker {
	return &Worker{sink: sink, inbox: q.ch, logger: q.logger}
}

// Run forwards until ctx is done. Sink failures are logged, not retried.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-w.inbox:
			if err := w.sink.Publish(ctx, batch...); err != nil {
				w.logger.ErrorContext(ctx, "failed to publish events",
					"tx_id", batch[0].TxID,
					"error", err,
				)
			}
		}
	}
}
