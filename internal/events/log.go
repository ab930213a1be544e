package events

import (
	"context"
	"sync"
)

const defaultLogCapacity = 1024

// Log keeps the most recent envelopes in memory, oldest first.
type Log struct {
	mu       sync.RWMutex
	capacity int
	entries  []Envelope
}

// NewLog creates a log that retains at most capacity envelopes.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &Log{capacity: capacity}
}

func (l *Log) Publish(_ context.Context, envs ...Envelope) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, envs...)
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append([]Envelope(nil), l.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit of the newest envelopes, oldest first.
// A non-positive limit returns everything retained.
func (l *Log) Recent(limit int) []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := 0
	if limit > 0 && len(l.entries) > limit {
		start = len(l.entries) - limit
	}
	out := make([]Envelope, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// ByTx returns the envelopes of one transaction in emission order.
func (l *Log) ByTx(txID string) []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Envelope
	for _, env := range l.entries {
		if env.TxID == txID {
			out = append(out, env)
		}
	}
	return out
}
