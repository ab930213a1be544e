// Package events carries committed registry events to subscribers: an
// in-process log, an async worker and a Kafka topic.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Named is any event payload with a stable name.
type Named interface {
	EventName() string
}

// Envelope is the transport form of one event.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	TxID      string          `json:"tx_id"`
	Name      string          `json:"name"`
	Program   string          `json:"program"`
	EmittedAt time.Time       `json:"emitted_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Wrap marshals each event into an envelope sharing txID, program and time.
// Order is preserved.
func Wrap(txID, program string, emittedAt time.Time, evs ...Named) ([]Envelope, error) {
	out := make([]Envelope, 0, len(evs))
	for _, ev := range evs {
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("marshal %s event: %w", ev.EventName(), err)
		}
		out = append(out, Envelope{
			ID:        uuid.New(),
			TxID:      txID,
			Name:      ev.EventName(),
			Program:   program,
			EmittedAt: emittedAt.UTC(),
			Payload:   payload,
		})
	}
	return out, nil
}
