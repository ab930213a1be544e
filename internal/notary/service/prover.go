package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"idattest/internal/notary/models"
)

// Prover turns a captured session transcript into opaque proof bytes.
type Prover interface {
	Prove(ctx context.Context, sessionID string, transcript []byte) ([]byte, error)
}

var (
	ErrEmptySession    = errors.New("session id is empty")
	ErrEmptyTranscript = errors.New("transcript is empty")
)

// DigestProverSize is the length of a DigestProver proof.
const DigestProverSize = 1 + sha256.Size + sha256.Size + 8

// DigestProver commits to the session and transcript without interpreting
// either: version || sha256(session_id) || sha256(transcript) || unix time (BE).
// It stands in for a transcript-capture engine.
type DigestProver struct {
	now func() time.Time
}

func NewDigestProver(now func() time.Time) *DigestProver {
	if now == nil {
		now = time.Now
	}
	return &DigestProver{now: now}
}

func (p *DigestProver) Prove(ctx context.Context, sessionID string, transcript []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, ErrEmptySession
	}
	if len(transcript) == 0 {
		return nil, ErrEmptyTranscript
	}
	session := sha256.Sum256([]byte(sessionID))
	digest := sha256.Sum256(transcript)

	proof := make([]byte, 0, DigestProverSize)
	proof = append(proof, models.ProofVersion)
	proof = append(proof, session[:]...)
	proof = append(proof, digest[:]...)
	proof = binary.BigEndian.AppendUint64(proof, uint64(p.now().Unix()))
	return proof, nil
}
