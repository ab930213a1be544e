package service

import (
	"context"
	"log/slog"
	"time"

	"idattest/internal/notary/metrics"
	"idattest/internal/notary/models"
	id "idattest/pkg/domain"
	"idattest/pkg/requestcontext"
)

// Service produces signed proofs. The signer and prover are injected and are
// the only state shared between requests.
type Service struct {
	signer  Signer
	prover  Prover
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(signer Signer, prover Prover, opts ...Option) *Service {
	s := &Service{
		signer: signer,
		prover: prover,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notarize proves the transcript and signs the proof. Any failure yields
// models.ErrNotarizeFailed and no partial attestation.
func (s *Service) Notarize(ctx context.Context, sessionID string, transcript []byte) (*models.Attestation, error) {
	start := time.Now()
	requestID := requestcontext.RequestID(ctx)

	proof, err := s.prover.Prove(ctx, sessionID, transcript)
	if err != nil {
		s.logger.WarnContext(ctx, "transcript processing failed",
			"request_id", requestID,
			"transcript_bytes", len(transcript),
			"error", err,
		)
		s.metrics.ObserveNotarize("prove_failed", 0, time.Since(start))
		return nil, models.ErrNotarizeFailed
	}

	sig, err := s.signer.Sign(proof)
	if err != nil {
		s.logger.ErrorContext(ctx, "signing proof failed",
			"request_id", requestID,
			"error", err,
		)
		s.metrics.ObserveNotarize("sign_failed", 0, time.Since(start))
		return nil, models.ErrNotarizeFailed
	}

	s.metrics.ObserveNotarize("ok", len(proof), time.Since(start))
	s.logger.InfoContext(ctx, "transcript notarized",
		"request_id", requestID,
		"proof_bytes", len(proof),
	)
	return &models.Attestation{
		Proof:        proof,
		Signature:    sig,
		NotaryPubkey: s.signer.Pubkey(),
	}, nil
}

// Pubkey is stable for the life of the process.
func (s *Service) Pubkey() id.Pubkey {
	return s.signer.Pubkey()
}
