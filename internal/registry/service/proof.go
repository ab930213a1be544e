package service

import (
	"context"

	"idattest/internal/ledger"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	"idattest/pkg/requestcontext"
)

// VerifyProof checks a notary signature over proof bytes against the notary
// key at NotaryIndex. It reads the config and writes nothing.
func (s *Service) VerifyProof(ctx context.Context, verifier id.Pubkey, in models.ProofInput) (*models.Receipt, error) {
	if int(in.NotaryIndex) >= models.NotaryCount {
		return nil, s.reject(ctx, opVerifyProof, models.ErrInvalidNotaryIndex)
	}

	return s.execute(ctx, opVerifyProof, func(ctx context.Context, accts ledger.Accounts, r *models.Receipt) error {
		cfg, _, err := s.loadConfig(ctx, accts)
		if err != nil {
			return err
		}
		if err := s.checkProof(cfg, in); err != nil {
			return err
		}
		r.Config = cfg
		r.Events = append(r.Events, models.ProofVerified{
			Verifier:    verifier,
			NotaryIndex: in.NotaryIndex,
			Timestamp:   unixNow(ctx),
		})
		return nil
	})
}

// Attest verifies a notary proof and registers the identity it backs in one
// transaction, recording a Verification audit account next to the identity.
// The proof hash is computed from the proof bytes. A bad signature leaves the
// ledger untouched.
func (s *Service) Attest(ctx context.Context, owner id.Pubkey, in models.AttestInput) (*models.Receipt, error) {
	platform, err := validateRegistration(in.Metadata, in.Platform)
	if err != nil {
		return nil, s.reject(ctx, opAttest, err)
	}
	if int(in.Proof.NotaryIndex) >= models.NotaryCount {
		return nil, s.reject(ctx, opAttest, models.ErrInvalidNotaryIndex)
	}

	receipt, err := s.execute(ctx, opAttest, func(ctx context.Context, accts ledger.Accounts, r *models.Receipt) error {
		cfg, _, err := s.loadConfig(ctx, accts)
		if err != nil {
			return err
		}
		if err := s.checkProof(cfg, in.Proof); err != nil {
			return err
		}

		proofHash := models.HashProof(in.Proof.ProofData)
		ident, err := s.register(ctx, accts, owner, platform, proofHash, in.UsernameHash, in.Metadata)
		if err != nil {
			return err
		}

		identAddr, err := s.addrs.Identity(owner, platform)
		if err != nil {
			return err
		}
		verAddr, err := s.addrs.Verification(identAddr.Address)
		if err != nil {
			return err
		}
		ver := &models.Verification{
			Identity:        identAddr.Address,
			Verifier:        owner,
			ProofHash:       proofHash,
			NotarySignature: in.Proof.Signature,
			VerifiedAt:      ident.VerifiedAt,
			Bump:            verAddr.Bump,
		}
		data, err := models.EncodeVerification(ver)
		if err != nil {
			return err
		}
		if err := createAccount(ctx, accts, verAddr.Address, data, models.ErrIdentityExists); err != nil {
			return err
		}

		r.Identity = ident
		r.Verification = ver
		r.Events = append(r.Events,
			models.ProofVerified{
				Verifier:    owner,
				NotaryIndex: in.Proof.NotaryIndex,
				Timestamp:   ident.VerifiedAt,
			},
			registeredEvent(ident),
		)
		s.logger.InfoContext(ctx, "identity attested",
			"owner", owner.String(),
			"platform", platform.String(),
			"notary_index", in.Proof.NotaryIndex,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementActiveIdentities()
	return receipt, nil
}

func (s *Service) checkProof(cfg *models.Config, in models.ProofInput) error {
	notary, err := cfg.Notary(in.NotaryIndex)
	if err != nil {
		return err
	}
	if !s.verifier.Verify(in.ProofData, in.Signature, notary) {
		return models.ErrInvalidSignature
	}
	return nil
}
