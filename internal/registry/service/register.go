package service

import (
	"context"

	"idattest/internal/ledger"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	"idattest/pkg/requestcontext"
)

// RegisterIdentity binds owner to a platform account. The identity address is
// derived from (owner, platform), so a second registration for the pair fails
// with IdentityExists.
func (s *Service) RegisterIdentity(ctx context.Context, owner id.Pubkey, in models.RegisterInput) (*models.Receipt, error) {
	platform, err := validateRegistration(in.Metadata, in.Platform)
	if err != nil {
		return nil, s.reject(ctx, opRegister, err)
	}

	receipt, err := s.execute(ctx, opRegister, func(ctx context.Context, accts ledger.Accounts, r *models.Receipt) error {
		ident, err := s.register(ctx, accts, owner, platform, in.ProofHash, in.UsernameHash, in.Metadata)
		if err != nil {
			return err
		}
		r.Identity = ident
		r.Events = append(r.Events, registeredEvent(ident))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementActiveIdentities()
	return receipt, nil
}

// validateRegistration checks arguments in the order the registry reports
// them: metadata length, then platform.
func validateRegistration(metadata string, tag uint8) (models.Platform, error) {
	if err := models.ValidateMetadata(metadata); err != nil {
		return 0, err
	}
	return models.PlatformFromU8(tag)
}

// register writes a new identity and bumps the config counters.
func (s *Service) register(ctx context.Context, accts ledger.Accounts, owner id.Pubkey, platform models.Platform, proofHash, usernameHash id.Hash, metadata string) (*models.Identity, error) {
	cfg, cfgAddr, err := s.loadConfig(ctx, accts)
	if err != nil {
		return nil, err
	}
	identAddr, err := s.addrs.Identity(owner, platform)
	if err != nil {
		return nil, err
	}

	now := unixNow(ctx)
	ident, err := models.NewIdentity(owner, platform, proofHash, usernameHash, metadata, now, cfg.ExpiryFor(now), identAddr.Bump)
	if err != nil {
		return nil, err
	}
	data, err := models.EncodeIdentity(ident)
	if err != nil {
		return nil, err
	}
	if err := createAccount(ctx, accts, identAddr.Address, data, models.ErrIdentityExists); err != nil {
		return nil, err
	}

	cfg.ApplyRegistration()
	if err := saveConfig(ctx, accts, cfgAddr.Address, cfg); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "identity registered",
		"owner", owner.String(),
		"platform", platform.String(),
		"identity", identAddr.Address.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return ident, nil
}

func registeredEvent(ident *models.Identity) models.IdentityRegistered {
	return models.IdentityRegistered{
		Owner:      ident.Owner,
		Platform:   ident.Platform,
		ProofHash:  ident.ProofHash,
		VerifiedAt: ident.VerifiedAt,
	}
}
