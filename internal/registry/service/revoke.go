package service

import (
	"context"

	"idattest/internal/ledger"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	"idattest/pkg/requestcontext"
)

// RevokeIdentity tombstones owner's identity on platform. Only the owner may
// revoke, and only once: the global verification counter drops exactly once
// per identity.
func (s *Service) RevokeIdentity(ctx context.Context, signer, owner id.Pubkey, tag uint8) (*models.Receipt, error) {
	platform, err := models.PlatformFromU8(tag)
	if err != nil {
		return nil, s.reject(ctx, opRevoke, err)
	}

	receipt, err := s.execute(ctx, opRevoke, func(ctx context.Context, accts ledger.Accounts, r *models.Receipt) error {
		ident, identAddr, err := s.loadIdentity(ctx, accts, owner, platform)
		if err != nil {
			return err
		}
		if err := ident.CanRevoke(signer); err != nil {
			return err
		}
		cfg, cfgAddr, err := s.loadConfig(ctx, accts)
		if err != nil {
			return err
		}
		if err := cfg.ApplyRevocation(); err != nil {
			return err
		}
		ident.ApplyRevocation()

		if err := saveIdentity(ctx, accts, identAddr.Address, ident); err != nil {
			return err
		}
		if err := saveConfig(ctx, accts, cfgAddr.Address, cfg); err != nil {
			return err
		}

		r.Identity = ident
		r.Config = cfg
		r.Events = append(r.Events, models.IdentityRevoked{
			Owner:     ident.Owner,
			Platform:  ident.Platform,
			RevokedAt: unixNow(ctx),
		})
		s.logger.InfoContext(ctx, "identity revoked",
			"owner", owner.String(),
			"platform", platform.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.DecrementActiveIdentities()
	return receipt, nil
}
