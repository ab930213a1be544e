package service

import (
	"context"
	"errors"

	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	"idattest/pkg/platform/sentinel"
)

// GetConfig reads the committed registry config.
func (s *Service) GetConfig(ctx context.Context) (*models.Config, error) {
	cfg, _, err := s.loadConfig(ctx, s.store)
	if err != nil {
		return nil, translate(err)
	}
	return cfg, nil
}

// SeedMetrics sets the active identity gauge from the stored config, whose
// total_verifications counts identities registered and not yet revoked. An
// uninitialized registry seeds zero.
func (s *Service) SeedMetrics(ctx context.Context) error {
	cfg, err := s.GetConfig(ctx)
	switch {
	case errors.Is(err, models.ErrConfigNotFound):
		s.metrics.SetActiveIdentities(0)
		return nil
	case err != nil:
		return err
	}
	s.metrics.SetActiveIdentities(cfg.TotalVerifications)
	return nil
}

// GetIdentity reads owner's identity on platform with its derived status.
func (s *Service) GetIdentity(ctx context.Context, owner id.Pubkey, tag uint8) (*models.IdentityView, error) {
	platform, err := models.PlatformFromU8(tag)
	if err != nil {
		return nil, err
	}
	ident, addr, err := s.loadIdentity(ctx, s.store, owner, platform)
	if err != nil {
		return nil, translate(err)
	}
	return &models.IdentityView{
		Address:  addr.Address,
		Identity: ident,
		Status:   ident.Status(unixNow(ctx)),
	}, nil
}

// ListIdentities returns every identity owner holds, in platform order, read
// in one batch.
func (s *Service) ListIdentities(ctx context.Context, owner id.Pubkey) ([]models.IdentityView, error) {
	platforms := models.AllPlatforms()
	addrs := make([]id.Pubkey, len(platforms))
	for i, p := range platforms {
		d, err := s.addrs.Identity(owner, p)
		if err != nil {
			return nil, translate(err)
		}
		addrs[i] = d.Address
	}

	found, err := s.store.GetMany(ctx, addrs)
	if err != nil {
		return nil, translate(err)
	}

	now := unixNow(ctx)
	views := make([]models.IdentityView, 0, len(found))
	for _, addr := range addrs {
		data, ok := found[addr]
		if !ok {
			continue
		}
		ident, err := models.DecodeIdentity(data)
		if err != nil {
			return nil, translate(err)
		}
		views = append(views, models.IdentityView{
			Address:  addr,
			Identity: ident,
			Status:   ident.Status(now),
		})
	}
	return views, nil
}

// GetVerification reads the audit record written when owner's identity on
// platform was attested. Identities registered without Attest have none.
func (s *Service) GetVerification(ctx context.Context, owner id.Pubkey, tag uint8) (*models.Verification, error) {
	platform, err := models.PlatformFromU8(tag)
	if err != nil {
		return nil, err
	}
	identAddr, err := s.addrs.Identity(owner, platform)
	if err != nil {
		return nil, translate(err)
	}
	verAddr, err := s.addrs.Verification(identAddr.Address)
	if err != nil {
		return nil, translate(err)
	}
	data, err := s.store.Get(ctx, verAddr.Address)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, models.ErrVerificationNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	ver, err := models.DecodeVerification(data)
	if err != nil {
		return nil, translate(err)
	}
	return ver, nil
}
