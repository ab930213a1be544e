package service

import (
	"context"
	"errors"

	"idattest/internal/ledger"
	"idattest/internal/registry/address"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	"idattest/pkg/platform/sentinel"
)

func (s *Service) loadConfig(ctx context.Context, r ledger.Reader) (*models.Config, address.Derived, error) {
	addr, err := s.addrs.Config()
	if err != nil {
		return nil, address.Derived{}, err
	}
	data, err := r.Get(ctx, addr.Address)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, addr, models.ErrConfigNotFound
	}
	if err != nil {
		return nil, addr, err
	}
	cfg, err := models.DecodeConfig(data)
	if err != nil {
		return nil, addr, err
	}
	return cfg, addr, nil
}

func (s *Service) loadIdentity(ctx context.Context, r ledger.Reader, owner id.Pubkey, platform models.Platform) (*models.Identity, address.Derived, error) {
	addr, err := s.addrs.Identity(owner, platform)
	if err != nil {
		return nil, address.Derived{}, err
	}
	data, err := r.Get(ctx, addr.Address)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, addr, models.ErrIdentityNotFound
	}
	if err != nil {
		return nil, addr, err
	}
	ident, err := models.DecodeIdentity(data)
	if err != nil {
		return nil, addr, err
	}
	return ident, addr, nil
}

func saveConfig(ctx context.Context, accts ledger.Accounts, addr id.Pubkey, cfg *models.Config) error {
	data, err := models.EncodeConfig(cfg)
	if err != nil {
		return err
	}
	return accts.Update(ctx, addr, data)
}

func saveIdentity(ctx context.Context, accts ledger.Accounts, addr id.Pubkey, ident *models.Identity) error {
	data, err := models.EncodeIdentity(ident)
	if err != nil {
		return err
	}
	return accts.Update(ctx, addr, data)
}

// createAccount writes a new account and maps an occupied address to occupied.
func createAccount(ctx context.Context, accts ledger.Accounts, addr id.Pubkey, data []byte, occupied error) error {
	err := accts.Create(ctx, addr, data)
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return occupied
	}
	return err
}
