package service

import (
	"context"

	"idattest/internal/ledger"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
)

// Initialize creates the registry config with authority as its signer. It
// succeeds at most once per program.
func (s *Service) Initialize(ctx context.Context, authority id.Pubkey, notaries []id.Pubkey) (*models.Receipt, error) {
	if len(notaries) != models.NotaryCount {
		return nil, s.reject(ctx, opInitialize, models.ErrInvalidNotaryCount)
	}

	return s.execute(ctx, opInitialize, func(ctx context.Context, accts ledger.Accounts, r *models.Receipt) error {
		addr, err := s.addrs.Config()
		if err != nil {
			return err
		}
		cfg, err := models.NewConfig(authority, notaries, addr.Bump)
		if err != nil {
			return err
		}
		data, err := models.EncodeConfig(cfg)
		if err != nil {
			return err
		}
		if err := createAccount(ctx, accts, addr.Address, data, models.ErrConfigExists); err != nil {
			return err
		}

		r.Config = cfg
		r.Events = append(r.Events, models.ConfigInitialized{
			Authority:   authority,
			NotaryCount: models.NotaryCount,
		})
		s.logger.InfoContext(ctx, "registry initialized",
			"authority", authority.String(),
			"config", addr.Address.String(),
		)
		return nil
	})
}
