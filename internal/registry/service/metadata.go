package service

import (
	"context"

	"idattest/internal/ledger"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	"idattest/pkg/requestcontext"
)

// UpdateMetadata replaces the metadata of a live identity. Nothing else on
// the identity changes.
func (s *Service) UpdateMetadata(ctx context.Context, signer, owner id.Pubkey, tag uint8, metadata string) (*models.Receipt, error) {
	platform, err := validateRegistration(metadata, tag)
	if err != nil {
		return nil, s.reject(ctx, opUpdateMetadata, err)
	}

	return s.execute(ctx, opUpdateMetadata, func(ctx context.Context, accts ledger.Accounts, r *models.Receipt) error {
		ident, identAddr, err := s.loadIdentity(ctx, accts, owner, platform)
		if err != nil {
			return err
		}
		if err := ident.CanUpdateMetadata(signer, metadata); err != nil {
			return err
		}
		ident.ApplyMetadata(metadata)
		if err := saveIdentity(ctx, accts, identAddr.Address, ident); err != nil {
			return err
		}

		r.Identity = ident
		r.Events = append(r.Events, models.MetadataUpdated{
			Owner:       ident.Owner,
			Platform:    ident.Platform,
			NewMetadata: metadata,
			UpdatedAt:   unixNow(ctx),
		})
		s.logger.InfoContext(ctx, "identity metadata updated",
			"owner", owner.String(),
			"platform", platform.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	})
}
