package models

import (
	"crypto/sha256"

	id "idattest/pkg/domain"
)

// MaxMetadataLen bounds Identity.Metadata in bytes.
const MaxMetadataLen = 200

// IdentityStatus is a read-side view; it is not stored.
type IdentityStatus string

const (
	IdentityStatusActive  IdentityStatus = "active"
	IdentityStatusExpired IdentityStatus = "expired"
	IdentityStatusRevoked IdentityStatus = "revoked"
)

// Identity binds an owner key to one external platform account.
//
// Invariants:
//   - at most one per (owner, platform): it lives at the derived identity address
//   - ExpiresAt = VerifiedAt + Config.ValidityPeriod, fixed at creation
//   - Revoked only moves false -> true; revocation is a soft tombstone
//   - len(Metadata) <= MaxMetadataLen
//
// Field order is the account layout; do not reorder.
type Identity struct {
	Owner             id.Pubkey `json:"owner"`
	Platform          Platform  `json:"platform"`
	ProofHash         id.Hash   `json:"proof_hash"`
	UsernameHash      id.Hash   `json:"username_hash"`
	Metadata          string    `json:"metadata"`
	VerifiedAt        int64     `json:"verified_at"`
	ExpiresAt         int64     `json:"expires_at"`
	Revoked           bool      `json:"revoked"`
	VerificationCount uint64    `json:"verification_count"`
	Bump              uint8     `json:"bump"`
}

// ValidateMetadata enforces the metadata byte limit.
func ValidateMetadata(metadata string) error {
	if len(metadata) > MaxMetadataLen {
		return ErrMetadataTooLong
	}
	return nil
}

// NewIdentity builds a freshly verified identity.
func NewIdentity(owner id.Pubkey, platform Platform, proofHash, usernameHash id.Hash, metadata string, verifiedAt, expiresAt int64, bump uint8) (*Identity, error) {
	if err := ValidateMetadata(metadata); err != nil {
		return nil, err
	}
	return &Identity{
		Owner:             owner,
		Platform:          platform,
		ProofHash:         proofHash,
		UsernameHash:      usernameHash,
		Metadata:          metadata,
		VerifiedAt:        verifiedAt,
		ExpiresAt:         expiresAt,
		VerificationCount: 1,
		Bump:              bump,
	}, nil
}

// CanRevoke checks the revocation preconditions.
// Already revoked is reported before ownership.
func (i *Identity) CanRevoke(signer id.Pubkey) error {
	if i.Revoked {
		return ErrIdentityRevoked
	}
	if i.Owner != signer {
		return ErrUnauthorized
	}
	return nil
}

// ApplyRevocation marks the identity revoked. Call CanRevoke first.
func (i *Identity) ApplyRevocation() {
	i.Revoked = true
}

// CanUpdateMetadata checks the metadata update preconditions in order:
// length, revoked, owner.
func (i *Identity) CanUpdateMetadata(signer id.Pubkey, metadata string) error {
	if err := ValidateMetadata(metadata); err != nil {
		return err
	}
	if i.Revoked {
		return ErrIdentityRevoked
	}
	if i.Owner != signer {
		return ErrUnauthorized
	}
	return nil
}

// ApplyMetadata replaces metadata in place. Nothing else changes.
func (i *Identity) ApplyMetadata(metadata string) {
	i.Metadata = metadata
}

// IsExpired reports whether now is at or past ExpiresAt.
func (i *Identity) IsExpired(now int64) bool {
	return now >= i.ExpiresAt
}

// Status derives the lifecycle status at now. Revocation wins over expiry.
func (i *Identity) Status(now int64) IdentityStatus {
	switch {
	case i.Revoked:
		return IdentityStatusRevoked
	case i.IsExpired(now):
		return IdentityStatusExpired
	default:
		return IdentityStatusActive
	}
}

// HashUsername is the username_hash clients submit: sha256 of the raw username.
func HashUsername(username string) id.Hash {
	return sha256.Sum256([]byte(username))
}

// HashProof is the proof_hash recorded for notary proof bytes.
func HashProof(proof []byte) id.Hash {
	return sha256.Sum256(proof)
}
