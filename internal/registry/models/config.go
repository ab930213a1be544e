package models

import (
	id "idattest/pkg/domain"
)

const (
	// NotaryCount is the fixed size of the notary key set.
	NotaryCount = 3
	// DefaultValidityPeriod is one year in seconds.
	DefaultValidityPeriod int64 = 365 * 24 * 60 * 60
)

// Config is the registry-wide singleton stored at the config address.
//
// Invariants:
//   - exactly NotaryCount notary keys, order significant (index selects a notary)
//   - created once by Initialize, never deleted
//   - TotalIdentities only grows; TotalVerifications grows on register and
//     shrinks once per identity on its first revocation
//
// Field order is the account layout; do not reorder.
type Config struct {
	Authority          id.Pubkey   `json:"authority"`
	NotaryPubkeys      []id.Pubkey `json:"notary_pubkeys"`
	TotalIdentities    uint64      `json:"total_identities"`
	TotalVerifications uint64      `json:"total_verifications"`
	ValidityPeriod     int64       `json:"validity_period"`
	Bump               uint8       `json:"bump"`
}

// NewConfig validates the notary set and builds a zeroed Config.
func NewConfig(authority id.Pubkey, notaries []id.Pubkey, bump uint8) (*Config, error) {
	if len(notaries) != NotaryCount {
		return nil, ErrInvalidNotaryCount
	}
	keys := make([]id.Pubkey, NotaryCount)
	copy(keys, notaries)
	return &Config{
		Authority:      authority,
		NotaryPubkeys:  keys,
		ValidityPeriod: DefaultValidityPeriod,
		Bump:           bump,
	}, nil
}

// Notary selects the notary key a proof claims to be signed by.
func (c *Config) Notary(index uint8) (id.Pubkey, error) {
	if int(index) >= NotaryCount || int(index) >= len(c.NotaryPubkeys) {
		return id.Pubkey{}, ErrInvalidNotaryIndex
	}
	return c.NotaryPubkeys[index], nil
}

// ExpiryFor computes expires_at for an identity verified at verifiedAt.
func (c *Config) ExpiryFor(verifiedAt int64) int64 {
	return verifiedAt + c.ValidityPeriod
}

// ApplyRegistration counts a newly registered identity.
func (c *Config) ApplyRegistration() {
	c.TotalIdentities++
	c.TotalVerifications++
}

// ApplyRevocation uncounts a revoked identity's verification.
// The counter is not clamped: reaching below zero aborts the transaction.
func (c *Config) ApplyRevocation() error {
	if c.TotalVerifications == 0 {
		return ErrCounterUnderflow
	}
	c.TotalVerifications--
	return nil
}
