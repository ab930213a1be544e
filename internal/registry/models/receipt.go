package models

import (
	id "idattest/pkg/domain"
)

// Receipt is the outcome of a committed operation: the events it emitted and
// the record it created or changed, if any.
type Receipt struct {
	TxID         string
	Events       []Event
	Config       *Config
	Identity     *Identity
	Verification *Verification
}

// RegisterInput carries RegisterIdentity arguments. Platform is a raw tag so
// out-of-range values are rejected by the registry itself.
type RegisterInput struct {
	Platform     uint8
	ProofHash    id.Hash
	UsernameHash id.Hash
	Metadata     string
}

// ProofInput carries a notary-signed proof.
type ProofInput struct {
	ProofData   []byte
	Signature   id.Signature
	NotaryIndex uint8
}

// AttestInput composes proof verification with registration; the proof hash
// is computed from ProofData.
type AttestInput struct {
	Platform     uint8
	UsernameHash id.Hash
	Metadata     string
	Proof        ProofInput
}

// IdentityView pairs a stored identity with its address and derived status.
type IdentityView struct {
	Address  id.Pubkey
	Identity *Identity
	Status   IdentityStatus
}
