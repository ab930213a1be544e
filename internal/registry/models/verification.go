package models

import (
	id "idattest/pkg/domain"
)

// Verification is the audit record written when a proof is verified and an
// identity registered in the same transaction (Attest). It lives at the
// verification address derived from the identity address.
//
// Field order is the account layout; do not reorder.
type Verification struct {
	Identity        id.Pubkey    `json:"identity"`
	Verifier        id.Pubkey    `json:"verifier"`
	ProofHash       id.Hash      `json:"proof_hash"`
	NotarySignature id.Signature `json:"notary_signature"`
	VerifiedAt      int64        `json:"verified_at"`
	Bump            uint8        `json:"bump"`
}
