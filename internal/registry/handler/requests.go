package handler

import (
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
)

// InitializeRequest carries the ordered notary keys.
type InitializeRequest struct {
	NotaryPubkeys []id.Pubkey `json:"notary_pubkeys"`
}

// RegisterIdentityRequest registers a precomputed proof hash.
type RegisterIdentityRequest struct {
	Platform     uint8   `json:"platform"`
	ProofHash    id.Hash `json:"proof_hash"`
	UsernameHash id.Hash `json:"username_hash"`
	Metadata     string  `json:"metadata"`
}

func (r *RegisterIdentityRequest) toInput() models.RegisterInput {
	return models.RegisterInput{
		Platform:     r.Platform,
		ProofHash:    r.ProofHash,
		UsernameHash: r.UsernameHash,
		Metadata:     r.Metadata,
	}
}

// VerifyProofRequest checks a notary signature.
type VerifyProofRequest struct {
	ProofData   id.Bytes     `json:"proof_data"`
	Signature   id.Signature `json:"signature"`
	NotaryIndex uint8        `json:"notary_index"`
}

func (r *VerifyProofRequest) Validate() error {
	if len(r.ProofData) == 0 {
		return dErrors.New(dErrors.CodeValidation, "proof_data is required")
	}
	return nil
}

func (r *VerifyProofRequest) toInput() models.ProofInput {
	return models.ProofInput{
		ProofData:   r.ProofData,
		Signature:   r.Signature,
		NotaryIndex: r.NotaryIndex,
	}
}

// AttestRequest verifies a proof and registers the identity it backs.
type AttestRequest struct {
	Platform     uint8        `json:"platform"`
	UsernameHash id.Hash      `json:"username_hash"`
	Metadata     string       `json:"metadata"`
	ProofData    id.Bytes     `json:"proof_data"`
	Signature    id.Signature `json:"signature"`
	NotaryIndex  uint8        `json:"notary_index"`
}

func (r *AttestRequest) Validate() error {
	if len(r.ProofData) == 0 {
		return dErrors.New(dErrors.CodeValidation, "proof_data is required")
	}
	return nil
}

func (r *AttestRequest) toInput() models.AttestInput {
	return models.AttestInput{
		Platform:     r.Platform,
		UsernameHash: r.UsernameHash,
		Metadata:     r.Metadata,
		Proof: models.ProofInput{
			ProofData:   r.ProofData,
			Signature:   r.Signature,
			NotaryIndex: r.NotaryIndex,
		},
	}
}

// UpdateMetadataRequest replaces identity metadata.
type UpdateMetadataRequest struct {
	Metadata string `json:"metadata"`
}
