package models

import (
	id "idattest/pkg/domain"
)

// Event names are part of the public event stream; keep them stable.
const (
	EventConfigInitialized  = "ConfigInitialized"
	EventIdentityRegistered = "IdentityRegistered"
	EventProofVerified      = "ProofVerified"
	EventIdentityRevoked    = "IdentityRevoked"
	EventMetadataUpdated    = "MetadataUpdated"
)

// Event is emitted by a committed registry operation.
type Event interface {
	EventName() string
}

type ConfigInitialized struct {
	Authority   id.Pubkey `json:"authority"`
	NotaryCount uint8     `json:"notary_count"`
}

func (ConfigInitialized) EventName() string { return EventConfigInitialized }

type IdentityRegistered struct {
	Owner      id.Pubkey `json:"owner"`
	Platform   Platform  `json:"platform"`
	ProofHash  id.Hash   `json:"proof_hash"`
	VerifiedAt int64     `json:"verified_at"`
}

func (IdentityRegistered) EventName() string { return EventIdentityRegistered }

type ProofVerified struct {
	Verifier    id.Pubkey `json:"verifier"`
	NotaryIndex uint8     `json:"notary_index"`
	Timestamp   int64     `json:"timestamp"`
}

func (ProofVerified) EventName() string { return EventProofVerified }

type IdentityRevoked struct {
	Owner     id.Pubkey `json:"owner"`
	Platform  Platform  `json:"platform"`
	RevokedAt int64     `json:"revoked_at"`
}

func (IdentityRevoked) EventName() string { return EventIdentityRevoked }

type MetadataUpdated struct {
	Owner       id.Pubkey `json:"owner"`
	Platform    Platform  `json:"platform"`
	NewMetadata string    `json:"new_metadata"`
	UpdatedAt   int64     `json:"updated_at"`
}

func (MetadataUpdated) EventName() string { return EventMetadataUpdated }
