package models

import (
	"encoding/hex"

	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
)

// ProofVersion prefixes every proof produced by the digest prover.
const ProofVersion byte = 1

// ErrNotarizeFailed is the only error notarize surfaces to callers.
// The underlying cause is logged, never returned.
var ErrNotarizeFailed = dErrors.New(dErrors.CodeInternal, "notarization failed")

// Attestation is a signed proof. The signature covers Proof exactly.
type Attestation struct {
	Proof        []byte
	Signature    id.Signature
	NotaryPubkey id.Pubkey
}

// NotarizeRequest is the POST /notarize body. transcript_data accepts a byte
// array or a base64 string.
type NotarizeRequest struct {
	SessionID      string   `json:"session_id"`
	TranscriptData id.Bytes `json:"transcript_data"`
}

// NotarizeResponse carries hex signature and key; proof is a byte array.
type NotarizeResponse struct {
	Proof        id.Bytes `json:"proof"`
	Signature    string   `json:"signature"`
	NotaryPubkey string   `json:"notary_pubkey"`
}

func NewNotarizeResponse(a *Attestation) *NotarizeResponse {
	return &NotarizeResponse{
		Proof:        a.Proof,
		Signature:    hex.EncodeToString(a.Signature[:]),
		NotaryPubkey: PubkeyHex(a.NotaryPubkey),
	}
}

// ToAttestation decodes the hex fields of a response.
func (r *NotarizeResponse) ToAttestation() (*Attestation, error) {
	sig, err := id.ParseSignature(r.Signature)
	if err != nil {
		return nil, err
	}
	pk, err := ParsePubkeyHex(r.NotaryPubkey)
	if err != nil {
		return nil, err
	}
	return &Attestation{Proof: r.Proof, Signature: sig, NotaryPubkey: pk}, nil
}

// PubkeyHex is the notary's wire form for its key. The registry uses base58.
func PubkeyHex(pk id.Pubkey) string {
	return hex.EncodeToString(pk[:])
}

func ParsePubkeyHex(s string) (id.Pubkey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id.Pubkey{}, dErrors.New(dErrors.CodeInvalidInput, "notary pubkey is not valid hex")
	}
	return id.PubkeyFromBytes(raw)
}
