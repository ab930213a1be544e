package service

import (
	"crypto/ed25519"

	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
)

// Signer signs proof bytes with the notary key. Implementations must be safe
// for concurrent use.
type Signer interface {
	Sign(msg []byte) (id.Signature, error)
	Pubkey() id.Pubkey
}

// Ed25519Signer holds an immutable private key.
type Ed25519Signer struct {
	key    ed25519.PrivateKey
	pubkey id.Pubkey
}

func NewEd25519Signer(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "notary key must be %d bytes", ed25519.PrivateKeySize)
	}
	pub, err := id.PubkeyFromBytes(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Ed25519Signer{key: key, pubkey: pub}, nil
}

func (s *Ed25519Signer) Sign(msg []byte) (id.Signature, error) {
	var sig id.Signature
	copy(sig[:], ed25519.Sign(s.key, msg))
	return sig, nil
}

func (s *Ed25519Signer) Pubkey() id.Pubkey { return s.pubkey }
