// Package verifier checks notary signatures over proof bytes.
package verifier

import (
	"crypto/ed25519"

	id "idattest/pkg/domain"
)

// Verifier reports whether sig is a valid signature by pubkey over message.
// Malformed input is a failed verification, not an error.
type Verifier interface {
	Verify(message []byte, sig id.Signature, pubkey id.Pubkey) bool
}

// Ed25519 verifies RFC 8032 Ed25519 signatures.
type Ed25519 struct{}

func (Ed25519) Verify(message []byte, sig id.Signature, pubkey id.Pubkey) bool {
	if pubkey.IsNil() {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey[:]), message, sig[:])
}

// Func adapts a plain function to Verifier.
type Func func(message []byte, sig id.Signature, pubkey id.Pubkey) bool

func (f Func) Verify(message []byte, sig id.Signature, pubkey id.Pubkey) bool {
	return f(message, sig, pubkey)
}
