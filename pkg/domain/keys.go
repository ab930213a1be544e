package domain

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"

	dErrors "idattest/pkg/domain-errors"
)

const (
	// PubkeySize is the width of account identifiers and derived addresses.
	PubkeySize = 32
	// HashSize is the width of proof and username digests.
	HashSize = 32
	// SignatureSize is the width of an Ed25519 signature.
	SignatureSize = 64

	// base58 of 32 bytes never exceeds 44 characters.
	maxPubkeyText = 44
)

// Pubkey identifies an account owner, a notary, a program or a derived address.
// Its text form is base58, the ledger's native encoding.
type Pubkey [PubkeySize]byte

// ParsePubkey decodes a base58 account identifier.
// Rejects empty, oversized and wrong-length inputs at the trust boundary.
func ParsePubkey(s string) (Pubkey, error) {
	if s == "" {
		return Pubkey{}, dErrors.New(dErrors.CodeInvalidInput, "pubkey is required")
	}
	if len(s) > maxPubkeyText {
		return Pubkey{}, dErrors.New(dErrors.CodeInvalidInput, "pubkey is too long")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, dErrors.New(dErrors.CodeInvalidInput, "pubkey is not valid base58")
	}
	if len(raw) != PubkeySize {
		return Pubkey{}, dErrors.Newf(dErrors.CodeInvalidInput, "pubkey must decode to %d bytes", PubkeySize)
	}
	var pk Pubkey
	copy(pk[:], raw)
	return pk, nil
}

// PubkeyFromBytes copies a 32-byte slice into a Pubkey.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != PubkeySize {
		return Pubkey{}, dErrors.Newf(dErrors.CodeInvalidInput, "pubkey must be %d bytes", PubkeySize)
	}
	var pk Pubkey
	copy(pk[:], b)
	return pk, nil
}

func (p Pubkey) String() string { return base58.Encode(p[:]) }

// IsNil reports whether the key is all zeroes.
func (p Pubkey) IsNil() bool { return p == Pubkey{} }

func (p Pubkey) Bytes() []byte { return bytes.Clone(p[:]) }

func (p Pubkey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Hash is a 32-byte digest rendered as lowercase hex.
type Hash [HashSize]byte

// ParseHash decodes a 64-character hex digest.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if err := decodeFixedHex(strings.TrimPrefix(s, "0x"), h[:], "hash"); err != nil {
		return Hash{}, err
	}
	return h, nil
}

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Signature is a 64-byte Ed25519 signature rendered as lowercase hex, the
// form the notary service returns.
type Signature [SignatureSize]byte

// ParseSignature decodes a 128-character hex signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	if err := decodeFixedHex(strings.TrimPrefix(s, "0x"), sig[:], "signature"); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

func (s Signature) String() string { return hex.EncodeToString(s[:]) }

func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func decodeFixedHex(s string, dst []byte, what string) error {
	if len(s) != hex.EncodedLen(len(dst)) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s must be %d hex characters", what, hex.EncodedLen(len(dst)))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s is not valid hex", what)
	}
	return nil
}
