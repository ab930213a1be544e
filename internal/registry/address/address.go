// Package address derives the deterministic account addresses the registry
// stores its records at.
//
// Addresses use the program-derived-address scheme: the first bump from 255
// down whose digest is not a valid ed25519 point. Such an address has no
// private key, so only the registry can write there.
package address

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"

	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
)

const (
	maxSeeds   = 16
	maxSeedLen = 32
	pdaMarker  = "ProgramDerivedAddress"
)

var (
	seedConfig       = []byte("config")
	seedIdentity     = []byte("identity")
	seedVerification = []byte("verification")
)

var (
	ErrMaxSeedLength = errors.New("address: seed exceeds 32 bytes")
	ErrNoViableBump  = errors.New("address: no viable bump seed")
	ErrOnCurve       = errors.New("address: derived address is on the curve")
)

// Derived is an address together with the bump that produced it.
type Derived struct {
	Address id.Pubkey
	Bump    uint8
}

// Deriver derives addresses for one program id.
type Deriver struct {
	program id.Pubkey
}

func New(program id.Pubkey) *Deriver {
	return &Deriver{program: program}
}

// Program returns the program id addresses are derived under.
func (d *Deriver) Program() id.Pubkey { return d.program }

// Config is the singleton config address.
func (d *Deriver) Config() (Derived, error) {
	return FindProgramAddress(d.program, seedConfig)
}

// Identity is the address of the identity for (owner, platform).
func (d *Deriver) Identity(owner id.Pubkey, platform models.Platform) (Derived, error) {
	return FindProgramAddress(d.program, seedIdentity, owner[:], platform.Seed())
}

// Verification is the audit record address for an identity address.
func (d *Deriver) Verification(identity id.Pubkey) (Derived, error) {
	return FindProgramAddress(d.program, seedVerification, identity[:])
}

// FindProgramAddress searches bumps 255..0 for the first off-curve address.
func FindProgramAddress(program id.Pubkey, seeds ...[]byte) (Derived, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(program, withBump...)
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return Derived{}, err
		}
		return Derived{Address: addr, Bump: uint8(bump)}, nil
	}
	return Derived{}, ErrNoViableBump
}

// CreateProgramAddress hashes the seeds with the program id. It fails with
// ErrOnCurve when the digest is a valid ed25519 point.
func CreateProgramAddress(program id.Pubkey, seeds ...[]byte) (id.Pubkey, error) {
	if len(seeds) > maxSeeds {
		return id.Pubkey{}, ErrMaxSeedLength
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLen {
			return id.Pubkey{}, ErrMaxSeedLength
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))

	var out id.Pubkey
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out) {
		return id.Pubkey{}, ErrOnCurve
	}
	return out, nil
}

// IsOnCurve reports whether b decodes as a compressed ed25519 point.
func IsOnCurve(b id.Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}
