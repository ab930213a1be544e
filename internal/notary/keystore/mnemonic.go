package keystore

import (
	"crypto/ed25519"
	"errors"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("keystore: invalid mnemonic")

// Mnemonic renders the key seed as a 24-word BIP39 phrase. The seed is the
// mnemonic entropy, so FromMnemonic restores the same key.
func Mnemonic(key ed25519.PrivateKey) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", ErrInvalid
	}
	seed := key.Seed()
	defer zeroBytes(seed)
	return bip39.NewMnemonic(seed)
}

func FromMnemonic(mnemonic string) (ed25519.PrivateKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	defer zeroBytes(seed)
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidMnemonic
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
