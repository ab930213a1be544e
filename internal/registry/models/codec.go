package models

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/near/borsh-go"
)

// Accounts are stored as an 8-byte discriminator followed by the Borsh
// encoding of the record, the same layout the on-chain program used.
const discriminatorSize = 8

const (
	accountConfig       = "Config"
	accountIdentity     = "Identity"
	accountVerification = "Verification"
)

func discriminator(account string) [discriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + account))
	var d [discriminatorSize]byte
	copy(d[:], sum[:discriminatorSize])
	return d
}

// v must be a struct value: borsh encodes pointers as options.
func encodeAccount(account string, v any) ([]byte, error) {
	body, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s account: %w", account, err)
	}
	d := discriminator(account)
	out := make([]byte, 0, discriminatorSize+len(body))
	out = append(out, d[:]...)
	return append(out, body...), nil
}

func decodeAccount(account string, data []byte, v any) error {
	d := discriminator(account)
	if len(data) < discriminatorSize || !bytes.Equal(data[:discriminatorSize], d[:]) {
		return ErrAccountDiscriminator
	}
	if err := borsh.Deserialize(v, data[discriminatorSize:]); err != nil {
		return fmt.Errorf("decode %s account: %w", account, err)
	}
	return nil
}

// EncodeConfig serializes a Config account.
func EncodeConfig(c *Config) ([]byte, error) { return encodeAccount(accountConfig, *c) }

// DecodeConfig parses a Config account.
func DecodeConfig(data []byte) (*Config, error) {
	var c Config
	if err := decodeAccount(accountConfig, data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// EncodeIdentity serializes an Identity account.
func EncodeIdentity(i *Identity) ([]byte, error) { return encodeAccount(accountIdentity, *i) }

// DecodeIdentity parses an Identity account.
func DecodeIdentity(data []byte) (*Identity, error) {
	var i Identity
	if err := decodeAccount(accountIdentity, data, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// EncodeVerification serializes a Verification account.
func EncodeVerification(v *Verification) ([]byte, error) {
	return encodeAccount(accountVerification, *v)
}

// DecodeVerification parses a Verification account.
func DecodeVerification(data []byte) (*Verification, error) {
	var v Verification
	if err := decodeAccount(accountVerification, data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
