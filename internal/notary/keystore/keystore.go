// Package keystore persists the notary signing key so the public key
// registered in the registry config survives restarts.
//
// Plain files hold the hex seed behind a header line. With a passphrase the
// seed is sealed with XChaCha20-Poly1305 under an argon2id-derived key.
package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	plainHeader     = "IDATTEST-NOTARY-KEY1\n"
	sealedHeader    = "IDATTEST-NOTARY-KEY1-SEALED\n"
	envelopeVersion = 1
	saltSize        = 16

	kdfTime     = 2
	kdfMemoryKB = 64 * 1024
	kdfThreads  = 1
)

var (
	ErrAuthFailed         = errors.New("keystore: wrong passphrase or corrupted key file")
	ErrInvalid            = errors.New("keystore: key file is invalid")
	ErrPassphraseRequired = errors.New("keystore: key file is sealed and no passphrase was given")
)

type envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Generate returns a fresh key that is never written anywhere.
func Generate() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	return priv, err
}

// LoadOrCreate reads the key at path, or generates and writes one if the file
// does not exist. created reports which happened.
func LoadOrCreate(path, passphrase string) (key ed25519.PrivateKey, created bool, err error) {
	key, err = Load(path, passphrase)
	if err == nil {
		return key, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	key, err = Generate()
	if err != nil {
		return nil, false, err
	}
	if err := Save(path, passphrase, key); err != nil {
		return nil, false, err
	}
	return key, true, nil
}

func Load(path, passphrase string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(raw, passphrase)
}

// Save writes the key with 0600 permissions via a rename so a crash never
// leaves a truncated file.
func Save(path, passphrase string, key ed25519.PrivateKey) error {
	data, err := Encode(key, passphrase)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("keystore: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".notary-key-*")
	if err != nil {
		return fmt.Errorf("keystore: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Encode serializes the key seed. An empty passphrase writes it unsealed.
func Encode(key ed25519.PrivateKey, passphrase string) ([]byte, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, ErrInvalid
	}
	seed := key.Seed()
	defer zeroBytes(seed)
	if passphrase == "" {
		return []byte(plainHeader + hex.EncodeToString(seed) + "\n"), nil
	}
	env, err := seal(passphrase, seed)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(sealedHeader), raw...), nil
}

func Decode(data []byte, passphrase string) (ed25519.PrivateKey, error) {
	text := string(data)
	switch {
	case strings.HasPrefix(text, sealedHeader):
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		var env envelope
		if err := json.Unmarshal(data[len(sealedHeader):], &env); err != nil {
			return nil, ErrInvalid
		}
		seed, err := open(passphrase, &env)
		if err != nil {
			return nil, err
		}
		defer zeroBytes(seed)
		return keyFromSeed(seed)
	case strings.HasPrefix(text, plainHeader):
		seed, err := hex.DecodeString(strings.TrimSpace(text[len(plainHeader):]))
		if err != nil {
			return nil, ErrInvalid
		}
		defer zeroBytes(seed)
		return keyFromSeed(seed)
	default:
		return nil, ErrInvalid
	}
}

func keyFromSeed(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalid
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func seal(passphrase string, plaintext []byte) (*envelope, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := deriveKey(passphrase, salt, kdfTime, kdfMemoryKB, kdfThreads)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &envelope{
		Version:     envelopeVersion,
		KDF:         "argon2id",
		KDFTime:     kdfTime,
		KDFMemoryKB: kdfMemoryKB,
		KDFThreads:  kdfThreads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func open(passphrase string, env *envelope) ([]byte, error) {
	if env.Version != envelopeVersion || env.KDF != "argon2id" || env.KDFThreads == 0 {
		return nil, ErrInvalid
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrInvalid
	}
	key := deriveKey(passphrase, env.Salt, env.KDFTime, env.KDFMemoryKB, env.KDFThreads)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func deriveKey(passphrase string, salt []byte, time, memoryKB uint32, threads uint8) []byte {
	return argon2.IDKey([]byte(passphrase), salt, time, memoryKB, threads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	clear(b)
}
