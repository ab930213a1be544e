package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
)

func pubkey(b byte) id.Pubkey {
	var pk id.Pubkey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func TestPlatformFromU8(t *testing.T) {
	for v := range 4 {
		p, err := PlatformFromU8(uint8(v))
		require.NoError(t, err)
		assert.Equal(t, Platform(v), p)
	}
	for _, v := range []uint8{4, 5, 200, 255} {
		_, err := PlatformFromU8(v)
		assert.ErrorIs(t, err, ErrInvalidPlatform, "tag %d", v)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{in: "github", want: PlatformGitHub},
		{in: "LinkedIn", want: PlatformLinkedIn},
		{in: " GOOGLE ", want: PlatformGoogle},
		{in: "2", want: PlatformTwitter},
		{in: "4", wantErr: true},
		{in: "mastodon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlatform(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPlatform)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewConfig(t *testing.T) {
	notaries := []id.Pubkey{pubkey(1), pubkey(2), pubkey(3)}

	t.Run("three notaries", func(t *testing.T) {
		cfg, err := NewConfig(pubkey(9), notaries, 254)
		require.NoError(t, err)
		assert.Equal(t, pubkey(9), cfg.Authority)
		assert.Equal(t, notaries, cfg.NotaryPubkeys)
		assert.Zero(t, cfg.TotalIdentities)
		assert.Zero(t, cfg.TotalVerifications)
		assert.Equal(t, int64(31_536_000), cfg.ValidityPeriod)
		assert.Equal(t, uint8(254), cfg.Bump)
	})

	t.Run("wrong notary count", func(t *testing.T) {
		for _, n := range []int{0, 2, 4} {
			_, err := NewConfig(pubkey(9), make([]id.Pubkey, n), 255)
			assert.ErrorIs(t, err, ErrInvalidNotaryCount, "count %d", n)
		}
	})

	t.Run("notary index", func(t *testing.T) {
		cfg, err := NewConfig(pubkey(9), notaries, 255)
		require.NoError(t, err)
		got, err := cfg.Notary(2)
		require.NoError(t, err)
		assert.Equal(t, pubkey(3), got)
		_, err = cfg.Notary(3)
		assert.ErrorIs(t, err, ErrInvalidNotaryIndex)
	})

	t.Run("revocation underflow", func(t *testing.T) {
		cfg, err := NewConfig(pubkey(9), notaries, 255)
		require.NoError(t, err)
		assert.ErrorIs(t, cfg.ApplyRevocation(), ErrCounterUnderflow)

		cfg.ApplyRegistration()
		require.NoError(t, cfg.ApplyRevocation())
		assert.Equal(t, uint64(1), cfg.TotalIdentities)
		assert.Zero(t, cfg.TotalVerifications)
	})
}

func TestIdentityMetadataLimit(t *testing.T) {
	assert.NoError(t, ValidateMetadata(strings.Repeat("a", MaxMetadataLen)))
	assert.ErrorIs(t, ValidateMetadata(strings.Repeat("a", MaxMetadataLen+1)), ErrMetadataTooLong)
	// bytes, not runes
	assert.ErrorIs(t, ValidateMetadata(strings.Repeat("é", 101)), ErrMetadataTooLong)
}

func TestIdentityLifecycle(t *testing.T) {
	owner := pubkey(7)
	other := pubkey(8)
	ident, err := NewIdentity(owner, PlatformGitHub, sha256.Sum256([]byte("proof")), sha256.Sum256([]byte("alice")), "hello", 1000, 2000, 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ident.VerificationCount)
	assert.False(t, ident.Revoked)

	assert.Equal(t, IdentityStatusActive, ident.Status(1999))
	assert.Equal(t, IdentityStatusExpired, ident.Status(2000))

	assert.ErrorIs(t, ident.CanUpdateMetadata(other, "x"), ErrUnauthorized)
	require.NoError(t, ident.CanUpdateMetadata(owner, "x"))
	ident.ApplyMetadata("x")
	assert.Equal(t, "x", ident.Metadata)

	assert.ErrorIs(t, ident.CanRevoke(other), ErrUnauthorized)
	require.NoError(t, ident.CanRevoke(owner))
	ident.ApplyRevocation()
	assert.Equal(t, IdentityStatusRevoked, ident.Status(1500))

	// revoked is reported before ownership
	assert.ErrorIs(t, ident.CanRevoke(other), ErrIdentityRevoked)
	assert.ErrorIs(t, ident.CanUpdateMetadata(owner, "y"), ErrIdentityRevoked)
	// length is checked first
	assert.ErrorIs(t, ident.CanUpdateMetadata(owner, strings.Repeat("z", 201)), ErrMetadataTooLong)
}

func TestAccountCodec(t *testing.T) {
	t.Run("config round trip", func(t *testing.T) {
		cfg, err := NewConfig(pubkey(1), []id.Pubkey{pubkey(2), pubkey(3), pubkey(4)}, 253)
		require.NoError(t, err)
		cfg.ApplyRegistration()

		data, err := EncodeConfig(cfg)
		require.NoError(t, err)
		// discriminator + authority + vec(3 keys) + two u64 + i64 + bump
		assert.Len(t, data, 8+32+4+3*32+8+8+8+1)

		got, err := DecodeConfig(data)
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	})

	t.Run("identity round trip", func(t *testing.T) {
		ident, err := NewIdentity(pubkey(5), PlatformTwitter, id.Hash{1}, id.Hash{2}, "meta", 10, 20, 200)
		require.NoError(t, err)
		ident.ApplyRevocation()

		data, err := EncodeIdentity(ident)
		require.NoError(t, err)
		got, err := DecodeIdentity(data)
		require.NoError(t, err)
		assert.Equal(t, ident, got)
	})

	t.Run("verification round trip", func(t *testing.T) {
		v := &Verification{Identity: pubkey(1), Verifier: pubkey(2), ProofHash: id.Hash{3}, NotarySignature: id.Signature{4}, VerifiedAt: 99, Bump: 7}
		data, err := EncodeVerification(v)
		require.NoError(t, err)
		got, err := DecodeVerification(data)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})

	t.Run("config layout", func(t *testing.T) {
		cfg, err := NewConfig(pubkey(1), []id.Pubkey{pubkey(2), pubkey(3), pubkey(4)}, 253)
		require.NoError(t, err)
		cfg.ApplyRegistration()

		var want bytes.Buffer
		disc := sha256.Sum256([]byte("account:Config"))
		want.Write(disc[:8])
		want.Write(bytes.Repeat([]byte{1}, 32))
		want.Write([]byte{3, 0, 0, 0})
		for _, b := range []byte{2, 3, 4} {
			want.Write(bytes.Repeat([]byte{b}, 32))
		}
		want.Write(binary.LittleEndian.AppendUint64(nil, 1))
		want.Write(binary.LittleEndian.AppendUint64(nil, 1))
		want.Write(binary.LittleEndian.AppendUint64(nil, uint64(DefaultValidityPeriod)))
		want.WriteByte(253)

		got, err := EncodeConfig(cfg)
		require.NoError(t, err)
		assert.Len(t, got, 165)
		assert.Equal(t, want.Bytes(), got)
	})

	t.Run("identity layout", func(t *testing.T) {
		ident, err := NewIdentity(pubkey(5), PlatformGitHub, id.Hash{0xaa}, id.Hash{0xbb}, "hi", 10, 20, 200)
		require.NoError(t, err)
		ident.ApplyRevocation()

		var want bytes.Buffer
		disc := sha256.Sum256([]byte("account:Identity"))
		want.Write(disc[:8])
		want.Write(bytes.Repeat([]byte{5}, 32))
		want.WriteByte(byte(PlatformGitHub))
		want.Write(append([]byte{0xaa}, make([]byte, 31)...))
		want.Write(append([]byte{0xbb}, make([]byte, 31)...))
		want.Write([]byte{2, 0, 0, 0, 'h', 'i'})
		want.Write(binary.LittleEndian.AppendUint64(nil, 10))
		want.Write(binary.LittleEndian.AppendUint64(nil, 20))
		want.WriteByte(1)
		want.Write(binary.LittleEndian.AppendUint64(nil, 1))
		want.WriteByte(200)

		got, err := EncodeIdentity(ident)
		require.NoError(t, err)
		assert.Len(t, got, 137)
		assert.Equal(t, byte(PlatformGitHub), got[40])
		assert.Equal(t, want.Bytes(), got)
	})

	t.Run("wrong account kind", func(t *testing.T) {
		cfg, err := NewConfig(pubkey(1), []id.Pubkey{pubkey(2), pubkey(3), pubkey(4)}, 253)
		require.NoError(t, err)
		data, err := EncodeConfig(cfg)
		require.NoError(t, err)

		_, err = DecodeIdentity(data)
		assert.ErrorIs(t, err, ErrAccountDiscriminator)
		_, err = DecodeConfig(data[:4])
		assert.ErrorIs(t, err, ErrAccountDiscriminator)
	})
}
