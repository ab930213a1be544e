package verifier

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "idattest/pkg/domain"
)

func TestEd25519Verify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := id.PubkeyFromBytes(pub)
	require.NoError(t, err)

	msg := []byte("test proof data")
	var sig id.Signature
	copy(sig[:], ed25519.Sign(priv, msg))

	v := Ed25519{}
	assert.True(t, v.Verify(msg, sig, pk))

	t.Run("tampered message", func(t *testing.T) {
		assert.False(t, v.Verify([]byte("test proof datA"), sig, pk))
	})
	t.Run("tampered signature", func(t *testing.T) {
		bad := sig
		bad[0] ^= 0x01
		assert.False(t, v.Verify(msg, bad, pk))
	})
	t.Run("other key", func(t *testing.T) {
		other, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		otherPK, err := id.PubkeyFromBytes(other)
		require.NoError(t, err)
		assert.False(t, v.Verify(msg, sig, otherPK))
	})
	t.Run("zero signature and key", func(t *testing.T) {
		assert.False(t, v.Verify(msg, id.Signature{}, pk))
		assert.False(t, v.Verify(msg, sig, id.Pubkey{}))
	})
	t.Run("empty message", func(t *testing.T) {
		var emptySig id.Signature
		copy(emptySig[:], ed25519.Sign(priv, nil))
		assert.True(t, v.Verify(nil, emptySig, pk))
		assert.False(t, v.Verify(nil, sig, pk))
	})
}
