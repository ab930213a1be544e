package address

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
)

func program() id.Pubkey {
	return sha256.Sum256([]byte("idattest/test-program"))
}

func TestDeriverIsDeterministic(t *testing.T) {
	d := New(program())
	owner := id.Pubkey{1, 2, 3}

	a, err := d.Identity(owner, models.PlatformGitHub)
	require.NoError(t, err)
	b, err := New(program()).Identity(owner, models.PlatformGitHub)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.False(t, IsOnCurve(a.Address))

	recomputed, err := CreateProgramAddress(program(), []byte("identity"), owner[:], []byte{byte(models.PlatformGitHub)}, []byte{a.Bump})
	require.NoError(t, err)
	assert.Equal(t, a.Address, recomputed)
}

// Vectors from solana-program's create_program_address tests, so stored
// addresses match the ones the on-chain program computes.
func TestCreateProgramAddressMatchesSolana(t *testing.T) {
	program, err := id.ParsePubkey("BPFLoaderUpgradeab1e11111111111111111111111")
	require.NoError(t, err)
	seedKey, err := id.ParsePubkey("SeedPubey1111111111111111111111111111111111")
	require.NoError(t, err)

	tests := []struct {
		name  string
		seeds [][]byte
		want  string
	}{
		{name: "empty seed and bump", seeds: [][]byte{{}, {1}}, want: "BwqrghZA2htAcqq8dzP1WDAhTXYTYWj7CHxF5j7TDBAe"},
		{name: "utf8 seed", seeds: [][]byte{[]byte("☉"), {0}}, want: "13yWmRpaTR4r5nAktwLqMpRNr28tnVUZw26rTvPSSB19"},
		{name: "two word seeds", seeds: [][]byte{[]byte("Talking"), []byte("Squirrels")}, want: "2fnQrngrQT4SeLcdToJAD96phoEjNL2man2kfRLCASVk"},
		{name: "pubkey seed", seeds: [][]byte{seedKey[:], {1}}, want: "976ymqVnfE32QFe6NfGDctSvVa36LWnvYxhU6G2232YL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateProgramAddress(program, tt.seeds...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDeriverSeparatesRecords(t *testing.T) {
	d := New(program())
	owner := id.Pubkey{9}

	seen := map[id.Pubkey]string{}
	record := func(name string, got Derived, err error) {
		t.Helper()
		require.NoError(t, err)
		prev, dup := seen[got.Address]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[got.Address] = name
	}

	cfg, err := d.Config()
	record("config", cfg, err)
	for _, p := range models.AllPlatforms() {
		ident, err := d.Identity(owner, p)
		record("identity/"+p.String(), ident, err)
		v, err := d.Verification(ident.Address)
		record("verification/"+p.String(), v, err)
	}
	other, err := d.Identity(id.Pubkey{10}, models.PlatformGitHub)
	record("identity/other-owner", other, err)

	otherProgram, err := New(id.Pubkey{0xff}).Config()
	record("config/other-program", otherProgram, err)
}

func TestCreateProgramAddressRejectsLongSeeds(t *testing.T) {
	_, err := CreateProgramAddress(program(), make([]byte, 33))
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	seeds := make([][]byte, 17)
	_, err = CreateProgramAddress(program(), seeds...)
	assert.ErrorIs(t, err, ErrMaxSeedLength)
}

func TestIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := id.PubkeyFromBytes(pub)
	require.NoError(t, err)
	assert.True(t, IsOnCurve(pk), "real ed25519 keys are curve points")
}

func BenchmarkIdentityAddress(b *testing.B) {
	d := New(program())
	owner := id.Pubkey{4, 2}
	for b.Loop() {
		_, _ = d.Identity(owner, models.PlatformTwitter)
	}
}
