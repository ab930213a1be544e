package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "idattest/internal/jwt_token"
	"idattest/internal/notary/keystore"
	"idattest/internal/platform/config"
	"idattest/internal/registry/address"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashUsername(t *testing.T) {
	out, err := execute(t, "", "hash-username", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.HashUsername("alice").String(), strings.TrimSpace(out))
}

func TestDerive(t *testing.T) {
	owner := id.Pubkey{9, 9, 9}
	out, err := execute(t, "", "derive", owner.String(), "--platform", "twitter")
	require.NoError(t, err)

	var got map[string]derivedOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	d := address.New(config.DefaultProgramID)
	cfgAddr, err := d.Config()
	require.NoError(t, err)
	ident, err := d.Identity(owner, models.PlatformTwitter)
	require.NoError(t, err)
	ver, err := d.Verification(ident.Address)
	require.NoError(t, err)

	want := map[string]derivedOutput{
		"config":       {Address: cfgAddr.Address.String(), Bump: cfgAddr.Bump},
		"identity":     {Address: ident.Address.String(), Bump: ident.Bump},
		"verification": {Address: ver.Address.String(), Bump: ver.Bump},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("derive output mismatch (-want +got):\n%s", diff)
	}
}

func TestKeygenPubkeySign(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "owner.key")

	out, err := execute(t, "", "keygen", "--key", keyPath, "--passphrase", "pw")
	require.NoError(t, err)
	pk, err := id.ParsePubkey(strings.TrimSpace(out))
	require.NoError(t, err)

	_, err = execute(t, "", "keygen", "--key", keyPath)
	assert.Error(t, err, "refuses to overwrite")

	out, err = execute(t, "", "pubkey", "--key", keyPath, "--passphrase", "pw")
	require.NoError(t, err)
	var keys map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &keys))
	assert.Equal(t, pk.String(), keys["base58"])

	body := `{"metadata":"hi"}`
	out, err = execute(t, body, "sign", "--key", keyPath, "--passphrase", "pw", "--ttl", "2m")
	require.NoError(t, err)

	validator := jwttoken.NewRequestValidator(config.DefaultProgramID.String())
	signer, err := validator.Validate(strings.TrimSpace(out), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, pk, signer)
}

func TestKeygenMnemonicRestore(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "", "keygen", "--key", filepath.Join(dir, "a.key"), "--mnemonic")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Len(t, strings.Fields(lines[1]), 24)

	restored, err := execute(t, "", "keygen", "--key", filepath.Join(dir, "b.key"), "--from-mnemonic", lines[1])
	require.NoError(t, err)
	assert.Equal(t, lines[0], strings.TrimSpace(restored))

	_, err = execute(t, "", "keygen", "--key", filepath.Join(dir, "c.key"), "--from-mnemonic", "not a phrase")
	assert.ErrorIs(t, err, keystore.ErrInvalidMnemonic)
}

func TestLoadKeyRequiresPath(t *testing.T) {
	_, err := execute(t, "", "pubkey")
	assert.ErrorContains(t, err, "--key is required")
}
