// Package cli is the idattest operator and client command line.
package cli

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"idattest/internal/notary/keystore"
	"idattest/internal/platform/config"
	id "idattest/pkg/domain"
)

const (
	keyProgramID  = "program-id"
	keyKeyFile    = "key"
	keyPassphrase = "passphrase"
	keyNotaryURL  = "notary-url"
)

// NewRootCmd builds the command tree. Flags fall back to IDATTEST_* env vars,
// e.g. --program-id reads IDATTEST_PROGRAM_ID.
func NewRootCmd(out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("IDATTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "idattest",
		Short:         "identity attestation registry tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String(keyProgramID, "", "registry program id (base58); defaults to the devnet id")
	pf.String(keyKeyFile, "", "path to an ed25519 key file")
	pf.String(keyPassphrase, "", "passphrase for a sealed key file")
	_ = v.BindPFlags(pf)

	root.AddCommand(
		newKeygenCmd(v),
		newPubkeyCmd(v),
		newDeriveCmd(v),
		newHashUsernameCmd(),
		newSignCmd(v),
		newNotarizeCmd(v),
	)
	return root
}

func program(v *viper.Viper) (id.Pubkey, error) {
	return config.Registry{ProgramID: v.GetString(keyProgramID)}.Program()
}

func loadKey(v *viper.Viper) (ed25519.PrivateKey, error) {
	path := v.GetString(keyKeyFile)
	if path == "" {
		return nil, fmt.Errorf("--%s is required", keyKeyFile)
	}
	return keystore.Load(path, v.GetString(keyPassphrase))
}

func pubkeyOf(key ed25519.PrivateKey) (id.Pubkey, error) {
	return id.PubkeyFromBytes(key.Public().(ed25519.PublicKey))
}
