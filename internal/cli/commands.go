package cli

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	jwttoken "idattest/internal/jwt_token"
	"idattest/internal/notary/client"
	"idattest/internal/notary/keystore"
	"idattest/internal/registry/address"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
)

func newKeygenCmd(v *viper.Viper) *cobra.Command {
	var (
		force        bool
		showMnemonic bool
		fromMnemonic string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate (or restore) an ed25519 key file and print its public key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := v.GetString(keyKeyFile)
			if path == "" {
				return fmt.Errorf("--%s is required", keyKeyFile)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists; pass --force to overwrite", path)
			}
			var (
				key ed25519.PrivateKey
				err error
			)
			if fromMnemonic != "" {
				key, err = keystore.FromMnemonic(fromMnemonic)
			} else {
				key, err = keystore.Generate()
			}
			if err != nil {
				return err
			}
			if err := keystore.Save(path, v.GetString(keyPassphrase), key); err != nil {
				return err
			}
			pk, err := pubkeyOf(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pk.String())
			if showMnemonic {
				phrase, err := keystore.Mnemonic(key)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), phrase)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key file")
	cmd.Flags().BoolVar(&showMnemonic, "mnemonic", false, "also print the key as a BIP39 backup phrase")
	cmd.Flags().StringVar(&fromMnemonic, "from-mnemonic", "", "restore the key from a BIP39 backup phrase")
	return cmd
}

func newPubkeyCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey",
		Short: "print the public key of a key file (base58 and hex)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(v)
			if err != nil {
				return err
			}
			pk, err := pubkeyOf(key)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"base58": pk.String(),
				"hex":    hex.EncodeToString(pk[:]),
			})
		},
	}
}

type derivedOutput struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

func newDeriveCmd(v *viper.Viper) *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "derive [owner]",
		Short: "derive the config, identity and verification addresses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := program(v)
			if err != nil {
				return err
			}
			d := address.New(prog)
			cfgAddr, err := d.Config()
			if err != nil {
				return err
			}
			out := map[string]derivedOutput{
				"config": {Address: cfgAddr.Address.String(), Bump: cfgAddr.Bump},
			}
			if len(args) == 1 {
				owner, err := id.ParsePubkey(args[0])
				if err != nil {
					return err
				}
				p, err := models.ParsePlatform(platform)
				if err != nil {
					return err
				}
				ident, err := d.Identity(owner, p)
				if err != nil {
					return err
				}
				ver, err := d.Verification(ident.Address)
				if err != nil {
					return err
				}
				out["identity"] = derivedOutput{Address: ident.Address.String(), Bump: ident.Bump}
				out["verification"] = derivedOutput{Address: ver.Address.String(), Bump: ver.Bump}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "github", "platform name or tag")
	return cmd
}

func newHashUsernameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-username <username>",
		Short: "print the username_hash a registration expects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), models.HashUsername(args[0]).String())
			return nil
		},
	}
}

func newSignCmd(v *viper.Viper) *cobra.Command {
	var (
		bodyPath string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "sign a request body and print the bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := loadKey(v)
			if err != nil {
				return err
			}
			prog, err := program(v)
			if err != nil {
				return err
			}
			body, err := readBody(cmd.InOrStdin(), bodyPath)
			if err != nil {
				return err
			}
			signer, err := jwttoken.NewRequestSigner(key, prog.String(), ttl)
			if err != nil {
				return err
			}
			token, err := signer.Sign(body, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&bodyPath, "body", "-", "request body file, - for stdin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Minute, "token lifetime")
	return cmd
}

type notarizeOutput struct {
	Proof        id.Bytes     `json:"proof_data"`
	ProofHash    id.Hash      `json:"proof_hash"`
	Signature    id.Signature `json:"signature"`
	NotaryPubkey id.Pubkey    `json:"notary_pubkey"`
}

func newNotarizeCmd(v *viper.Viper) *cobra.Command {
	var (
		sessionID      string
		transcriptPath string
	)
	cmd := &cobra.Command{
		Use:   "notarize",
		Short: "ask a notary to prove a transcript; prints fields ready for /v1/identities/attest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			transcript, err := readBody(cmd.InOrStdin(), transcriptPath)
			if err != nil {
				return err
			}
			c := client.New(v.GetString(keyNotaryURL))
			att, err := c.Notarize(cmd.Context(), sessionID, transcript)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), notarizeOutput{
				Proof:        att.Proof,
				ProofHash:    models.HashProof(att.Proof),
				Signature:    att.Signature,
				NotaryPubkey: att.NotaryPubkey,
			})
		},
	}
	cmd.Flags().String(keyNotaryURL, "http://localhost:7047", "notary base URL")
	_ = v.BindPFlag(keyNotaryURL, cmd.Flags().Lookup(keyNotaryURL))
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "-", "transcript file, - for stdin")
	return cmd
}

func readBody(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
