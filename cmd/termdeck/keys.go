package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/internal/appconfig"
	"pkt.systems/termdeck/internal/sshkeys"
	"pkt.systems/termdeck/schema"
)

func newKeysCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage SSH private keys",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newKeysListCmd(&cfgPath))
	cmd.AddCommand(newKeysGenerateCmd(&cfgPath))
	cmd.AddCommand(newKeysImportCmd(&cfgPath))
	cmd.AddCommand(newKeysPubCmd(&cfgPath))
	cmd.AddCommand(newKeysRemoveCmd(&cfgPath))
	cmd.AddCommand(newKeysDetectCmd())

	return cmd
}

func openVault(cmd *cobra.Command, cfg appconfig.Config) (*sshkeys.Vault, error) {
	return sshkeys.OpenVault(cfg.Keys.BundlePath, cfg.Keys.VaultDir, pslog.Ctx(cmd.Context()))
}

func newKeysListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			keys, err := records.Keys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, key := range keys {
				location := key.Path
				if key.Vaulted {
					location = "vault"
				}
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", key.ID, key.Name, key.Type, location)
			}
			return nil
		},
	}
}

func newKeysGenerateCmd(cfgPath *string) *cobra.Command {
	var keyType string
	var bits int
	var toFile bool
	var comment string
	cmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a key into the vault, or into keys.dir with --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			cfg, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			if keyType == "" {
				keyType = cfg.Keys.DefaultType
			}
			if bits == 0 {
				bits = cfg.Keys.RSABits
			}
			if toFile {
				path := filepath.Join(cfg.Keys.Dir, "id_"+keyType+"_"+name)
				pub, err := sshkeys.GenerateKeyPair(path, keyType, bits, comment)
				if err != nil {
					return err
				}
				saved, err := records.SaveKey(schema.PrivateKey{Name: name, Path: path, Type: keyType, PublicKey: pub})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "generated key: %s (%s) at %s\n%s\n", saved.Name, saved.ID, path, pub)
				return nil
			}
			vault, err := openVault(cmd, cfg)
			if err != nil {
				return err
			}
			record, err := records.SaveKey(schema.PrivateKey{Name: name, Type: keyType, Vaulted: true})
			if err != nil {
				return err
			}
			pub, err := vault.Generate(record.ID, keyType, bits, comment)
			if err != nil {
				_ = records.DeleteKey(record.ID)
				return err
			}
			record.PublicKey = pub
			if _, err := records.SaveKey(record); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "generated key: %s (%s)\n%s\n", record.Name, record.ID, pub)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyType, "type", "", "key type (ed25519 or rsa); defaults to keys.default_type")
	cmd.Flags().IntVar(&bits, "bits", 0, "key size when using rsa; defaults to keys.rsa_bits")
	cmd.Flags().BoolVar(&toFile, "file", false, "write an OpenSSH key file into keys.dir instead of the vault")
	cmd.Flags().StringVar(&comment, "comment", sshkeys.DefaultComment, "public key comment")
	return cmd
}

func newKeysImportCmd(cfgPath *string) *cobra.Command {
	var name string
	var vaulted bool
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Register an existing private key file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				name = filepath.Base(path)
			}
			cfg, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			record := schema.PrivateKey{Name: name, Type: sshkeys.DetectKeyTypeBytes(data)}
			if !vaulted {
				record.Path = path
				saved, err := records.SaveKey(record)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported key: %s (%s, %s)\n", saved.Name, saved.ID, saved.Type)
				return nil
			}
			vault, err := openVault(cmd, cfg)
			if err != nil {
				return err
			}
			record.Vaulted = true
			record, err = records.SaveKey(record)
			if err != nil {
				return err
			}
			pub, err := vault.Import(record.ID, data)
			if err != nil {
				_ = records.DeleteKey(record.ID)
				return err
			}
			record.PublicKey = pub
			if _, err := records.SaveKey(record); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported key into vault: %s (%s, %s)\n", record.Name, record.ID, record.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name; defaults to the file name")
	cmd.Flags().BoolVar(&vaulted, "vault", false, "encrypt the key material into the vault")
	return cmd
}

func newKeysPubCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pub <key>",
		Short: "Print the authorized_keys line for a saved key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			key, err := findKey(records, args[0])
			if err != nil {
				return fmt.Errorf("key %q: %w", args[0], err)
			}
			pub := key.PublicKey
			if pub == "" && key.Vaulted {
				vault, err := openVault(cmd, cfg)
				if err != nil {
					return err
				}
				if pub, err = vault.LoadPublicKey(key.ID); err != nil {
					return err
				}
			}
			if pub == "" && key.Path != "" {
				data, err := os.ReadFile(key.Path + ".pub")
				if err != nil {
					return err
				}
				pub = strings.TrimSpace(string(data))
			}
			if pub == "" {
				return fmt.Errorf("no public key recorded for %s", key.Name)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pub)
			return err
		},
	}
}

func newKeysRemoveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Forget a saved key; vaulted key material is deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, records, err := openCatalog(cmd, *cfgPath)
			if err != nil {
				return err
			}
			key, err := findKey(records, args[0])
			if err != nil {
				return fmt.Errorf("key %q: %w", args[0], err)
			}
			if key.Vaulted {
				vault, err := openVault(cmd, cfg)
				if err != nil {
					return err
				}
				if err := vault.Remove(key.ID); err != nil {
					return err
				}
			}
			if err := records.DeleteKey(key.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed key: %s\n", key.Name)
			return nil
		},
	}
}

func newKeysDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <path>...",
		Short: "Report the algorithm of private key files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				keyType, err := sshkeys.DetectKeyType(path)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s\t%s\n", path, keyType)
			}
			return nil
		},
	}
}
