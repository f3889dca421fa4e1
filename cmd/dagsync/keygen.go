package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/dagsync/crypto/keys"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create a new identity key pair",
	RunE:  keygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func keygen(cmd *cobra.Command, args []string) error {
	keyfile := conf.Keyfile()

	if _, err := os.Stat(keyfile); err == nil {
		return fmt.Errorf("a key already lives under %s", keyfile)
	}

	key, err := keys.GenerateECDSAKey()
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	if err := keys.NewSimpleKeyfile(keyfile).WriteKey(key); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	fmt.Printf("Private key saved to: %s\n", keyfile)
	fmt.Printf("Public key: %s\n", keys.PublicKeyHex(&key.PublicKey))

	return nil
}
