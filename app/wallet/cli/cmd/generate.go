package cmd

import (
	"fmt"

	"github.com/minichain/node/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new wallet keypair",
	Long:  `Generate a fresh secp256k1 keypair, write the private key to the key file, and print the derived address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.New()
		if err != nil {
			return err
		}

		if err := w.Save(keyPath); err != nil {
			return fmt.Errorf("writing key file: %w", err)
		}

		export := w.Export()
		fmt.Println("key file:  ", keyPath)
		fmt.Println("public key:", export.PublicKey)
		fmt.Println("address:   ", export.Address)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
