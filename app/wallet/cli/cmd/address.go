package cmd

import (
	"fmt"

	"github.com/minichain/node/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

// addressCmd represents the address command.
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the wallet address",
	Long:  `Print the address derived from the private key in the key file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.Load(keyPath)
		if err != nil {
			return err
		}

		fmt.Println(w.Address())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
}
