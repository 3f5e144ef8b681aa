package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minichain/node/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var balanceAddress string

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Query a wallet balance",
	Long:  `Query the node for the balance of an address. Defaults to the address of the key file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		address := balanceAddress
		if address == "" {
			w, err := wallet.Load(keyPath)
			if err != nil {
				return err
			}
			address = w.Address()
		}

		resp, err := http.Get(nodeURL + "/v1/wallet/balance/" + address)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			return errors.New(string(body))
		}

		fmt.Println(string(body))
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVarP(&balanceAddress, "address", "a", "", "address to query (defaults to the key file's address)")

	rootCmd.AddCommand(balanceCmd)
}
