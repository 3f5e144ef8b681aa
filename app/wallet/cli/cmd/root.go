// Package cmd implements the wallet command line tooling.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	keyPath string
	nodeURL string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage a wallet and talk to a node",
	Long:  `Generate keypairs, derive addresses, and submit signed transactions to a running node.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&keyPath, "key", "k", "wallet.ecdsa", "path to the private key file")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "node", "n", "http://localhost:8080", "base url of the node's client API")
}
