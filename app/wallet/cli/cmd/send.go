package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minichain/node/foundation/blockchain/tran"
	"github.com/minichain/node/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	sendRecipient string
	sendAmount    float64
	sendFee       float64
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
	Long:  `Construct a transaction from the flags, sign it locally with the key file, and submit it to the node.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.Load(keyPath)
		if err != nil {
			return err
		}

		tx, err := tran.New(w.Address(), sendRecipient, sendAmount, sendFee, time.Now().UTC().Unix())
		if err != nil {
			return err
		}

		if err := tx.Sign(w); err != nil {
			return err
		}

		data, err := json.Marshal(tx)
		if err != nil {
			return err
		}

		resp, err := http.Post(nodeURL+"/v1/tx/submit", "application/json", bytes.NewReader(data))
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
	sendCmd.Flags().StringVarP(&sendRecipient, "to", "t", "", "recipient address")
	sendCmd.Flags().Float64VarP(&sendAmount, "amount", "a", 0, "amount to transfer")
	sendCmd.Flags().Float64VarP(&sendFee, "fee", "f", 0, "fee offered to the miner")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(sendCmd)
}
