package block_test

import (
	"strings"
	"testing"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/currency"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// mine searches for a nonce at the specified difficulty.
func mine(b *block.Block, difficulty int) {
	target := strings.Repeat("0", difficulty)
	for !strings.HasPrefix(b.Hash, target) {
		b.MineStep()
	}
}

func Test_HashDeterministic(t *testing.T) {
	t.Log("Given the need for a deterministic block hash.")
	{
		cb := tran.NewCoinbase("miner", currency.Amount(5), 100)
		b := block.New(1, 200, []tran.Transaction{cb}, "prev")

		if b.Hash != b.CalculateHash() {
			t.Fatalf("\t%s\tShould stamp the hash at construction.", failed)
		}
		t.Logf("\t%s\tShould stamp the hash at construction.", success)

		other := block.New(1, 200, []tran.Transaction{cb}, "prev")
		if other.Hash != b.Hash {
			t.Fatalf("\t%s\tShould hash identical blocks identically.", failed)
		}
		t.Logf("\t%s\tShould hash identical blocks identically.", success)

		other.Nonce = 99
		if other.CalculateHash() == b.Hash {
			t.Fatalf("\t%s\tShould change the hash when the nonce changes.", failed)
		}
		t.Logf("\t%s\tShould change the hash when the nonce changes.", success)
	}
}

func Test_MineStep(t *testing.T) {
	t.Log("Given the need to mine a block one step at a time.")
	{
		const difficulty = 1

		b := block.New(1, 200, nil, "prev")
		mine(&b, difficulty)

		if !b.IsValid(difficulty) {
			t.Fatalf("\t%s\tShould produce a valid block at difficulty %d.", failed, difficulty)
		}
		t.Logf("\t%s\tShould produce a valid block at difficulty %d.", success, difficulty)

		if !strings.HasPrefix(b.Hash, "0") {
			t.Fatalf("\t%s\tShould have the difficulty prefix: %s.", failed, b.Hash)
		}
		t.Logf("\t%s\tShould have the difficulty prefix.", success)
	}
}

func Test_IsValidDetectsTampering(t *testing.T) {
	t.Log("Given the need to reject blocks whose hash does not recompute.")
	{
		const difficulty = 1

		cb := tran.NewCoinbase("miner", currency.Amount(5), 100)
		b := block.New(1, 200, []tran.Transaction{cb}, "prev")
		mine(&b, difficulty)

		b.Transactions[0].Recipient = "thief"

		if b.IsValid(difficulty) {
			t.Fatalf("\t%s\tShould reject a block with altered transactions.", failed)
		}
		t.Logf("\t%s\tShould reject a block with altered transactions.", success)
	}
}

func Test_Coinbase(t *testing.T) {
	t.Log("Given the need to find a block's reward transaction.")
	{
		if _, ok := (block.Block{}).Coinbase(); ok {
			t.Fatalf("\t%s\tShould report no coinbase for an empty block.", failed)
		}
		t.Logf("\t%s\tShould report no coinbase for an empty block.", success)

		cb := tran.NewCoinbase("miner", currency.Amount(5), 100)
		b := block.New(1, 200, []tran.Transaction{cb}, "prev")

		got, ok := b.Coinbase()
		if !ok || got.Recipient != "miner" {
			t.Fatalf("\t%s\tShould return the trailing coinbase.", failed)
		}
		t.Logf("\t%s\tShould return the trailing coinbase.", success)
	}
}
