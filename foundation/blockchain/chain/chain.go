// Package chain maintains the append-only list of blocks, the consensus
// checks applied to new blocks and replacement chains, and the construction
// of mining candidates.
package chain

import (
	"errors"
	"fmt"
	"time"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/currency"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// Consensus constants for the chain.
const (
	// DefaultDifficulty is the required count of leading hexadecimal zero
	// characters in a valid block hash.
	DefaultDifficulty = 5

	// Reward is the amount granted to a miner per block, on top of the fees
	// collected from the block's transactions.
	Reward = 5

	// MaxSupply caps how much currency mining can mint. The cap is advisory:
	// it is enforced when the coinbase is constructed, not re-checked on the
	// commit paths.
	MaxSupply = 21_000_000
)

// genesisTimestamp fixes the genesis block so every node starts from the
// same chain.
const genesisTimestamp = 1627926783

// Set of errors returned when validating a new block.
var (
	ErrWrongIndex        = errors.New("block index does not extend the tip")
	ErrBrokenLink        = errors.New("previous hash does not match the tip")
	ErrInvalidProof      = errors.New("block hash does not satisfy the difficulty")
	ErrMisplacedCoinbase = errors.New("coinbase allowed only as the final transaction")
)

// Chain is a contiguous ordered list of blocks starting at a fixed genesis.
// It carries no lock of its own: the node serializes access with a single
// readers-writer lock around the whole value.
type Chain struct {
	blocks     []block.Block
	difficulty int
}

// New constructs a chain holding only the genesis block.
func New(difficulty int) *Chain {
	if difficulty <= 0 {
		difficulty = DefaultDifficulty
	}

	genesis := block.New(0, genesisTimestamp, nil, "")

	return &Chain{
		blocks:     []block.Block{genesis},
		difficulty: difficulty,
	}
}

// Difficulty returns the proof-of-work target for this chain.
func (c *Chain) Difficulty() int {
	return c.difficulty
}

// Height returns the number of blocks in the chain.
func (c *Chain) Height() int {
	return len(c.blocks)
}

// Tip returns the latest block.
func (c *Chain) Tip() block.Block {
	return c.blocks[len(c.blocks)-1]
}

// Blocks returns a copy of the chain for streaming and persistence.
func (c *Chain) Blocks() []block.Block {
	blocks := make([]block.Block, len(c.blocks))
	copy(blocks, c.blocks)
	return blocks
}

// IsValidNewBlock validates the block extends the current tip: the link and
// index match, the proof of work recomputes and meets the difficulty, every
// non-coinbase transaction carries a valid signature, and a coinbase appears
// only as the block's final transaction.
func (c *Chain) IsValidNewBlock(b block.Block) error {
	tip := c.Tip()

	if b.Index != tip.Index+1 {
		return fmt.Errorf("%w: got %d, tip %d", ErrWrongIndex, b.Index, tip.Index)
	}

	if b.PrevHash != tip.Hash {
		return ErrBrokenLink
	}

	if !b.IsValid(c.difficulty) {
		return ErrInvalidProof
	}

	for i, tx := range b.Transactions {
		if tx.IsCoinbase() && i != len(b.Transactions)-1 {
			return ErrMisplacedCoinbase
		}

		if err := tx.Verify(); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.Hash(), err)
		}
	}

	return nil
}

// Append adds a block to the chain. Callers validate with IsValidNewBlock
// first, under the same exclusive lock.
func (c *Chain) Append(b block.Block) {
	c.blocks = append(c.blocks, b)
}

// Replace swaps the chain wholesale for a longer one discovered during sync.
// Only legal with an exclusive writer.
func (c *Chain) Replace(blocks []block.Block) {
	c.blocks = blocks
}

// PrepareBlockForMining builds a candidate on the current tip from the
// specified transactions and returns it together with the sum of fees and
// the difficulty target. The caller appends the coinbase before mining.
func (c *Chain) PrepareBlockForMining(data []tran.Transaction) (block.Block, currency.Amount, int) {
	tip := c.Tip()

	var fees currency.Amount
	for _, tx := range data {
		fees = fees.Add(tx.Fee)
	}

	candidate := block.New(tip.Index+1, uint64(time.Now().UTC().Unix()), data, tip.Hash)

	return candidate, fees, c.difficulty
}

// MinerTransaction returns the coinbase granting the reward plus the block's
// fees to the miner address. Once minting the reward would push the supply
// past the cap, no coinbase is produced.
func (c *Chain) MinerTransaction(address string, fees currency.Amount) (tran.Transaction, bool) {
	minted := uint64(len(c.blocks)-1) * Reward
	if minted+Reward > MaxSupply {
		return tran.Transaction{}, false
	}

	amount := currency.Amount(Reward).Add(fees)

	return tran.NewCoinbase(address, amount, time.Now().UTC().Unix()), true
}

// IsValidChain reports whether every adjacent pair of blocks holds the
// previous-hash link, consecutive indexes, and the hash recomputation.
// Proof of work is not
// re-checked here: the function runs during sync and trusts that honest
// peers validated it before acceptance.
func IsValidChain(blocks []block.Block) bool {
	if len(blocks) == 0 {
		return false
	}

	for i := 1; i < len(blocks); i++ {
		if blocks[i].PrevHash != blocks[i-1].Hash {
			return false
		}

		if blocks[i].Hash != blocks[i].CalculateHash() {
			return false
		}

		if blocks[i].Index != blocks[i-1].Index+1 {
			return false
		}
	}

	return true
}
