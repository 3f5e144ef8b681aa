// Package block defines the block structure, its deterministic hash, and the
// single proof-of-work step the mining loop interleaves with preemption
// checks.
package block

import (
	"fmt"
	"strings"

	"github.com/minichain/node/foundation/blockchain/signature"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// Block represents a group of transactions appended to the chain. The last
// transaction, when present, is the miner's coinbase.
type Block struct {
	Index        uint64             `json:"index"`
	Timestamp    uint64             `json:"timestamp"`
	Transactions []tran.Transaction `json:"transactions"`
	PrevHash     string             `json:"previous_hash"`
	Hash         string             `json:"hash"`
	Nonce        uint64             `json:"nonce"`
}

// New constructs a block and stamps its hash. The genesis block uses an
// empty previous hash.
func New(index uint64, timestamp uint64, transactions []tran.Transaction, prevHash string) Block {
	b := Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: transactions,
		PrevHash:     prevHash,
	}

	b.Hash = b.CalculateHash()
	return b
}

// CalculateHash produces the hex digest over the block fields. Transactions
// participate through their own hashes, concatenated in block order.
func (b Block) CalculateHash() string {
	var sb strings.Builder
	for _, tx := range b.Transactions {
		sb.WriteString(tx.Hash())
	}

	data := fmt.Sprintf("%d%d%s%s%d", b.Index, b.Timestamp, sb.String(), b.PrevHash, b.Nonce)
	return signature.Hash(data)
}

// MineStep advances the proof-of-work search by a single nonce increment and
// rehash. It is exposed as one step so the mining loop can poll for
// preemption between calls.
func (b *Block) MineStep() {
	b.Nonce++
	b.Hash = b.CalculateHash()
}

// IsValid reports whether the stored hash recomputes and satisfies the
// difficulty target of leading hexadecimal zero characters.
func (b Block) IsValid(difficulty int) bool {
	if b.Hash != b.CalculateHash() {
		return false
	}

	return strings.HasPrefix(b.Hash, strings.Repeat("0", difficulty))
}

// Coinbase returns the block's reward transaction when one is present.
func (b Block) Coinbase() (tran.Transaction, bool) {
	if len(b.Transactions) == 0 {
		return tran.Transaction{}, false
	}

	last := b.Transactions[len(b.Transactions)-1]
	if !last.IsCoinbase() {
		return tran.Transaction{}, false
	}

	return last, true
}
