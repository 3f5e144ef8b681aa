package state

import (
	"errors"
	"fmt"

	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// Set of errors surfaced to the client submission path.
var (
	ErrInvalidSignature  = errors.New("invalid transaction signature")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrReservedSender    = errors.New("coinbase sender is reserved for block rewards")
)

// SubmitWalletTransaction accepts a signed transaction from a client:
// signature verification, balance check against the durable store, pool
// insert, broadcast. The duplicate of an already known transaction is
// dropped silently and not re-broadcast.
func (s *State) SubmitWalletTransaction(tx tran.Transaction) error {
	s.evHandler("state: SubmitWalletTransaction: tx[%s]", tx)

	if tx.IsCoinbase() {
		return ErrReservedSender
	}

	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	balance, err := s.db.WalletBalance(tx.Sender)
	if err != nil {
		return fmt.Errorf("reading wallet balance: %w", err)
	}

	if balance < tx.Amount.Float64()+tx.Fee.Float64() {
		return ErrInsufficientFunds
	}

	if !s.mempool.Add(tx) {
		s.evHandler("state: SubmitWalletTransaction: duplicate tx[%s] dropped", tx.Hash())
		return nil
	}

	s.Worker.SignalBroadcast(network.TransactionPayload(tx))

	return nil
}

// ProcessPeerTransaction accepts a transaction gossiped by a peer. Known
// transactions are dropped before any work happens, which breaks broadcast
// loops. The peer path does not re-check balances.
func (s *State) ProcessPeerTransaction(tx tran.Transaction) error {
	if s.mempool.Exists(tx) {
		return nil
	}

	if tx.IsCoinbase() {
		return ErrReservedSender
	}

	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if s.mempool.Add(tx) {
		s.evHandler("state: ProcessPeerTransaction: accepted tx[%s]", tx.Hash())
		s.Worker.SignalBroadcast(network.TransactionPayload(tx))
	}

	return nil
}

// TransactionExists reports whether the pool already knows the transaction.
func (s *State) TransactionExists(tx tran.Transaction) bool {
	return s.mempool.Exists(tx)
}

// TakeForMining claims up to howMany pooled transactions for a mining
// attempt.
func (s *State) TakeForMining(howMany int) []tran.Transaction {
	return s.mempool.TakeForMining(howMany)
}

// ProcessMined settles the pool's pending set after a block lands, locally
// mined or adopted from the network.
func (s *State) ProcessMined(locally bool, txs []tran.Transaction) {
	s.mempool.ProcessMined(locally, txs)
}

// QueryMempoolLength returns the current number of active transactions.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryMempool returns a copy of the active transactions.
func (s *State) QueryMempool() []tran.Transaction {
	return s.mempool.Copy()
}
