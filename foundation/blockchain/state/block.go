package state

import (
	"errors"
	"fmt"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// ErrStaleBlock is returned when a received block does not advance the local
// chain. Peer handling treats it as a silent drop.
var ErrStaleBlock = errors.New("block is stale or already known")

// ErrChainMoved is returned when a mined candidate no longer attaches to the
// tip because the chain advanced during mining.
var ErrChainMoved = errors.New("chain moved during mining")

// ProcessPeerBlock handles a NEW_BLOCK received from the network: early-drop
// of stale or duplicate blocks, validation and append under the write lock,
// miner preemption, re-broadcast, and asynchronous persistence.
func (s *State) ProcessPeerBlock(b block.Block) error {

	// Cheap idempotency check before taking the write lock.
	s.mu.RLock()
	tip := s.chain.Tip()
	s.mu.RUnlock()

	if b.Index <= tip.Index || b.Hash == tip.Hash {
		return ErrStaleBlock
	}

	s.mu.Lock()
	if err := s.chain.IsValidNewBlock(b); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("rejecting peer block %d: %w", b.Index, err)
	}
	s.chain.Append(b)
	s.mu.Unlock()

	s.evHandler("state: ProcessPeerBlock: appended block[%d] hash[%s]", b.Index, b.Hash)

	s.SignalMiningInterrupt(b)
	s.Worker.SignalBroadcast(network.BlockPayload(b))

	go s.PersistBlock(b)

	return nil
}

// PrepareBlockForMining builds a mining candidate from the specified
// transactions under a read lock, appending the coinbase reward when the
// supply cap still allows one. The lock is released before any hashing
// starts.
func (s *State) PrepareBlockForMining(data []tran.Transaction) (block.Block, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidate, fees, difficulty := s.chain.PrepareBlockForMining(data)

	if coinbase, ok := s.chain.MinerTransaction(s.minerAddress, fees); ok {
		candidate.Transactions = append(candidate.Transactions, coinbase)
	} else {
		s.evHandler("state: PrepareBlockForMining: supply cap reached, no coinbase")
	}

	candidate.Hash = candidate.CalculateHash()

	return candidate, difficulty
}

// CommitMinedBlock appends a successfully mined candidate. The candidate is
// re-validated under the write lock: the chain may have moved during mining,
// in which case the commit is refused and the miner restarts.
func (s *State) CommitMinedBlock(b block.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chain.IsValidNewBlock(b); err != nil {
		return fmt.Errorf("%w: %s", ErrChainMoved, err)
	}

	s.chain.Append(b)
	return nil
}

// AdoptPeerChain replaces the local chain wholesale with a strictly longer
// valid one, preempts any in-flight mining with the new tip, and persists
// every block and transaction of the adopted chain.
func (s *State) AdoptPeerChain(blocks []block.Block) error {
	s.mu.Lock()
	s.chain.Replace(blocks)
	tip := s.chain.Tip()
	s.mu.Unlock()

	s.evHandler("state: AdoptPeerChain: replaced chain, new height[%d] tip[%s]", len(blocks), tip.Hash)

	s.SignalMiningInterrupt(tip)

	if err := s.db.StoreChain(blocks); err != nil {
		return fmt.Errorf("persisting adopted chain: %w", err)
	}

	return nil
}

// PersistBlock stores a block and its transactions. Persistence failures are
// reported through the event handler; the block is already canonical in
// memory.
func (s *State) PersistBlock(b block.Block) {
	if err := s.db.StoreBlock(b); err != nil {
		s.evHandler("state: PersistBlock: ERROR: block[%s]: %s", b.Hash, err)
		return
	}

	for _, tx := range b.Transactions {
		if err := s.db.StoreTransaction(tx); err != nil {
			s.evHandler("state: PersistBlock: ERROR: tx[%s]: %s", tx.Hash(), err)
		}
	}
}
