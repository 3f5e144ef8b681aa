package state

import (
	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// RetrieveNodeID returns the configured node id.
func (s *State) RetrieveNodeID() string {
	return s.nodeID
}

// RetrieveHost returns this node's peer server address.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveMinerAddress returns the wallet address credited by this node's
// coinbase transactions.
func (s *State) RetrieveMinerAddress() string {
	return s.minerAddress
}

// RetrieveTip returns a copy of the current latest block.
func (s *State) RetrieveTip() block.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Tip()
}

// RetrieveChainHeight returns the number of blocks in the local chain.
func (s *State) RetrieveChainHeight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Height()
}

// RetrieveChain returns a copy of the full chain for streaming to a peer.
func (s *State) RetrieveChain() []block.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Blocks()
}

// RetrieveDifficulty returns the proof-of-work target.
func (s *State) RetrieveDifficulty() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Difficulty()
}

// =============================================================================
// Durable store lookups backing the client RPC surface.

// QueryTransaction returns a persisted transaction by hash.
func (s *State) QueryTransaction(hash string) (tran.Transaction, error) {
	return s.db.GetTransaction(hash)
}

// QueryWalletTransactions returns the persisted transactions touching an
// address.
func (s *State) QueryWalletTransactions(address string) ([]tran.Transaction, error) {
	return s.db.TransactionsByWallet(address)
}

// QueryWalletBalance recomputes an address balance from the durable index.
func (s *State) QueryWalletBalance(address string) (float64, error) {
	return s.db.WalletBalance(address)
}

// QueryBlock returns a persisted block by hash.
func (s *State) QueryBlock(hash string) (block.Block, error) {
	return s.db.GetBlock(hash)
}

// QueryAllBlocks returns every persisted block ordered by index.
func (s *State) QueryAllBlocks() ([]block.Block, error) {
	return s.db.AllBlocks()
}
