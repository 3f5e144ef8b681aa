package worker

import (
	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/chain"
	"github.com/minichain/node/foundation/blockchain/network"
)

// syncOperations periodically reconciles the local chain with the network by
// adopting the longest valid peer chain. The first pass waits for the first
// discovery so there are peers to ask.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for !w.isShutdown() {
		if !w.state.FirstDiscoverDone() {
			w.sleep(flagPollInterval)
			continue
		}

		w.runSyncOperation()
		w.state.SetFirstSyncDone()

		w.sleep(syncInterval)
	}
}

// runSyncOperation polls every peer for its full chain and replaces the
// local chain when a strictly longer valid one is found. On equal lengths
// the local chain is retained. Dead peers are pruned.
func (w *Worker) runSyncOperation() {
	w.evHandler("worker: runSyncOperation: started")
	defer w.evHandler("worker: runSyncOperation: completed")

	maxHeight := w.state.RetrieveChainHeight()
	var longest []block.Block

	for _, address := range w.state.RetrieveKnownPeers() {
		blocks, err := network.FetchChain(address)
		if err != nil {
			w.evHandler("worker: runSyncOperation: peer[%s] unreachable, removing: %s", address, err)
			w.state.RemoveKnownPeer(address)
			continue
		}

		if len(blocks) > maxHeight && chain.IsValidChain(blocks) {
			maxHeight = len(blocks)
			longest = blocks
		}
	}

	if longest == nil {
		w.evHandler("worker: runSyncOperation: local chain is the longest")
		return
	}

	if err := w.state.AdoptPeerChain(longest); err != nil {
		w.evHandler("worker: runSyncOperation: adopting chain: ERROR: %s", err)
	}
}
