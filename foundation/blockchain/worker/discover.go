package worker

import (
	"github.com/minichain/node/foundation/blockchain/network"
)

// discoverOperations keeps the peer set fresh through the bootstrap
// exchange: register with every known peer and union the peer sets they
// reply with. The initial delay gives peer servers a chance to bind.
func (w *Worker) discoverOperations() {
	w.evHandler("worker: discoverOperations: G started")
	defer w.evHandler("worker: discoverOperations: G completed")

	w.sleep(discoverInitialDelay)

	for !w.isShutdown() {
		w.runDiscoverOperation()

		// Let the synchronizer know there is at least one pass worth of
		// peers to work with.
		w.state.SetFirstDiscoverDone()

		w.sleep(discoverInterval)
	}
}

// runDiscoverOperation registers this node with each known peer and adds
// every address the peer replies with. Unreachable peers are pruned.
func (w *Worker) runDiscoverOperation() {
	w.evHandler("worker: runDiscoverOperation: started")
	defer w.evHandler("worker: runDiscoverOperation: completed")

	self := network.Registration{
		ID:      w.state.RetrieveNodeID(),
		Address: w.state.RetrieveHost(),
	}

	for _, address := range w.state.RetrieveKnownPeers() {
		peers, err := network.Register(address, self)
		if err != nil {
			w.evHandler("worker: runDiscoverOperation: peer[%s] unreachable, removing: %s", address, err)
			w.state.RemoveKnownPeer(address)
			continue
		}

		for _, peerAddress := range peers {
			if peerAddress == self.Address {
				continue
			}
			if w.state.AddKnownPeer(peerAddress) {
				w.evHandler("worker: runDiscoverOperation: new peer discovered: %s", peerAddress)
			}
		}
	}
}
