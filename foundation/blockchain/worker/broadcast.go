package worker

import (
	"github.com/minichain/node/foundation/blockchain/network"
)

// broadcastOperations drains the broadcast queue, sending each tagged
// payload to every known peer except this node.
func (w *Worker) broadcastOperations() {
	w.evHandler("worker: broadcastOperations: G started")
	defer w.evHandler("worker: broadcastOperations: G completed")

	for {
		select {
		case payload := <-w.broadcast:
			if !w.isShutdown() {
				w.runBroadcastOperation(payload)
			}

		case <-w.shut:
			return
		}
	}
}

// runBroadcastOperation delivers the payload peer by peer. Delivery is
// fire-and-forget: a failed session removes the peer and the broadcast
// continues.
func (w *Worker) runBroadcastOperation(payload network.Payload) {
	for _, address := range w.state.RetrieveKnownPeers() {
		if err := network.Send(address, payload.Command, payload.Value); err != nil {
			w.evHandler("worker: runBroadcastOperation: peer[%s] unreachable, removing: %s", address, err)
			w.state.RemoveKnownPeer(address)
		}
	}
}
