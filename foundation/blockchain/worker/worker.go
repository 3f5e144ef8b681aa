// Package worker implements the node's long-lived actors: the peer server,
// the miner, the synchronizer, the discoverer, and the broadcaster.
package worker

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/state"
)

// Operating intervals and limits for the actors.
const (
	// syncInterval is how often the synchronizer polls peers for a longer
	// chain.
	syncInterval = 120 * time.Second

	// discoverInterval is how often the discoverer re-runs the bootstrap
	// exchange.
	discoverInterval = 60 * time.Second

	// discoverInitialDelay gives peer servers time to bind before the first
	// discovery pass.
	discoverInitialDelay = 3 * time.Second

	// flagPollInterval is the backoff used while waiting on the write-once
	// startup flags.
	flagPollInterval = time.Second

	// fairnessDelay is slept after a successful mine so one fast miner does
	// not monopolize the chain.
	fairnessDelay = 2 * time.Second

	// miningIdleDelay is slept when the pool is empty and the node is
	// configured to mine only when transactions exist.
	miningIdleDelay = time.Second

	// maxTxPerBlock bounds how many pool transactions a candidate block
	// carries, coinbase excluded.
	maxTxPerBlock = 10

	// maxBroadcastRequests bounds the broadcast queue. When it fills, new
	// broadcast requests are dropped rather than stalling the caller.
	maxBroadcastRequests = 100
)

// Config holds the worker knobs the daemon exposes.
type Config struct {
	MineWithoutTransactions bool
}

// Worker manages the background workflows for the node.
type Worker struct {
	state     *state.State
	evHandler state.EventHandler

	wg       sync.WaitGroup
	shut     chan struct{}
	listener net.Listener

	broadcast chan network.Payload

	mineWithoutTransactions bool
}

// Run binds the peer server socket, registers the worker with the state
// package, and starts the actors. A bind failure is fatal to the node.
func Run(st *state.State, cfg Config, evHandler state.EventHandler) (*Worker, error) {
	listener, err := net.Listen("tcp", st.RetrieveHost())
	if err != nil {
		return nil, fmt.Errorf("binding peer server on %q: %w", st.RetrieveHost(), err)
	}

	w := Worker{
		state:                   st,
		evHandler:               evHandler,
		shut:                    make(chan struct{}),
		listener:                listener,
		broadcast:               make(chan network.Payload, maxBroadcastRequests),
		mineWithoutTransactions: cfg.MineWithoutTransactions,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.serverOperations,
		w.miningOperations,
		w.syncOperations,
		w.discoverOperations,
		w.broadcastOperations,
	}

	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w, nil
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	close(w.shut)
	w.listener.Close()
	w.wg.Wait()
}

// SignalBroadcast queues a tagged payload for delivery to every known peer.
// Broadcast is fire-and-forget: a full queue drops the request.
func (w *Worker) SignalBroadcast(payload network.Payload) {
	select {
	case w.broadcast <- payload:
	default:
		w.evHandler("worker: SignalBroadcast: queue full, %s dropped", payload.Command)
	}
}

// Addr returns the address the peer server is bound to. Useful when the
// configured host picked an ephemeral port.
func (w *Worker) Addr() net.Addr {
	return w.listener.Addr()
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// sleep waits for the duration or until shutdown, whichever comes first.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-w.shut:
	}
}
