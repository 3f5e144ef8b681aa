package worker

import (
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/state"
)

// miningOperations runs mining attempts back to back. The first attempt
// waits for the first chain sync so the node never mines on a stale tip.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for !w.isShutdown() {
		if !w.state.FirstSyncDone() {
			w.sleep(flagPollInterval)
			continue
		}

		w.runMiningOperation()
	}
}

// runMiningOperation performs a single mining attempt: claim transactions,
// build a candidate, search for a nonce while polling for preemption, and
// commit on success.
func (w *Worker) runMiningOperation() {
	data := w.state.TakeForMining(maxTxPerBlock)
	if len(data) == 0 && !w.mineWithoutTransactions {
		w.sleep(miningIdleDelay)
		return
	}

	candidate, difficulty := w.state.PrepareBlockForMining(data)
	target := strings.Repeat("0", difficulty)

	w.evHandler("worker: runMiningOperation: MINING: started: block[%d] txs[%d] difficulty[%d]", candidate.Index, len(candidate.Transactions), difficulty)
	t := time.Now()

	var attempts uint64
	for !strings.HasPrefix(candidate.Hash, target) {
		candidate.MineStep()
		attempts++

		// Poll for preemption without ever blocking the hash loop, and yield
		// so a tight search cannot starve the scheduler.
		select {
		case b := <-w.state.MiningInterrupt():
			w.preempt(b)
			return

		case <-w.shut:
			w.state.ProcessMined(false, nil)
			return

		default:
		}

		runtime.Gosched()
	}

	w.evHandler("worker: runMiningOperation: MINING: solved: nonce[%d] attempts[%d] duration[%v]", candidate.Nonce, attempts, time.Since(t))

	// The chain may have moved while we were hashing. The re-check happens
	// under the write lock inside CommitMinedBlock; a refused commit returns
	// the claimed transactions and restarts the attempt.
	if err := w.state.CommitMinedBlock(candidate); err != nil {
		if errors.Is(err, state.ErrChainMoved) {
			w.evHandler("worker: runMiningOperation: MINING: chain moved, discarding candidate")
		} else {
			w.evHandler("worker: runMiningOperation: MINING: commit: ERROR: %s", err)
		}
		w.state.ProcessMined(false, nil)
		return
	}

	w.state.ProcessMined(true, nil)
	w.SignalBroadcast(network.BlockPayload(candidate))
	go w.state.PersistBlock(candidate)

	w.evHandler("worker: runMiningOperation: MINING: block[%d] added: hash[%s]", candidate.Index, candidate.Hash)

	// Let other miners win sometimes.
	w.sleep(fairnessDelay)
}

// preempt abandons the current candidate for a block (or replacement chain
// tip) that arrived while mining. Every queued interrupt is reconciled
// against the pool; the claimed transactions the winning blocks did not use
// return to the active set.
func (w *Worker) preempt(b block.Block) {
	w.evHandler("worker: preempt: MINING: interrupted by block[%d] hash[%s]", b.Index, b.Hash)

	for {
		w.state.ProcessMined(false, b.Transactions)
		go w.state.PersistBlock(b)

		select {
		case b = <-w.state.MiningInterrupt():
		default:
			return
		}
	}
}
