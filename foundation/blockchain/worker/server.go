package worker

import (
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/state"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// readDeadline bounds how long an inbound session may take to deliver its
// request frame.
const readDeadline = 5 * time.Second

// serverOperations accepts inbound peer sessions and dispatches their framed
// messages.
func (w *Worker) serverOperations() {
	w.evHandler("worker: serverOperations: G started: listening on %s", w.listener.Addr())
	defer w.evHandler("worker: serverOperations: G completed")

	for {
		conn, err := w.listener.Accept()
		if err != nil {
			if w.isShutdown() {
				return
			}
			w.evHandler("worker: serverOperations: accept: ERROR: %s", err)
			continue
		}

		go w.handleSession(conn)
	}
}

// handleSession reads one framed request from the session and dispatches it.
// Every failure on this path is drop-and-continue: the session is closed and
// the node keeps running.
func (w *Worker) handleSession(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readDeadline))

	req, err := network.ReadRequest(conn)
	if err != nil {
		w.evHandler("worker: handleSession: malformed frame: %s", err)
		return
	}

	switch req.Command {
	case network.CmdRegister:
		w.handleRegister(conn, req.Data)

	case network.CmdTransaction:
		w.handleTransaction(req.Data)

	case network.CmdNewBlock:
		w.handleNewBlock(req.Data)

	case network.CmdGetChain:
		if err := network.WriteChain(conn, w.state.RetrieveChain()); err != nil {
			w.evHandler("worker: handleSession: streaming chain: %s", err)
		}

	default:
		w.evHandler("worker: handleSession: unknown command %q", req.Command)
	}
}

// handleRegister inserts the caller into the peer set and replies with the
// full set of known peer addresses.
func (w *Worker) handleRegister(conn net.Conn, data string) {
	var reg network.Registration
	if err := json.Unmarshal([]byte(data), &reg); err != nil {
		w.evHandler("worker: handleRegister: malformed registration: %s", err)
		return
	}

	if reg.Address != "" && reg.Address != w.state.RetrieveHost() {
		if w.state.AddKnownPeer(reg.Address) {
			w.evHandler("worker: handleRegister: registered peer node[%s] address[%s]", reg.ID, reg.Address)
		}
	}

	if err := json.NewEncoder(conn).Encode(w.state.RetrieveAllPeers()); err != nil {
		w.evHandler("worker: handleRegister: replying peer set: %s", err)
	}
}

// handleTransaction validates and pools a gossiped transaction. Duplicates
// are dropped before verification, which breaks re-broadcast loops.
func (w *Worker) handleTransaction(data string) {
	var tx tran.Transaction
	if err := json.Unmarshal([]byte(data), &tx); err != nil {
		w.evHandler("worker: handleTransaction: malformed transaction: %s", err)
		return
	}

	if err := w.state.ProcessPeerTransaction(tx); err != nil {
		w.evHandler("worker: handleTransaction: rejected: %s", err)
	}
}

// handleNewBlock validates and appends a gossiped block, preempting the
// miner on success. Stale blocks drop silently: that is what makes NEW_BLOCK
// idempotent.
func (w *Worker) handleNewBlock(data string) {
	var b block.Block
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		w.evHandler("worker: handleNewBlock: malformed block: %s", err)
		return
	}

	if err := w.state.ProcessPeerBlock(b); err != nil {
		if errors.Is(err, state.ErrStaleBlock) {
			return
		}
		w.evHandler("worker: handleNewBlock: rejected: %s", err)
	}
}
