// Package public maintains the group of handlers for public client access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/minichain/node/business/web/errs"
	"github.com/minichain/node/foundation/blockchain/database"
	"github.com/minichain/node/foundation/blockchain/state"
	"github.com/minichain/node/foundation/blockchain/tran"
	"github.com/minichain/node/foundation/blockchain/wallet"
	"github.com/minichain/node/foundation/events"
	"github.com/minichain/node/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Health is the static liveness probe.
func (h Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Status string `json:"status"`
	}{
		Status: "OK",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	h.Log.Infow("events", "traceid", v.TraceID, "message", "websocket open")

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns a summary of the node: the tip, the chain height, the
// mempool length, and the known peers.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tip := h.State.RetrieveTip()

	resp := status{
		NodeID:        h.State.RetrieveNodeID(),
		MinerAddress:  h.State.RetrieveMinerAddress(),
		LatestHash:    tip.Hash,
		LatestIndex:   tip.Index,
		ChainHeight:   h.State.RetrieveChainHeight(),
		MempoolLength: h.State.QueryMempoolLength(),
		KnownPeers:    h.State.RetrieveKnownPeers(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction adds a new signed transaction to the mempool and
// broadcasts it.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var payload submitTx
	if err := web.Decode(r, &payload); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx, err := toTransaction(payload.Sender, payload.Recipient, payload.Amount, payload.Fee, payload.Timestamp)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	tx.Signature = payload.Signature

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx.Hash())

	if err := h.State.SubmitWalletTransaction(tx); err != nil {
		return submitError(err)
	}

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
	}{
		Status: "transaction added to mempool",
		Hash:   tx.Hash(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignTransaction signs a transaction with key material shipped in the
// request and returns it without submitting. Learning use only.
func (h Handlers) SignTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tx, err := h.signFromRequest(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// SignSubmitTransaction signs a transaction with key material shipped in the
// request and submits it. Learning use only.
func (h Handlers) SignSubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tx, err := h.signFromRequest(r)
	if err != nil {
		return err
	}

	if err := h.State.SubmitWalletTransaction(tx); err != nil {
		return submitError(err)
	}

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
	}{
		Status: "transaction signed and added to mempool",
		Hash:   tx.Hash(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transaction returns a persisted transaction by hash.
func (h Handlers) Transaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	tx, err := h.State.QueryTransaction(hash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("transaction %q not found", hash), http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// WalletTransactions returns the persisted transactions for a wallet
// address.
func (h Handlers) WalletTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	txs, err := h.State.QueryWalletTransactions(address)
	if err != nil {
		return err
	}

	if txs == nil {
		txs = []tran.Transaction{}
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// Balance recomputes the balance for a wallet address from the durable
// store.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	balance, err := h.State.QueryWalletBalance(address)
	if err != nil {
		return err
	}

	resp := struct {
		Address string  `json:"address"`
		Balance float64 `json:"balance"`
	}{
		Address: address,
		Balance: balance,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CreateWallet generates a keypair and returns it with the derived address.
// A real wallet belongs on the client; this endpoint exists because this
// system is a teaching tool.
func (h Handlers) CreateWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	wlt, err := wallet.New()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, wlt.Export(), http.StatusOK)
}

// Block returns a persisted block by hash.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	b, err := h.State.QueryBlock(hash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("block %q not found", hash), http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, b, http.StatusOK)
}

// Blocks returns every persisted block in index order.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.State.QueryAllBlocks()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// =============================================================================

// signFromRequest decodes the learning-only signing payload, reconstructs
// the wallet, and signs the embedded transaction.
func (h Handlers) signFromRequest(r *http.Request) (tran.Transaction, error) {
	var payload signTx
	if err := web.Decode(r, &payload); err != nil {
		return tran.Transaction{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	wlt, err := wallet.FromHex(payload.PublicKey, payload.PrivateKey)
	if err != nil {
		return tran.Transaction{}, errs.NewTrusted(errors.New("invalid wallet information"), http.StatusBadRequest)
	}

	tx, err := toTransaction(payload.Transaction.Sender, payload.Transaction.Recipient, payload.Transaction.Amount, payload.Transaction.Fee, payload.Transaction.Timestamp)
	if err != nil {
		return tran.Transaction{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := tx.Sign(wlt); err != nil {
		return tran.Transaction{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	return tx, nil
}

// toTransaction converts the request fields into a validated transaction.
func toTransaction(sender string, recipient string, amount float64, fee float64, timestamp int64) (tran.Transaction, error) {
	return tran.New(sender, recipient, amount, fee, timestamp)
}

// submitError maps the submission errors onto client statuses: expected
// rejections are 400s, only store failures are 500s.
func submitError(err error) error {
	switch {
	case errors.Is(err, state.ErrInvalidSignature),
		errors.Is(err, state.ErrInsufficientFunds),
		errors.Is(err, state.ErrReservedSender):
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return err
}
