package state_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/chain"
	"github.com/minichain/node/foundation/blockchain/currency"
	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/peer"
	"github.com/minichain/node/foundation/blockchain/state"
	"github.com/minichain/node/foundation/blockchain/tran"
	"github.com/minichain/node/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const difficulty = 1

// stubWorker satisfies the state.Worker interface and counts broadcasts.
type stubWorker struct {
	broadcasts []network.Payload
}

func (w *stubWorker) Shutdown() {}

func (w *stubWorker) SignalBroadcast(payload network.Payload) {
	w.broadcasts = append(w.broadcasts, payload)
}

func newTestState(t *testing.T) (*state.State, *stubWorker) {
	t.Helper()

	st, err := state.New(state.Config{
		NodeID:       "test-node",
		Host:         "127.0.0.1:9080",
		MinerAddress: "miner-address",
		DBPath:       filepath.Join(t.TempDir(), "blocks"),
		Difficulty:   difficulty,
		KnownPeers:   peer.NewPeerSet(),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	w := stubWorker{}
	st.Worker = &w

	t.Cleanup(func() { st.Shutdown() })

	return st, &w
}

// fund persists a coinbase so the address has spendable balance in the
// database.
func fund(t *testing.T, st *state.State, address string, amount float64) {
	t.Helper()

	cb := tran.NewCoinbase(address, currency.Amount(amount), 50)
	b := block.New(1, 60, []tran.Transaction{cb}, st.RetrieveTip().Hash)
	st.PersistBlock(b)
}

// mineOn builds and mines a block extending the current tip.
func mineOn(st *state.State, txs []tran.Transaction) block.Block {
	tip := st.RetrieveTip()
	b := block.New(tip.Index+1, tip.Timestamp+1, txs, tip.Hash)

	target := strings.Repeat("0", difficulty)
	for !strings.HasPrefix(b.Hash, target) {
		b.MineStep()
	}

	return b
}

func signedTx(t *testing.T, w *wallet.Wallet, amount float64, fee float64, timestamp int64) tran.Transaction {
	t.Helper()

	tx, err := tran.New(w.Address(), "recipient", amount, fee, timestamp)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a transaction: %s", failed, err)
	}
	if err := tx.Sign(w); err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %s", failed, err)
	}

	return tx
}

func Test_SubmitInsufficientBalance(t *testing.T) {
	t.Log("Given the need to reject spends beyond the wallet balance.")
	{
		st, w := newTestState(t)

		wlt, _ := wallet.New()
		fund(t, st, wlt.Address(), 1)

		tx := signedTx(t, wlt, 5, 0.5, 100)

		err := st.SubmitWalletTransaction(tx)
		if !errors.Is(err, state.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould reject with insufficient funds: %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject with insufficient funds.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould leave the pool unchanged.", failed)
		}
		t.Logf("\t%s\tShould leave the pool unchanged.", success)

		if len(w.broadcasts) != 0 {
			t.Fatalf("\t%s\tShould not broadcast a rejected transaction.", failed)
		}
		t.Logf("\t%s\tShould not broadcast a rejected transaction.", success)
	}
}

func Test_SubmitDuplicate(t *testing.T) {
	t.Log("Given the need to accept a transaction exactly once.")
	{
		st, w := newTestState(t)

		wlt, _ := wallet.New()
		fund(t, st, wlt.Address(), 10)

		tx := signedTx(t, wlt, 2, 0.5, 100)

		if err := st.SubmitWalletTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould accept the first submission: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the first submission.", success)

		if err := st.SubmitWalletTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould silently drop the second submission: %s", failed, err)
		}

		if err := st.ProcessPeerTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould silently drop the peer copy: %s", failed, err)
		}

		if st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould hold exactly one copy: got %d.", failed, st.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould hold exactly one copy.", success)

		if len(w.broadcasts) != 1 {
			t.Fatalf("\t%s\tShould broadcast exactly once: got %d.", failed, len(w.broadcasts))
		}
		t.Logf("\t%s\tShould broadcast exactly once.", success)
	}
}

func Test_SubmitRejectsReservedSender(t *testing.T) {
	t.Log("Given the need to keep the coinbase literal off the submit path.")
	{
		st, _ := newTestState(t)

		cb := tran.NewCoinbase("somebody", currency.Amount(5), 100)

		if err := st.SubmitWalletTransaction(cb); !errors.Is(err, state.ErrReservedSender) {
			t.Fatalf("\t%s\tShould reject a client-submitted coinbase: %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a client-submitted coinbase.", success)

		if err := st.ProcessPeerTransaction(cb); !errors.Is(err, state.ErrReservedSender) {
			t.Fatalf("\t%s\tShould reject a peer-gossiped coinbase: %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a peer-gossiped coinbase.", success)
	}
}

func Test_ProcessPeerBlock(t *testing.T) {
	t.Log("Given the need to append valid peer blocks and preempt the miner.")
	{
		st, w := newTestState(t)

		cb := tran.NewCoinbase("remote-miner", currency.Amount(chain.Reward), 100)
		b := mineOn(st, []tran.Transaction{cb})

		if err := st.ProcessPeerBlock(b); err != nil {
			t.Fatalf("\t%s\tShould accept a valid peer block: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid peer block.", success)

		if st.RetrieveChainHeight() != 2 {
			t.Fatalf("\t%s\tShould grow the chain: height %d.", failed, st.RetrieveChainHeight())
		}
		t.Logf("\t%s\tShould grow the chain.", success)

		select {
		case got := <-st.MiningInterrupt():
			if got.Hash != b.Hash {
				t.Fatalf("\t%s\tShould interrupt the miner with the new block.", failed)
			}
			t.Logf("\t%s\tShould interrupt the miner with the new block.", success)
		default:
			t.Fatalf("\t%s\tShould have signaled the mining interrupt.", failed)
		}

		if len(w.broadcasts) != 1 || w.broadcasts[0].Command != network.CmdNewBlock {
			t.Fatalf("\t%s\tShould re-broadcast the block.", failed)
		}
		t.Logf("\t%s\tShould re-broadcast the block.", success)

		if err := st.ProcessPeerBlock(b); !errors.Is(err, state.ErrStaleBlock) {
			t.Fatalf("\t%s\tShould drop the block on redelivery: %v.", failed, err)
		}
		t.Logf("\t%s\tShould drop the block on redelivery.", success)
	}
}

func Test_CommitChainMoved(t *testing.T) {
	t.Log("Given the need to refuse a candidate when the chain advanced.")
	{
		st, _ := newTestState(t)

		// Candidate mined on the genesis tip.
		candidate := mineOn(st, nil)

		// A peer block lands first.
		peerBlock := mineOn(st, []tran.Transaction{tran.NewCoinbase("remote", currency.Amount(chain.Reward), 100)})
		if err := st.ProcessPeerBlock(peerBlock); err != nil {
			t.Fatalf("\t%s\tShould accept the peer block: %s", failed, err)
		}

		if err := st.CommitMinedBlock(candidate); !errors.Is(err, state.ErrChainMoved) {
			t.Fatalf("\t%s\tShould refuse the stale candidate: %v.", failed, err)
		}
		t.Logf("\t%s\tShould refuse the stale candidate.", success)
	}
}

func Test_AdoptPeerChain(t *testing.T) {
	t.Log("Given the need to adopt a longer chain from sync.")
	{
		st, _ := newTestState(t)

		// Build a three block chain that shares our genesis.
		remote := []block.Block{st.RetrieveTip()}
		for i := 0; i < 2; i++ {
			tip := remote[len(remote)-1]
			b := block.New(tip.Index+1, tip.Timestamp+1, []tran.Transaction{tran.NewCoinbase("remote", currency.Amount(chain.Reward), 100+int64(i))}, tip.Hash)
			target := strings.Repeat("0", difficulty)
			for !strings.HasPrefix(b.Hash, target) {
				b.MineStep()
			}
			remote = append(remote, b)
		}

		if !chain.IsValidChain(remote) {
			t.Fatalf("\t%s\tShould have built a valid remote chain.", failed)
		}

		if err := st.AdoptPeerChain(remote); err != nil {
			t.Fatalf("\t%s\tShould adopt the longer chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould adopt the longer chain.", success)

		if st.RetrieveChainHeight() != 3 {
			t.Fatalf("\t%s\tShould take the remote height: got %d.", failed, st.RetrieveChainHeight())
		}
		t.Logf("\t%s\tShould take the remote height.", success)

		select {
		case got := <-st.MiningInterrupt():
			if got.Hash != remote[2].Hash {
				t.Fatalf("\t%s\tShould interrupt with the new tip.", failed)
			}
			t.Logf("\t%s\tShould interrupt with the new tip.", success)
		default:
			t.Fatalf("\t%s\tShould have signaled the mining interrupt.", failed)
		}

		blocks, err := st.QueryAllBlocks()
		if err != nil {
			t.Fatalf("\t%s\tShould read back persisted blocks: %s", failed, err)
		}
		if len(blocks) != 3 {
			t.Fatalf("\t%s\tShould persist every adopted block: got %d.", failed, len(blocks))
		}
		t.Logf("\t%s\tShould persist every adopted block.", success)

		balance, err := st.QueryWalletBalance("remote")
		if err != nil {
			t.Fatalf("\t%s\tShould compute the miner balance: %s", failed, err)
		}
		if balance != 2*chain.Reward {
			t.Fatalf("\t%s\tShould credit the adopted coinbases: got %v.", failed, balance)
		}
		t.Logf("\t%s\tShould credit the adopted coinbases.", success)
	}
}
