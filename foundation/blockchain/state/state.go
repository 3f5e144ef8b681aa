// Package state is the core API for the node and owns the shared resources
// the actors cooperate through: the chain behind a readers-writer lock, the
// transaction pool, the peer set, the durable store, the mining-interrupt
// channel, and the startup flags.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/chain"
	"github.com/minichain/node/foundation/blockchain/database"
	"github.com/minichain/node/foundation/blockchain/mempool"
	"github.com/minichain/node/foundation/blockchain/network"
	"github.com/minichain/node/foundation/blockchain/peer"
)

// interruptCapacity bounds the mining-interrupt channel so producers never
// stall behind a busy miner. Extra queued items are redundant interrupts the
// miner drains as latest-wins.
const interruptCapacity = 20

// EventHandler defines a function that is called when events occur in the
// processing of the node.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// the package providing the node's background actors.
type Worker interface {
	Shutdown()
	SignalBroadcast(payload network.Payload)
}

// =============================================================================

// Config represents the configuration required to start the node state.
type Config struct {
	NodeID       string
	Host         string
	MinerAddress string
	DBPath       string
	Difficulty   int
	KnownPeers   *peer.PeerSet
	EvHandler    EventHandler
}

// State manages the blockchain node.
type State struct {
	nodeID       string
	host         string
	minerAddress string
	evHandler    EventHandler

	mu    sync.RWMutex
	chain *chain.Chain

	mempool    *mempool.Pool
	knownPeers *peer.PeerSet
	db         *database.Database

	interrupt chan block.Block

	firstDiscoverDone atomic.Bool
	firstSyncDone     atomic.Bool

	// Worker is set by the worker package when the actors start.
	Worker Worker
}

// New constructs the node state, opens the durable store, and persists the
// genesis block.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	c := chain.New(cfg.Difficulty)

	if err := db.StoreBlock(c.Tip()); err != nil {
		db.Close()
		return nil, err
	}

	s := State{
		nodeID:       cfg.NodeID,
		host:         cfg.Host,
		minerAddress: cfg.MinerAddress,
		evHandler:    ev,
		chain:        c,
		mempool:      mempool.New(),
		knownPeers:   cfg.KnownPeers,
		db:           db,
		interrupt:    make(chan block.Block, interruptCapacity),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &s, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	defer s.db.Close()

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================
// Mining interrupt channel. Producers are the synchronizer and the peer
// server; the only receiver is the miner.

// SignalMiningInterrupt hands a newly adopted block to the miner without
// blocking. When the channel is full the interrupt is dropped: the queued
// ones already preempt the same attempt.
func (s *State) SignalMiningInterrupt(b block.Block) {
	select {
	case s.interrupt <- b:
	default:
		s.evHandler("state: SignalMiningInterrupt: channel full, interrupt dropped")
	}
}

// MiningInterrupt exposes the receive side of the interrupt channel to the
// miner, which polls it between hash steps.
func (s *State) MiningInterrupt() <-chan block.Block {
	return s.interrupt
}

// =============================================================================
// Startup coordination. Two write-once flags gate the synchronizer's first
// pass and the miner's first attempt.

// SetFirstDiscoverDone marks that peer discovery completed at least once.
func (s *State) SetFirstDiscoverDone() {
	s.firstDiscoverDone.Store(true)
}

// FirstDiscoverDone reports whether discovery has run at least once.
func (s *State) FirstDiscoverDone() bool {
	return s.firstDiscoverDone.Load()
}

// SetFirstSyncDone marks that chain sync completed at least once.
func (s *State) SetFirstSyncDone() {
	s.firstSyncDone.Store(true)
}

// FirstSyncDone reports whether sync has run at least once.
func (s *State) FirstSyncDone() bool {
	return s.firstSyncDone.Load()
}

// =============================================================================
// Peer set.

// AddKnownPeer provides the ability to add a new peer and reports whether it
// was unknown.
func (s *State) AddKnownPeer(address string) bool {
	return s.knownPeers.Add(address)
}

// RemoveKnownPeer removes a peer that could not be reached.
func (s *State) RemoveKnownPeer(address string) {
	s.knownPeers.Remove(address)
}

// RetrieveKnownPeers returns the peer addresses, excluding this node.
func (s *State) RetrieveKnownPeers() []string {
	return s.knownPeers.Copy(s.host)
}

// RetrieveAllPeers returns the full peer set, this node included. This is
// the register reply.
func (s *State) RetrieveAllPeers() []string {
	return s.knownPeers.Copy("")
}
