// Package peer maintains the set of known peer network addresses.
package peer

import (
	"sync"
)

// PeerSet represents the data representation to maintain a set of known
// peers, keyed by their TCP address.
type PeerSet struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

// NewPeerSet constructs a set to manage peer addresses.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[string]struct{}),
	}
}

// Add adds a new peer to the set and reports whether it was unknown.
func (ps *PeerSet) Add(address string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[address]; exists {
		return false
	}

	ps.set[address] = struct{}{}
	return true
}

// Remove removes a peer from the set.
func (ps *PeerSet) Remove(address string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, address)
}

// Copy returns the known peer addresses, excluding the specified host. Pass
// an empty host for the full set.
func (ps *PeerSet) Copy(host string) []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	addresses := make([]string, 0, len(ps.set))
	for address := range ps.set {
		if host != "" && address == host {
			continue
		}
		addresses = append(addresses, address)
	}

	return addresses
}
