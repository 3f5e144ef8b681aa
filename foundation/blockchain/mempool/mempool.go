// Package mempool maintains the pool of uncommitted transactions, ordered by
// fee with a lazy-deletion priority heap, plus the pending set of
// transactions claimed by an in-flight mining attempt.
package mempool

import (
	"container/heap"
	"sync"

	"github.com/minichain/node/foundation/blockchain/tran"
)

// Pool is the fee-priority transaction pool. Four structures are maintained
// together: the heap orders live entries, the active map indexes them by
// hash, tombstones mark heap entries that were removed without a heap fixup,
// and the pending map holds transactions currently being mined.
//
// A hash never lives in the active and pending maps at once.
type Pool struct {
	mu         sync.Mutex
	heap       txHeap
	active     map[string]tran.Transaction
	tombstones map[string]struct{}
	pending    map[string]tran.Transaction
}

// New constructs an empty pool.
func New() *Pool {
	return &Pool{
		active:     make(map[string]tran.Transaction),
		tombstones: make(map[string]struct{}),
		pending:    make(map[string]tran.Transaction),
	}
}

// Add inserts a transaction into the pool. The operation is idempotent by
// hash: a transaction already active or pending is dropped silently and Add
// reports false.
func (p *Pool) Add(tx tran.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := tx.Hash()
	if _, exists := p.active[hash]; exists {
		return false
	}
	if _, exists := p.pending[hash]; exists {
		return false
	}

	// A tombstoned copy of this hash may still sit in the heap. Clearing the
	// tombstone revives that entry instead of pushing a duplicate.
	if _, exists := p.tombstones[hash]; exists {
		delete(p.tombstones, hash)
	} else {
		heap.Push(&p.heap, tx)
	}
	p.active[hash] = tx

	return true
}

// Exists reports whether the transaction is already known to the pool,
// either active or claimed by a mining attempt.
func (p *Pool) Exists(tx tran.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := tx.Hash()
	if _, exists := p.active[hash]; exists {
		return true
	}
	_, exists := p.pending[hash]
	return exists
}

// Count returns the number of active transactions.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.active)
}

// Next pops the highest-priority live transaction, discarding tombstoned
// heap entries as they surface. The returned transaction leaves the active
// map. The second return is false when the pool is empty.
func (p *Pool) Next() (tran.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.next()
}

func (p *Pool) next() (tran.Transaction, bool) {
	for p.heap.Len() > 0 {
		tx := heap.Pop(&p.heap).(tran.Transaction)
		hash := tx.Hash()

		if _, dead := p.tombstones[hash]; dead {
			delete(p.tombstones, hash)
			continue
		}

		if _, live := p.active[hash]; !live {
			continue
		}

		delete(p.active, hash)
		return tx, true
	}

	return tran.Transaction{}, false
}

// TakeForMining claims up to howMany of the highest-priority transactions
// for a mining attempt, moving each into the pending map. They stay claimed
// until ProcessMined settles the attempt.
func (p *Pool) TakeForMining(howMany int) []tran.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	var taken []tran.Transaction
	for len(taken) < howMany {
		tx, ok := p.next()
		if !ok {
			break
		}

		p.pending[tx.Hash()] = tx
		taken = append(taken, tx)
	}

	return taken
}

// ProcessMined settles the pending set after a block lands.
//
// When the block was mined locally the pending transactions are in the block
// and the pending map is simply cleared. When the block came from the
// network, each of its transactions is dropped from pending when claimed
// here, or tombstoned when still active; pending transactions the competing
// block did not include return to the active pool.
func (p *Pool) ProcessMined(locally bool, txs []tran.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if locally {
		p.pending = make(map[string]tran.Transaction)
		return
	}

	for _, tx := range txs {
		hash := tx.Hash()

		if _, claimed := p.pending[hash]; claimed {
			delete(p.pending, hash)
			continue
		}

		if _, live := p.active[hash]; live {
			delete(p.active, hash)
			p.tombstones[hash] = struct{}{}
		}
	}

	// Whatever is still pending was speculatively claimed by the abandoned
	// attempt; give it back to the pool.
	for hash, tx := range p.pending {
		heap.Push(&p.heap, tx)
		p.active[hash] = tx
		delete(p.pending, hash)
	}
}

// Copy returns the active transactions in no particular order.
func (p *Pool) Copy() []tran.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	txs := make([]tran.Transaction, 0, len(p.active))
	for _, tx := range p.active {
		txs = append(txs, tx)
	}
	return txs
}

// =============================================================================

// txHeap orders transactions by fee descending, breaking ties with the older
// timestamp. The order is total because currency amounts reject NaN at
// construction.
type txHeap []tran.Transaction

func (h txHeap) Len() int { return len(h) }

func (h txHeap) Less(i, j int) bool {
	if h[i].Fee != h[j].Fee {
		return h[j].Fee.Less(h[i].Fee)
	}
	return h[i].Timestamp < h[j].Timestamp
}

func (h txHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *txHeap) Push(x any) {
	*h = append(*h, x.(tran.Transaction))
}

func (h *txHeap) Pop() any {
	old := *h
	n := len(old)
	tx := old[n-1]
	*h = old[:n-1]
	return tx
}
