// Package database persists accepted blocks and transactions to an embedded
// key-value store and answers the lookups the client RPC surface needs.
//
// Key layout:
//
//	block:<block_hash>  -> serialized block
//	<tx_hash>           -> serialized transaction
//	addr_<address>      -> list of transaction hashes touching the address
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/minichain/node/foundation/blockchain/block"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// ErrNotFound is returned when a block or transaction does not exist.
var ErrNotFound = errors.New("not found")

const (
	blockPrefix = "block:"
	addrPrefix  = "addr_"
)

// Database wraps the embedded store behind an exclusive lock. The store
// itself is safe for concurrent use, but the address index needs
// read-modify-write exclusivity.
type Database struct {
	mu sync.Mutex
	db *leveldb.DB
}

// Open opens (or creates) the store at the specified path. Failure here is
// fatal to the node.
func Open(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening database at %q: %w", path, err)
	}

	return &Database{db: db}, nil
}

// Close releases the underlying store.
func (d *Database) Close() error {
	return d.db.Close()
}

// StoreBlock writes the block under its hash. Puts are idempotent, so
// re-persisting a block another path already stored is harmless.
func (d *Database) StoreBlock(b block.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.storeBlock(b)
}

func (d *Database) storeBlock(b block.Block) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding block: %w", err)
	}

	return d.db.Put([]byte(blockPrefix+b.Hash), data, nil)
}

// GetBlock returns the block stored under the specified hash.
func (d *Database) GetBlock(hash string) (block.Block, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.db.Get([]byte(blockPrefix+hash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return block.Block{}, ErrNotFound
		}
		return block.Block{}, err
	}

	var b block.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return block.Block{}, fmt.Errorf("decoding block: %w", err)
	}

	return b, nil
}

// AllBlocks returns every stored block ordered by index.
func (d *Database) AllBlocks() ([]block.Block, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var blocks []block.Block

	iter := d.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		var b block.Block
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, fmt.Errorf("decoding block: %w", err)
		}
		blocks = append(blocks, b)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Index < blocks[j].Index
	})

	return blocks, nil
}

// StoreTransaction writes the transaction under its hash and indexes it for
// both the sender and the recipient.
func (d *Database) StoreTransaction(tx tran.Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.storeTransaction(tx)
}

func (d *Database) storeTransaction(tx tran.Transaction) error {
	hash := tx.Hash()

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encoding transaction: %w", err)
	}

	if err := d.db.Put([]byte(hash), data, nil); err != nil {
		return err
	}

	if err := d.indexTransaction(addrPrefix+tx.Sender, hash); err != nil {
		return err
	}

	return d.indexTransaction(addrPrefix+tx.Recipient, hash)
}

// indexTransaction appends the hash to the address index unless it is
// already recorded.
func (d *Database) indexTransaction(key string, hash string) error {
	var hashes []string

	data, err := d.db.Get([]byte(key), nil)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &hashes); err != nil {
			return fmt.Errorf("decoding address index: %w", err)
		}
	case errors.Is(err, leveldb.ErrNotFound):
	default:
		return err
	}

	for _, known := range hashes {
		if known == hash {
			return nil
		}
	}

	hashes = append(hashes, hash)

	data, err = json.Marshal(hashes)
	if err != nil {
		return fmt.Errorf("encoding address index: %w", err)
	}

	return d.db.Put([]byte(key), data, nil)
}

// GetTransaction returns the transaction stored under the specified hash.
func (d *Database) GetTransaction(hash string) (tran.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.getTransaction(hash)
}

func (d *Database) getTransaction(hash string) (tran.Transaction, error) {
	data, err := d.db.Get([]byte(hash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return tran.Transaction{}, ErrNotFound
		}
		return tran.Transaction{}, err
	}

	var tx tran.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return tran.Transaction{}, fmt.Errorf("decoding transaction: %w", err)
	}

	return tx, nil
}

// TransactionsByWallet returns every stored transaction that touches the
// specified address, as sender or recipient.
func (d *Database) TransactionsByWallet(address string) ([]tran.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.transactionsByWallet(address)
}

func (d *Database) transactionsByWallet(address string) ([]tran.Transaction, error) {
	data, err := d.db.Get([]byte(addrPrefix+address), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, fmt.Errorf("decoding address index: %w", err)
	}

	txs := make([]tran.Transaction, 0, len(hashes))
	for _, hash := range hashes {
		tx, err := d.getTransaction(hash)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// WalletBalance recomputes the balance for an address by scanning its index:
// credits for amounts received, debits for amounts plus fees sent.
func (d *Database) WalletBalance(address string) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	txs, err := d.transactionsByWallet(address)
	if err != nil {
		return 0, err
	}

	var balance float64
	for _, tx := range txs {
		if tx.Recipient == address {
			balance += tx.Amount.Float64()
		}
		if tx.Sender == address {
			balance -= tx.Amount.Float64() + tx.Fee.Float64()
		}
	}

	return balance, nil
}

// StoreChain persists a list of blocks and all of their transactions. Used
// when a replacement chain is adopted from a peer.
func (d *Database) StoreChain(blocks []block.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, b := range blocks {
		if err := d.storeBlock(b); err != nil {
			return err
		}

		for _, tx := range b.Transactions {
			if err := d.storeTransaction(tx); err != nil {
				return err
			}
		}
	}

	return nil
}
