// Package tran defines the value-transfer transaction, its identity hash,
// and the signing/verification contract that ties transactions to wallet
// addresses.
package tran

import (
	"errors"
	"fmt"

	"github.com/minichain/node/foundation/blockchain/currency"
	"github.com/minichain/node/foundation/blockchain/signature"
	"github.com/minichain/node/foundation/blockchain/wallet"
)

// CoinbaseSender is the reserved sender literal for the block reward
// transaction. It must never be accepted from a client submission path; only
// a block's miner inserts a coinbase into its own block.
const CoinbaseSender = "COINBASE"

// Set of errors returned by verification.
var (
	ErrNotSigned        = errors.New("transaction is not signed")
	ErrWrongSigner      = errors.New("signature does not recover the sender address")
	ErrCoinbaseFee      = errors.New("coinbase transaction must not carry a fee")
	ErrCoinbaseSigned   = errors.New("coinbase transaction must not carry a signature")
	ErrReservedSender   = errors.New("sender is a reserved literal")
	ErrMissingRecipient = errors.New("transaction needs a recipient")
)

// Transaction is the transactional information between two parties.
type Transaction struct {
	Sender    string          `json:"sender"`
	Recipient string          `json:"recipient"`
	Amount    currency.Amount `json:"amount"`
	Fee       currency.Amount `json:"fee"`
	Timestamp int64           `json:"timestamp"`
	Signature string          `json:"signature,omitempty"`
}

// New constructs an unsigned transaction, validating the amounts carry a
// total order before they can reach the pool's heap.
func New(sender string, recipient string, amount float64, fee float64, timestamp int64) (Transaction, error) {
	amt, err := currency.New(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("amount: %w", err)
	}

	f, err := currency.New(fee)
	if err != nil {
		return Transaction{}, fmt.Errorf("fee: %w", err)
	}

	if recipient == "" {
		return Transaction{}, ErrMissingRecipient
	}

	tx := Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amt,
		Fee:       f,
		Timestamp: timestamp,
	}

	return tx, nil
}

// NewCoinbase constructs the reward transaction a miner places at the end of
// its own block. It carries no fee and no signature.
func NewCoinbase(recipient string, amount currency.Amount, timestamp int64) Transaction {
	return Transaction{
		Sender:    CoinbaseSender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: timestamp,
	}
}

// canonical produces the byte sequence that identifies the transaction. The
// signature is deliberately excluded so the hash is stable across signing.
func (tx Transaction) canonical() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", tx.Sender, tx.Recipient, tx.Amount, tx.Fee, tx.Timestamp)
}

// Hash returns the hex SHA-256 over the canonical byte sequence.
func (tx Transaction) Hash() string {
	return signature.Hash(tx.canonical())
}

// IsCoinbase reports whether this is a block reward transaction.
func (tx Transaction) IsCoinbase() bool {
	return tx.Sender == CoinbaseSender
}

// Sign signs the transaction with the wallet's private key and stores the
// hex encoded recoverable signature. The wallet must own the sender address
// or verification would fail on every node anyway.
func (tx *Transaction) Sign(w *wallet.Wallet) error {
	if tx.IsCoinbase() {
		return ErrCoinbaseSigned
	}

	if w.Address() != tx.Sender {
		return ErrWrongSigner
	}

	sig, err := signature.Sign(tx.canonical(), w.PrivateKey())
	if err != nil {
		return err
	}

	tx.Signature = sig
	return nil
}

// Verify checks the transaction signature recovers a public key whose
// address equals the sender. Coinbase transactions need no signature and
// verify as long as they carry neither a fee nor a signature; whether a
// coinbase is allowed at all is the chain's decision, not this function's.
func (tx Transaction) Verify() error {
	if tx.IsCoinbase() {
		if tx.Fee != 0 {
			return ErrCoinbaseFee
		}
		if tx.Signature != "" {
			return ErrCoinbaseSigned
		}
		return nil
	}

	if tx.Signature == "" {
		return ErrNotSigned
	}

	address, err := signature.RecoverAddress(tx.canonical(), tx.Signature)
	if err != nil {
		return err
	}

	if address != tx.Sender {
		return ErrWrongSigner
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s->%s:%s", short(tx.Sender), short(tx.Recipient), tx.Amount)
}

func short(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:8]
}
