package tran_test

import (
	"errors"
	"math"
	"testing"

	"github.com/minichain/node/foundation/blockchain/currency"
	"github.com/minichain/node/foundation/blockchain/tran"
	"github.com/minichain/node/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_SignVerify(t *testing.T) {
	t.Log("Given the need to sign a transaction and verify it.")
	{
		w, err := wallet.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a wallet: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to create a wallet.", success)

		tx, err := tran.New(w.Address(), "recipient", 10, 0.5, 100)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a transaction: %s", failed, err)
		}

		if err := tx.Verify(); !errors.Is(err, tran.ErrNotSigned) {
			t.Fatalf("\t%s\tShould refuse to verify before signing: %v.", failed, err)
		}
		t.Logf("\t%s\tShould refuse to verify before signing.", success)

		hashBefore := tx.Hash()

		if err := tx.Sign(w); err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the transaction.", success)

		if tx.Hash() != hashBefore {
			t.Fatalf("\t%s\tShould keep the hash stable across signing.", failed)
		}
		t.Logf("\t%s\tShould keep the hash stable across signing.", success)

		if err := tx.Verify(); err != nil {
			t.Fatalf("\t%s\tShould verify the signed transaction: %s", failed, err)
		}
		t.Logf("\t%s\tShould verify the signed transaction.", success)
	}
}

func Test_SignWrongWallet(t *testing.T) {
	t.Log("Given the need to reject signatures from the wrong wallet.")
	{
		w1, _ := wallet.New()
		w2, _ := wallet.New()

		tx, err := tran.New(w1.Address(), "recipient", 10, 0.5, 100)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a transaction: %s", failed, err)
		}

		if err := tx.Sign(w2); !errors.Is(err, tran.ErrWrongSigner) {
			t.Fatalf("\t%s\tShould refuse to sign for a sender the wallet does not own: %v.", failed, err)
		}
		t.Logf("\t%s\tShould refuse to sign for a sender the wallet does not own.", success)
	}
}

func Test_VerifyTampered(t *testing.T) {
	t.Log("Given the need to detect a transaction changed after signing.")
	{
		w, _ := wallet.New()

		tx, err := tran.New(w.Address(), "recipient", 10, 0.5, 100)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a transaction: %s", failed, err)
		}

		if err := tx.Sign(w); err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %s", failed, err)
		}

		tx.Amount = currency.Amount(1000)

		if err := tx.Verify(); err == nil {
			t.Fatalf("\t%s\tShould reject a tampered transaction.", failed)
		}
		t.Logf("\t%s\tShould reject a tampered transaction.", success)
	}
}

func Test_Coinbase(t *testing.T) {
	t.Log("Given the need for coinbase transactions to follow their rules.")
	{
		cb := tran.NewCoinbase("miner", currency.Amount(5.5), 100)

		if !cb.IsCoinbase() {
			t.Fatalf("\t%s\tShould report the coinbase sender.", failed)
		}
		t.Logf("\t%s\tShould report the coinbase sender.", success)

		if err := cb.Verify(); err != nil {
			t.Fatalf("\t%s\tShould verify without a signature: %s", failed, err)
		}
		t.Logf("\t%s\tShould verify without a signature.", success)

		cb.Fee = currency.Amount(1)
		if err := cb.Verify(); !errors.Is(err, tran.ErrCoinbaseFee) {
			t.Fatalf("\t%s\tShould reject a coinbase with a fee: %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a coinbase with a fee.", success)

		cb.Fee = 0
		cb.Signature = "ab"
		if err := cb.Verify(); !errors.Is(err, tran.ErrCoinbaseSigned) {
			t.Fatalf("\t%s\tShould reject a signed coinbase: %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a signed coinbase.", success)
	}
}

func Test_RejectNonFinite(t *testing.T) {
	t.Log("Given the need to keep NaN out of the pool's heap.")
	{
		if _, err := tran.New("a", "b", math.NaN(), 0, 100); err == nil {
			t.Fatalf("\t%s\tShould reject a NaN amount.", failed)
		}
		t.Logf("\t%s\tShould reject a NaN amount.", success)

		if _, err := tran.New("a", "b", 1, math.Inf(1), 100); err == nil {
			t.Fatalf("\t%s\tShould reject an infinite fee.", failed)
		}
		t.Logf("\t%s\tShould reject an infinite fee.", success)
	}
}
