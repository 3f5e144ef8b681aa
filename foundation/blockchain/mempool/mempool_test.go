package mempool_test

import (
	"testing"

	"github.com/minichain/node/foundation/blockchain/mempool"
	"github.com/minichain/node/foundation/blockchain/tran"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// tx builds an unsigned pool entry. Signature validity is not the pool's
// concern, so tests use bare transactions.
func tx(t *testing.T, sender string, fee float64, timestamp int64) tran.Transaction {
	t.Helper()

	trn, err := tran.New(sender, "recipient", 1, fee, timestamp)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a transaction: %s", failed, err)
	}
	return trn
}

func Test_AddIdempotent(t *testing.T) {
	t.Log("Given the need for add to be idempotent by hash.")
	{
		p := mempool.New()
		trn := tx(t, "alice", 0.5, 100)

		if !p.Add(trn) {
			t.Fatalf("\t%s\tShould accept a new transaction.", failed)
		}
		t.Logf("\t%s\tShould accept a new transaction.", success)

		if p.Add(trn) {
			t.Fatalf("\t%s\tShould silently reject a duplicate.", failed)
		}
		t.Logf("\t%s\tShould silently reject a duplicate.", success)

		if p.Count() != 1 {
			t.Fatalf("\t%s\tShould hold exactly one copy: got %d.", failed, p.Count())
		}
		t.Logf("\t%s\tShould hold exactly one copy.", success)

		if !p.Exists(trn) {
			t.Fatalf("\t%s\tShould report the transaction exists.", failed)
		}
		t.Logf("\t%s\tShould report the transaction exists.", success)
	}
}

func Test_PriorityOrder(t *testing.T) {
	t.Log("Given the need to order by fee descending, then older timestamp.")
	{
		p := mempool.New()

		t1 := tx(t, "alice", 0.1, 100)
		t2 := tx(t, "bob", 0.5, 200)
		t3 := tx(t, "carol", 0.5, 150)

		p.Add(t1)
		p.Add(t2)
		p.Add(t3)

		taken := p.TakeForMining(3)
		if len(taken) != 3 {
			t.Fatalf("\t%s\tShould take all three transactions: got %d.", failed, len(taken))
		}

		exp := []string{t3.Hash(), t2.Hash(), t1.Hash()}
		for i, trn := range taken {
			if trn.Hash() != exp[i] {
				t.Logf("\t\tgot: %s fee[%v] ts[%d]", trn.Hash()[:8], trn.Fee, trn.Timestamp)
				t.Fatalf("\t%s\tShould pop position %d in priority order.", failed, i)
			}
		}
		t.Logf("\t%s\tShould pop fee 0.5/ts 150, then fee 0.5/ts 200, then fee 0.1.", success)
	}
}

func Test_TakeAndReturn(t *testing.T) {
	t.Log("Given the need to return claimed transactions after preemption.")
	{
		p := mempool.New()

		t1 := tx(t, "alice", 0.1, 100)
		t2 := tx(t, "bob", 0.5, 200)
		t3 := tx(t, "carol", 0.5, 150)

		p.Add(t1)
		p.Add(t2)
		p.Add(t3)

		taken := p.TakeForMining(2)
		if len(taken) != 2 {
			t.Fatalf("\t%s\tShould claim two transactions: got %d.", failed, len(taken))
		}

		if p.Count() != 1 {
			t.Fatalf("\t%s\tShould leave one active transaction: got %d.", failed, p.Count())
		}
		t.Logf("\t%s\tShould move claimed transactions out of the active pool.", success)

		if p.Add(taken[0]) {
			t.Fatalf("\t%s\tShould not re-add a pending transaction.", failed)
		}
		t.Logf("\t%s\tShould not re-add a pending transaction.", success)

		// The competing block used none of the claimed transactions.
		p.ProcessMined(false, nil)

		if p.Count() != 3 {
			t.Fatalf("\t%s\tShould return every claimed transaction: got %d.", failed, p.Count())
		}
		t.Logf("\t%s\tShould return every claimed transaction.", success)

		exp := []string{t3.Hash(), t2.Hash(), t1.Hash()}
		for i := range exp {
			trn, ok := p.Next()
			if !ok || trn.Hash() != exp[i] {
				t.Fatalf("\t%s\tShould restore the original priority order at position %d.", failed, i)
			}
		}
		t.Logf("\t%s\tShould restore the original priority order.", success)
	}
}

func Test_ProcessMinedRemote(t *testing.T) {
	t.Log("Given the need to reconcile a block mined elsewhere.")
	{
		p := mempool.New()

		t1 := tx(t, "alice", 0.9, 100) // claimed, used by the remote block
		t2 := tx(t, "bob", 0.8, 100)   // claimed, not used
		t3 := tx(t, "carol", 0.1, 100) // active, used by the remote block

		p.Add(t1)
		p.Add(t2)
		p.Add(t3)

		taken := p.TakeForMining(2)
		if len(taken) != 2 || taken[0].Hash() != t1.Hash() || taken[1].Hash() != t2.Hash() {
			t.Fatalf("\t%s\tShould claim the two best transactions.", failed)
		}

		p.ProcessMined(false, []tran.Transaction{t1, t3})

		if p.Count() != 1 {
			t.Fatalf("\t%s\tShould keep only the unclaimed, unused transaction: got %d.", failed, p.Count())
		}
		t.Logf("\t%s\tShould keep only the unclaimed, unused transaction.", success)

		trn, ok := p.Next()
		if !ok || trn.Hash() != t2.Hash() {
			t.Fatalf("\t%s\tShould return the claimed-but-unused transaction to the pool.", failed)
		}
		t.Logf("\t%s\tShould return the claimed-but-unused transaction to the pool.", success)

		// The tombstoned transaction never surfaces again.
		if _, ok := p.Next(); ok {
			t.Fatalf("\t%s\tShould have discarded the tombstoned transaction.", failed)
		}
		t.Logf("\t%s\tShould have discarded the tombstoned transaction.", success)
	}
}

func Test_ProcessMinedLocally(t *testing.T) {
	t.Log("Given the need to clear the pending set after a local mine.")
	{
		p := mempool.New()

		t1 := tx(t, "alice", 0.5, 100)
		p.Add(t1)
		p.TakeForMining(1)

		p.ProcessMined(true, nil)

		if p.Count() != 0 {
			t.Fatalf("\t%s\tShould leave the pool empty: got %d.", failed, p.Count())
		}
		t.Logf("\t%s\tShould leave the pool empty.", success)

		if !p.Add(t1) {
			t.Fatalf("\t%s\tShould accept the hash again once fully released.", failed)
		}
		t.Logf("\t%s\tShould accept the hash again once fully released.", success)
	}
}

func Test_NextEmpty(t *testing.T) {
	t.Log("Given the need for next to report an empty pool.")
	{
		p := mempool.New()
		if _, ok := p.Next(); ok {
			t.Fatalf("\t%s\tShould report no transaction.", failed)
		}
		t.Logf("\t%s\tShould report no transaction.", success)
	}
}
