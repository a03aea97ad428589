package mempool

import (
	"testing"

	"chainview/types/chain"
)

func tx(id, sender string) chain.Transaction {
	return chain.Transaction{ID: id, Input: chain.TransactionInput{Address: sender}}
}

func TestMempoolAddAndEvict(t *testing.T) {
	mp := NewMempool(2)

	if !mp.SetTx(tx("tx1", "a")) {
		t.Fatal("failed to add tx1")
	}
	if !mp.SetTx(tx("tx2", "b")) {
		t.Fatal("failed to add tx2")
	}
	if mp.SetTx(tx("tx3", "c")) {
		t.Fatal("adding tx3 should report the eviction of tx1")
	}
	if _, ok := mp.GetTx("tx1"); ok {
		t.Error("tx1 should have been evicted")
	}
	if _, ok := mp.GetTx("tx3"); !ok {
		t.Error("tx3 should be present")
	}
}

func TestMempoolReplaceKeepsOrder(t *testing.T) {
	mp := NewMempool(10)
	mp.SetTx(tx("tx1", "a"))
	mp.SetTx(tx("tx2", "b"))
	updated := tx("tx1", "a")
	updated.Output = map[string]float64{"x": 5}
	mp.SetTx(updated)

	all := mp.GetAllTxs()
	if len(all) != 2 || all[0].ID != "tx1" || all[1].ID != "tx2" {
		t.Fatalf("unexpected order %v", all)
	}
	if all[0].Output["x"] != 5 {
		t.Error("tx1 was not replaced")
	}
}

func TestMempoolBySenderAndRemove(t *testing.T) {
	mp := NewMempool(10)
	mp.SetTx(tx("tx1", "alice"))
	mp.SetTx(tx("tx2", "bob"))
	mp.SetTx(tx("tx3", "carol"))

	got, ok := mp.BySender("bob")
	if !ok || got.ID != "tx2" {
		t.Fatalf("expected tx2 for bob, got %v %v", got, ok)
	}

	mp.RemoveTxs([]string{"tx1", "tx3", "missing"})
	if mp.Len() != 1 {
		t.Fatalf("expected 1 tx left, got %d", mp.Len())
	}
	if all := mp.GetAllTxs(); all[0].ID != "tx2" {
		t.Errorf("expected tx2 to remain, got %v", all)
	}
}
