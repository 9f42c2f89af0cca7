package service

import (
	"context"
	"testing"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/storage"
)

func TestRecalculateAllBalances_HealsDrift(t *testing.T) {
	store := newTestStore(t)
	perms := auth.DefaultEvaluator()
	ledger := NewLedgerService(store, perms)
	reconcile := NewReconcileService(store, perms)

	a := seedMember(t, store, "Alice")
	b := seedMember(t, store, "Bob")

	ledger.CreateTransaction(adminCtx(), CreateTransactionInput{
		Amount: dec("120"), Description: "payment", MemberID: a.ID,
	})
	ledger.CreateTransaction(adminCtx(), CreateTransactionInput{
		Amount:      dec("60"),
		Description: "shared",
		Splits: []Split{
			{MemberID: a.ID, Amount: dec("40")},
			{MemberID: b.ID, Amount: dec("20")},
		},
	})

	// Corrupt the cache behind the mutator's back.
	err := store.RunInTx(context.Background(), func(tx storage.Tx) error {
		return tx.SetBalance(a.ID, dec("999"))
	})
	if err != nil {
		t.Fatalf("failed to corrupt balance: %v", err)
	}

	updated, err := reconcile.RecalculateAllBalances(adminCtx())
	if err != nil {
		t.Fatalf("RecalculateAllBalances failed: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	if got := memberBalance(t, store, a.ID); !got.Equal(dec("160")) {
		t.Errorf("Alice balance = %s, want 160 (120 owned + 40 share)", got)
	}
	if got := memberBalance(t, store, b.ID); !got.Equal(dec("20")) {
		t.Errorf("Bob balance = %s, want 20", got)
	}
}

func TestRecalculateAllBalances_Idempotent(t *testing.T) {
	store := newTestStore(t)
	perms := auth.DefaultEvaluator()
	ledger := NewLedgerService(store, perms)
	reconcile := NewReconcileService(store, perms)

	a := seedMember(t, store, "Alice")
	ledger.CreateTransaction(adminCtx(), CreateTransactionInput{
		Amount: dec("-12.34"), Description: "expense", MemberID: a.ID,
	})

	for i := 0; i < 2; i++ {
		if _, err := reconcile.RecalculateAllBalances(adminCtx()); err != nil {
			t.Fatalf("sweep %d failed: %v", i+1, err)
		}
		if got := memberBalance(t, store, a.ID); !got.Equal(dec("-12.34")) {
			t.Errorf("sweep %d balance = %s, want -12.34", i+1, got)
		}
	}
}

func TestRecalculateAllBalances_RequiresPermission(t *testing.T) {
	store := newTestStore(t)
	reconcile := NewReconcileService(store, auth.DefaultEvaluator())

	if _, err := reconcile.RecalculateAllBalances(memberCtx()); !models.IsPermission(err) {
		t.Errorf("error = %v, want PermissionError", err)
	}
}
