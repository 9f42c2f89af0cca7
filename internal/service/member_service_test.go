package service

import (
	"testing"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
)

func TestCreateMember(t *testing.T) {
	store := newTestStore(t)
	perms := auth.DefaultEvaluator()
	svc := NewMemberService(store, perms, auth.NewPasswordAuthenticator(store))

	m, err := svc.CreateMember(adminCtx(), CreateMemberInput{
		Name:           "Alice",
		Email:          "alice@club.test",
		Password:       "correct-horse",
		Role:           "member",
		MembershipType: "Regular",
	})
	if err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	if m.ID == "" {
		t.Error("expected member ID to be generated")
	}
	if !m.Balance.IsZero() {
		t.Errorf("new member balance = %s, want 0", m.Balance)
	}

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.CreateMember(adminCtx(), CreateMemberInput{
			Name: "Other", Email: "alice@club.test", Password: "correct-horse",
		})
		if !models.IsConflict(err) {
			t.Errorf("error = %v, want ConflictError", err)
		}
	})

	t.Run("weak password rejected", func(t *testing.T) {
		_, err := svc.CreateMember(adminCtx(), CreateMemberInput{
			Name: "Bob", Email: "bob@club.test", Password: "short",
		})
		if !models.IsValidation(err) {
			t.Errorf("error = %v, want ValidationError", err)
		}
	})
}

func TestDeleteMember_PayoutAndAuditTrail(t *testing.T) {
	store := newTestStore(t)
	perms := auth.DefaultEvaluator()
	members := NewMemberService(store, perms, auth.NewPasswordAuthenticator(store))
	ledger := NewLedgerService(store, perms)
	invoices := NewInvoiceService(store, perms, nil)

	m := seedMember(t, store, "Alice")
	b := seedMember(t, store, "Bob")
	if _, err := ledger.CreateTransaction(adminCtx(), CreateTransactionInput{
		Amount: dec("75"), Description: "Overpayment", MemberID: m.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := ledger.CreateTransaction(adminCtx(), CreateTransactionInput{
		Amount:      dec("30"),
		Description: "Shared expense",
		Splits: []Split{
			{MemberID: m.ID, Amount: dec("20")},
			{MemberID: b.ID, Amount: dec("10")},
		},
	}); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := invoices.CreateInvoice(adminCtx(), CreateInvoiceInput{
		MemberID: m.ID, Title: "Open fee", Amount: dec("10"),
	}); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	if err := members.DeleteMember(adminCtx(), m.ID); err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}

	if _, err := members.GetMember(adminCtx(), m.ID); !models.IsNotFound(err) {
		t.Errorf("GetMember after delete = %v, want NotFoundError", err)
	}

	// Transactions survive, unattributed, including the payout. Alice's
	// allocation share is detached too; Bob's keeps its member link.
	txns, err := ledger.ListTransactions(adminCtx())
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want originals + payout", len(txns))
	}
	var sawPayout, sawBobShare bool
	for _, tr := range txns {
		if tr.MemberID != "" {
			t.Errorf("transaction %s still references deleted member", tr.ID)
		}
		if tr.Amount.Equal(dec("-95")) {
			sawPayout = true
		}
		for _, a := range tr.Allocations {
			switch a.MemberID {
			case m.ID:
				t.Errorf("allocation in transaction %s still references deleted member", tr.ID)
			case b.ID:
				sawBobShare = true
			}
		}
	}
	if !sawPayout {
		t.Error("expected a -95 payout transaction")
	}
	if !sawBobShare {
		t.Error("expected Bob's allocation share to keep its member link")
	}

	// The pending invoice is gone.
	remaining, _ := invoices.ListInvoicesByMember(adminCtx(), m.ID)
	if len(remaining) != 0 {
		t.Errorf("got %d invoices for deleted member, want 0", len(remaining))
	}
}

func TestDeleteMember_ZeroBalanceSkipsPayout(t *testing.T) {
	store := newTestStore(t)
	perms := auth.DefaultEvaluator()
	members := NewMemberService(store, perms, auth.NewPasswordAuthenticator(store))
	ledger := NewLedgerService(store, perms)

	m := seedMember(t, store, "Alice")
	if err := members.DeleteMember(adminCtx(), m.ID); err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}

	txns, _ := ledger.ListTransactions(adminCtx())
	if len(txns) != 0 {
		t.Errorf("got %d transactions, want none for zero-balance deletion", len(txns))
	}
}

func TestMembershipTypeLifecycle(t *testing.T) {
	store := newTestStore(t)
	perms := auth.DefaultEvaluator()
	svc := NewMemberService(store, perms, auth.NewPasswordAuthenticator(store))
	m := seedMember(t, store, "Alice") // references "Regular"

	if _, err := svc.CreateMembershipType(adminCtx(), "Regular", dec("12.50")); err != nil {
		t.Fatalf("CreateMembershipType failed: %v", err)
	}

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := svc.CreateMembershipType(adminCtx(), "Regular", dec("5"))
		if !models.IsConflict(err) {
			t.Errorf("error = %v, want ConflictError", err)
		}
	})

	t.Run("rename cascades to members", func(t *testing.T) {
		if err := svc.RenameMembershipType(adminCtx(), "Regular", "Standard"); err != nil {
			t.Fatalf("RenameMembershipType failed: %v", err)
		}
		got, err := svc.GetMember(adminCtx(), m.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if got.MembershipType != "Standard" {
			t.Errorf("membership type = %s, want Standard", got.MembershipType)
		}
	})

	t.Run("rename of missing type not found", func(t *testing.T) {
		err := svc.RenameMembershipType(adminCtx(), "Regular", "Whatever")
		if !models.IsNotFound(err) {
			t.Errorf("error = %v, want NotFoundError", err)
		}
	})

	t.Run("delete keeps stale member keys", func(t *testing.T) {
		if err := svc.DeleteMembershipType(adminCtx(), "Standard"); err != nil {
			t.Fatalf("DeleteMembershipType failed: %v", err)
		}
		got, _ := svc.GetMember(adminCtx(), m.ID)
		if got.MembershipType != "Standard" {
			t.Errorf("membership type = %s, want stale key kept", got.MembershipType)
		}
	})
}

func TestMemberService_PermissionChecks(t *testing.T) {
	store := newTestStore(t)
	svc := NewMemberService(store, auth.DefaultEvaluator(), auth.NewPasswordAuthenticator(store))

	if _, err := svc.CreateMember(memberCtx(), CreateMemberInput{
		Name: "X", Email: "x@club.test", Password: "correct-horse",
	}); !models.IsPermission(err) {
		t.Errorf("create error = %v, want PermissionError", err)
	}

	// The treasurer role has invoice grants but not member management.
	treasurer := auth.WithActor(adminCtx(), auth.Actor{MemberID: "t", Role: "treasurer"})
	if err := svc.DeleteMember(treasurer, "any"); !models.IsPermission(err) {
		t.Errorf("treasurer delete error = %v, want PermissionError", err)
	}
}
