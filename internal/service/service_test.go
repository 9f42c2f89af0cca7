package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/storage"
	"github.com/clubledger/server/internal/storage/sqlite"
)

// adminCtx returns a context carrying a super-role actor.
func adminCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{
		MemberID: "actor-admin",
		Email:    "admin@club.test",
		Role:     "admin",
	})
}

// memberCtx returns a context carrying a plain member actor.
func memberCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{
		MemberID: "actor-member",
		Email:    "member@club.test",
		Role:     "member",
	})
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "clubledger-service-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedMember(t *testing.T, store storage.Store, name string) *models.Member {
	t.Helper()
	m := models.NewMember(name, name+"@club.test", "irrelevant-hash", "member", "Regular")
	err := store.RunInTx(context.Background(), func(tx storage.Tx) error {
		return tx.InsertMember(m)
	})
	if err != nil {
		t.Fatalf("seedMember(%s) failed: %v", name, err)
	}
	return m
}

func seedMembershipType(t *testing.T, store storage.Store, name, fee string) {
	t.Helper()
	err := store.RunInTx(context.Background(), func(tx storage.Tx) error {
		return tx.InsertMembershipType(&models.MembershipType{Name: name, Fee: dec(fee)})
	})
	if err != nil {
		t.Fatalf("seedMembershipType(%s) failed: %v", name, err)
	}
}

func memberBalance(t *testing.T, store storage.Store, id string) decimal.Decimal {
	t.Helper()
	m, err := store.GetMember(context.Background(), id)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if m == nil {
		t.Fatalf("member %s not found", id)
	}
	return m.Balance
}
