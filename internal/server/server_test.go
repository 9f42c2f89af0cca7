package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/notify"
	"github.com/clubledger/server/internal/service"
	"github.com/clubledger/server/internal/storage"
	"github.com/clubledger/server/internal/storage/sqlite"
)

const testPassword = "correct-horse-battery"

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

type testEnv struct {
	server *httptest.Server
	store  *sqlite.SQLiteStore
	tokens *auth.JWTManager
	admin  *models.Member
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "clubledger-server-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	authenticator := auth.NewPasswordAuthenticator(store)
	perms := auth.DefaultEvaluator()
	tokens := auth.NewJWTManager("test-secret", time.Hour)

	hash, err := authenticator.HashCredential(testPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	admin := models.NewMember("Admin", "admin@club.test", hash, "admin", "")
	err = store.RunInTx(t.Context(), func(tx storage.Tx) error {
		return tx.InsertMember(admin)
	})
	if err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	srv := New(Deps{
		Members:       service.NewMemberService(store, perms, authenticator),
		Ledger:        service.NewLedgerService(store, perms),
		Invoices:      service.NewInvoiceService(store, perms, notify.LogNotifier{}),
		Reconciler:    service.NewReconcileService(store, perms),
		Migrator:      service.NewMigrationService(store, perms),
		Authenticator: authenticator,
		Tokens:        tokens,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: store, tokens: tokens, admin: admin}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Generate(e.admin)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// do sends a JSON request with the given token and decodes the response into
// out when it is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	var resp loginResponse
	status := env.do(t, http.MethodPost, "/api/v1/login", "",
		loginRequest{Email: "admin@club.test", Password: testPassword}, &resp)
	if status != http.StatusOK {
		t.Fatalf("login status = %d, want 200", status)
	}
	if resp.Token == "" {
		t.Error("expected a session token")
	}
	if resp.Member.Email != "admin@club.test" {
		t.Errorf("member email = %s", resp.Member.Email)
	}

	t.Run("wrong password", func(t *testing.T) {
		status := env.do(t, http.MethodPost, "/api/v1/login", "",
			loginRequest{Email: "admin@club.test", Password: "wrong-password"}, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	if status := env.do(t, http.MethodGet, "/api/v1/members", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", status)
	}
	if status := env.do(t, http.MethodGet, "/api/v1/members", "not-a-token", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", status)
	}
}

func TestMemberEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	var created memberResponse
	status := env.do(t, http.MethodPost, "/api/v1/members", token, createMemberRequest{
		Name:     "Alice",
		Email:    "alice@club.test",
		Password: testPassword,
		Role:     "member",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", status)
	}

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		status := env.do(t, http.MethodPost, "/api/v1/members", token, createMemberRequest{
			Name: "Dup", Email: "alice@club.test", Password: testPassword,
		}, nil)
		if status != http.StatusConflict {
			t.Errorf("status = %d, want 409", status)
		}
	})

	t.Run("missing member maps to 404", func(t *testing.T) {
		status := env.do(t, http.MethodGet, "/api/v1/members/no-such-id", token, nil, nil)
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("plain member forbidden", func(t *testing.T) {
		var login loginResponse
		env.do(t, http.MethodPost, "/api/v1/login", "",
			loginRequest{Email: "alice@club.test", Password: testPassword}, &login)

		status := env.do(t, http.MethodPost, "/api/v1/members", login.Token, createMemberRequest{
			Name: "Eve", Email: "eve@club.test", Password: testPassword,
		}, nil)
		if status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", status)
		}
	})

	t.Run("delete", func(t *testing.T) {
		status := env.do(t, http.MethodDelete, "/api/v1/members/"+created.ID, token, nil, nil)
		if status != http.StatusNoContent {
			t.Errorf("status = %d, want 204", status)
		}
	})
}

func TestTransactionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	var member memberResponse
	env.do(t, http.MethodPost, "/api/v1/members", token, createMemberRequest{
		Name: "Alice", Email: "alice@club.test", Password: testPassword, Role: "member",
	}, &member)

	var tr transactionResponse
	status := env.do(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"amount":      "50.00",
		"description": "Dues payment",
		"member_id":   member.ID,
	}, &tr)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", status)
	}
	if !tr.Amount.Equal(dec(t, "50.00")) {
		t.Errorf("amount = %s, want 50.00", tr.Amount)
	}

	t.Run("missing description maps to 400", func(t *testing.T) {
		status := env.do(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
			"amount": "10", "member_id": member.ID,
		}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("balance reflected in member", func(t *testing.T) {
		var got memberResponse
		env.do(t, http.MethodGet, "/api/v1/members/"+member.ID, token, nil, &got)
		if !got.Balance.Equal(dec(t, "50.00")) {
			t.Errorf("balance = %s, want 50.00", got.Balance)
		}
	})

	t.Run("delete reverses balance", func(t *testing.T) {
		status := env.do(t, http.MethodDelete, "/api/v1/transactions/"+tr.ID, token, nil, nil)
		if status != http.StatusNoContent {
			t.Fatalf("delete status = %d, want 204", status)
		}
		var got memberResponse
		env.do(t, http.MethodGet, "/api/v1/members/"+member.ID, token, nil, &got)
		if !got.Balance.IsZero() {
			t.Errorf("balance = %s, want 0", got.Balance)
		}
	})
}

func TestInvoiceEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	var member memberResponse
	env.do(t, http.MethodPost, "/api/v1/members", token, createMemberRequest{
		Name: "Alice", Email: "alice@club.test", Password: testPassword, Role: "member",
	}, &member)

	var invoice invoiceResponse
	status := env.do(t, http.MethodPost, "/api/v1/invoices", token, map[string]any{
		"member_id": member.ID,
		"title":     "Summer trip 2026",
		"amount":    "120.00",
	}, &invoice)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", status)
	}
	if invoice.Status != string(models.StatusPending) {
		t.Errorf("status = %s, want PENDING", invoice.Status)
	}

	var tr transactionResponse
	env.do(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"amount": "120.00", "description": "Trip payment", "member_id": member.ID,
	}, &tr)

	t.Run("settle", func(t *testing.T) {
		var settled invoiceResponse
		status := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/settle", invoice.ID), token,
			settleInvoiceRequest{TransactionID: tr.ID}, &settled)
		if status != http.StatusOK {
			t.Fatalf("settle status = %d, want 200", status)
		}
		if settled.Status != string(models.StatusPaid) {
			t.Errorf("status = %s, want PAID", settled.Status)
		}
	})

	t.Run("reused transaction maps to 409", func(t *testing.T) {
		var second invoiceResponse
		env.do(t, http.MethodPost, "/api/v1/invoices", token, map[string]any{
			"member_id": member.ID, "title": "Summer trip 2026", "amount": "120.00",
		}, &second)

		status := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/settle", second.ID), token,
			settleInvoiceRequest{TransactionID: tr.ID}, nil)
		if status != http.StatusConflict {
			t.Errorf("status = %d, want 409", status)
		}
	})

	t.Run("group listing", func(t *testing.T) {
		var out struct {
			Invoices []invoiceResponse `json:"invoices"`
		}
		status := env.do(t, http.MethodGet, "/api/v1/invoice-groups?title=Summer+trip+2026", token, nil, &out)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if len(out.Invoices) != 2 {
			t.Errorf("got %d invoices, want 2", len(out.Invoices))
		}
	})
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	var member memberResponse
	env.do(t, http.MethodPost, "/api/v1/members", token, createMemberRequest{
		Name: "Alice", Email: "alice@club.test", Password: testPassword, Role: "member",
	}, &member)
	env.do(t, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"amount": "30", "description": "Dues", "member_id": member.ID,
	}, nil)

	t.Run("recalculate balances", func(t *testing.T) {
		var out recalculateBalancesResponse
		status := env.do(t, http.MethodPost, "/api/v1/admin/recalculate-balances", token, nil, &out)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if out.Updated != 0 {
			t.Errorf("updated = %d, want 0 for a consistent ledger", out.Updated)
		}
	})

	t.Run("delete all transactions", func(t *testing.T) {
		var out deleteAllTransactionsResponse
		status := env.do(t, http.MethodDelete, "/api/v1/admin/transactions", token, nil, &out)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if out.Deleted != 1 {
			t.Errorf("deleted = %d, want 1", out.Deleted)
		}

		var got memberResponse
		env.do(t, http.MethodGet, "/api/v1/members/"+member.ID, token, nil, &got)
		if !got.Balance.IsZero() {
			t.Errorf("balance = %s, want 0 after wipe", got.Balance)
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	if status := env.do(t, http.MethodGet, "/health", "", nil, nil); status != http.StatusOK {
		t.Errorf("health status = %d, want 200", status)
	}
	if status := env.do(t, http.MethodGet, "/metrics", "", nil, nil); status != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", status)
	}
}
