// Package server binds the ledger services to a JSON HTTP API. Handlers
// decode requests, call one service operation and map domain error kinds to
// HTTP statuses; all business rules live in the service layer.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/service"
)

// Server holds the handler dependencies.
type Server struct {
	members       *service.MemberService
	ledger        *service.LedgerService
	invoices      *service.InvoiceService
	reconciler    *service.ReconcileService
	migrator      *service.MigrationService
	authenticator *auth.PasswordAuthenticator
	tokens        *auth.JWTManager
	metrics       *Metrics
}

// Deps bundles the constructor arguments for New.
type Deps struct {
	Members       *service.MemberService
	Ledger        *service.LedgerService
	Invoices      *service.InvoiceService
	Reconciler    *service.ReconcileService
	Migrator      *service.MigrationService
	Authenticator *auth.PasswordAuthenticator
	Tokens        *auth.JWTManager
	Metrics       *Metrics
}

// New creates a server.
func New(d Deps) *Server {
	return &Server{
		members:       d.Members,
		ledger:        d.Ledger,
		invoices:      d.Invoices,
		reconciler:    d.Reconciler,
		migrator:      d.Migrator,
		authenticator: d.Authenticator,
		tokens:        d.Tokens,
		metrics:       d.Metrics,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if s.metrics != nil {
		r.Use(s.metrics.instrument)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/login", s.handleLogin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListMembers)
			r.Post("/", s.handleCreateMember)
			r.Get("/{id}", s.handleGetMember)
			r.Delete("/{id}", s.handleDeleteMember)
			r.Get("/{id}/invoices", s.handleListMemberInvoices)
			r.Post("/{id}/recurring-invoices", s.handleCreateRecurringInvoices)
		})

		r.Route("/membership-types", func(r chi.Router) {
			r.Get("/", s.handleListMembershipTypes)
			r.Post("/", s.handleCreateMembershipType)
			r.Post("/{name}/rename", s.handleRenameMembershipType)
			r.Delete("/{name}", s.handleDeleteMembershipType)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", s.handleCreateInvoice)
			r.Get("/{id}", s.handleGetInvoice)
			r.Post("/{id}/settle", s.handleSettleInvoice)
			r.Post("/{id}/waive", s.handleWaiveInvoice)
		})

		r.Route("/invoice-groups", func(r chi.Router) {
			r.Get("/", s.handleListInvoiceGroup)
			r.Post("/sync", s.handleSyncGroup)
		})

		r.Get("/summary", s.handleSummary)

		r.Route("/admin", func(r chi.Router) {
			r.Delete("/transactions", s.handleDeleteAllTransactions)
			r.Post("/recalculate-balances", s.handleRecalculateBalances)
			r.Post("/legacy-payments", s.handleImportLegacyPayments)
		})
	})

	return r
}
