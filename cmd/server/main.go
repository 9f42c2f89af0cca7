package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/config"
	"github.com/clubledger/server/internal/notify"
	"github.com/clubledger/server/internal/server"
	"github.com/clubledger/server/internal/service"
	"github.com/clubledger/server/internal/storage/sqlite"
	"github.com/clubledger/server/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	authenticator := auth.NewPasswordAuthenticator(store)
	perms := auth.DefaultEvaluator()
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	metrics := server.NewMetrics(prometheus.DefaultRegisterer)

	srv := server.New(server.Deps{
		Members:       service.NewMemberService(store, perms, authenticator),
		Ledger:        service.NewLedgerService(store, perms),
		Invoices:      service.NewInvoiceService(store, perms, notify.LogNotifier{}),
		Reconciler:    service.NewReconcileService(store, perms),
		Migrator:      service.NewMigrationService(store, perms),
		Authenticator: authenticator,
		Tokens:        tokens,
		Metrics:       metrics,
	})

	// h2c allows HTTP/2 clients without TLS termination in front.
	handler := h2c.NewHandler(srv.Router(), &http2.Server{})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("Shutting down server")
		if err := httpServer.Close(); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	slog.Info("Server starting", "address", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
