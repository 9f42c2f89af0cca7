package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/storage"
)

// MigrationService is the one-time legacy importer. It links old "paid"
// records to existing transactions on a best-effort basis and is not part of
// steady-state operation.
type MigrationService struct {
	store storage.Store
	perms *auth.Evaluator
	now   clock
}

// NewMigrationService creates a migration service.
func NewMigrationService(store storage.Store, perms *auth.Evaluator) *MigrationService {
	return &MigrationService{store: store, perms: perms, now: time.Now}
}

// MigrationResult reports one import run.
type MigrationResult struct {
	Imported int // PAID requests created
	Linked   int // of those, linked to a matched transaction
	Skipped  int // already imported on a previous run
}

// ImportLegacyPayments creates a PAID payment request for every legacy paid
// record. A candidate transaction is matched by member and amount, preferring
// the most recent whose description or category resembles the record; the
// link is only set when that transaction does not already settle another
// invoice. Records already imported (same member, title and category) are
// skipped, so re-running is idempotent. Unmatched records still produce an
// invoice, just without a transaction link.
func (s *MigrationService) ImportLegacyPayments(ctx context.Context, records []models.LegacyPayment) (*MigrationResult, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageInvoices); err != nil {
		return nil, err
	}

	result := &MigrationResult{}
	for _, rec := range records {
		exists, err := s.store.HasPaymentRequest(ctx, rec.MemberID, rec.Title, rec.Category)
		if err != nil {
			return result, wrapStore("import legacy payments", err)
		}
		if exists {
			result.Skipped++
			continue
		}

		transactionID, err := s.matchTransaction(ctx, rec)
		if err != nil {
			return result, wrapStore("import legacy payments", err)
		}

		paidAt := rec.PaidAt
		p := &models.PaymentRequest{
			ID:            uuid.New().String(),
			Title:         rec.Title,
			Amount:        rec.Amount,
			DueDate:       &paidAt,
			Category:      rec.Category,
			Status:        models.StatusPaid,
			MemberID:      rec.MemberID,
			TransactionID: transactionID,
			CreatedAt:     s.now().Unix(),
		}
		err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
			return tx.InsertPaymentRequest(p)
		})
		if err != nil {
			return result, wrapStore("import legacy payments", err)
		}

		result.Imported++
		if transactionID != "" {
			result.Linked++
		}
	}

	slog.Info("Legacy payments imported",
		"imported", result.Imported,
		"linked", result.Linked,
		"skipped", result.Skipped,
	)
	return result, nil
}

// matchTransaction finds the best candidate transaction for a legacy record:
// same member and amount, newest first, description containing the record's
// title or category matching. Candidates already linked to another invoice
// are passed over.
func (s *MigrationService) matchTransaction(ctx context.Context, rec models.LegacyPayment) (string, error) {
	candidates, err := s.store.ListTransactionsByMemberAmount(ctx, rec.MemberID, rec.Amount)
	if err != nil {
		return "", err
	}

	for _, tr := range candidates {
		if !legacyHeuristicMatch(tr, rec) {
			continue
		}
		linked, err := s.store.FindPaymentRequestByTransaction(ctx, tr.ID)
		if err != nil {
			return "", err
		}
		if linked != nil {
			continue
		}
		return tr.ID, nil
	}
	return "", nil
}

func legacyHeuristicMatch(tr models.Transaction, rec models.LegacyPayment) bool {
	if rec.Title != "" && strings.Contains(strings.ToLower(tr.Description), strings.ToLower(rec.Title)) {
		return true
	}
	return rec.Category != "" && strings.EqualFold(tr.Category, rec.Category)
}
