package server

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/models"
)

type deleteAllTransactionsResponse struct {
	Deleted int64 `json:"deleted"`
}

// handleDeleteAllTransactions wipes the ledger and zeroes every balance.
func (s *Server) handleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.ledger.DeleteAllTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteAllTransactionsResponse{Deleted: deleted})
}

type recalculateBalancesResponse struct {
	Updated int `json:"updated"`
}

func (s *Server) handleRecalculateBalances(w http.ResponseWriter, r *http.Request) {
	updated, err := s.reconciler.RecalculateAllBalances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recalculateBalancesResponse{Updated: updated})
}

type legacyPaymentRequest struct {
	MemberID string          `json:"member_id"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	PaidAt   time.Time       `json:"paid_at"`
}

type importLegacyPaymentsRequest struct {
	Payments []legacyPaymentRequest `json:"payments"`
}

type importLegacyPaymentsResponse struct {
	Imported int `json:"imported"`
	Linked   int `json:"linked"`
	Skipped  int `json:"skipped"`
}

func (s *Server) handleImportLegacyPayments(w http.ResponseWriter, r *http.Request) {
	var req importLegacyPaymentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	records := make([]models.LegacyPayment, 0, len(req.Payments))
	for _, p := range req.Payments {
		records = append(records, models.LegacyPayment{
			MemberID: p.MemberID,
			Title:    p.Title,
			Amount:   p.Amount,
			Category: p.Category,
			PaidAt:   p.PaidAt,
		})
	}

	result, err := s.migrator.ImportLegacyPayments(r.Context(), records)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importLegacyPaymentsResponse{
		Imported: result.Imported,
		Linked:   result.Linked,
		Skipped:  result.Skipped,
	})
}
