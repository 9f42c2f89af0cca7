package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/service"
)

type allocationResponse struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type transactionResponse struct {
	ID          string               `json:"id"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category,omitempty"`
	Date        time.Time            `json:"date"`
	MemberID    string               `json:"member_id,omitempty"`
	Allocations []allocationResponse `json:"allocations,omitempty"`
	CreatedAt   int64                `json:"created_at"`
}

func toTransactionResponse(tr *models.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          tr.ID,
		Amount:      tr.Amount,
		Description: tr.Description,
		Category:    tr.Category,
		Date:        tr.Date,
		MemberID:    tr.MemberID,
		CreatedAt:   tr.CreatedAt,
	}
	for _, a := range tr.Allocations {
		resp.Allocations = append(resp.Allocations, allocationResponse{MemberID: a.MemberID, Amount: a.Amount})
	}
	return resp
}

type splitRequest struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type createTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        *time.Time      `json:"date"`
	MemberID    string          `json:"member_id"`
	Splits      []splitRequest  `json:"splits"`
	SplitAmong  []string        `json:"split_among"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.CreateTransactionInput{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		MemberID:    req.MemberID,
		SplitAmong:  req.SplitAmong,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	for _, sp := range req.Splits {
		in.Splits = append(in.Splits, service.Split{MemberID: sp.MemberID, Amount: sp.Amount})
	}

	tr, err := s.ledger.CreateTransaction(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tr))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tr, err := s.ledger.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tr))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResponse(&txns[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	TreasuryTotal      decimal.Decimal `json:"treasury_total"`
	MemberBalanceTotal decimal.Decimal `json:"member_balance_total"`
	Transactions       int             `json:"transactions"`
	Members            int             `json:"members"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.Summarize(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TreasuryTotal:      sum.TreasuryTotal,
		MemberBalanceTotal: sum.MemberBalanceTotal,
		Transactions:       sum.Transactions,
		Members:            sum.Members,
	})
}
