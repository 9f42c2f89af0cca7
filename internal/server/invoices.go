package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/service"
)

type invoiceResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Category      string          `json:"category,omitempty"`
	Status        string          `json:"status"`
	MemberID      string          `json:"member_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	CreatedAt     int64           `json:"created_at"`
}

func toInvoiceResponse(p *models.PaymentRequest) invoiceResponse {
	return invoiceResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Amount:        p.Amount,
		DueDate:       p.DueDate,
		Category:      p.Category,
		Status:        string(p.Status),
		MemberID:      p.MemberID,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}

func toInvoiceList(requests []models.PaymentRequest) []invoiceResponse {
	out := make([]invoiceResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toInvoiceResponse(&requests[i]))
	}
	return out
}

type createInvoiceRequest struct {
	MemberID    string          `json:"member_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	DueDate     *time.Time      `json:"due_date"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.invoices.CreateInvoice(r.Context(), service.CreateInvoiceInput{
		MemberID:    req.MemberID,
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceResponse(p))
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	p, err := s.invoices.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(p))
}

type settleInvoiceRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (s *Server) handleSettleInvoice(w http.ResponseWriter, r *http.Request) {
	var req settleInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.invoices.SettleInvoice(r.Context(), chi.URLParam(r, "id"), req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(p))
}

func (s *Server) handleWaiveInvoice(w http.ResponseWriter, r *http.Request) {
	p, err := s.invoices.WaiveInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(p))
}

func (s *Server) handleListMemberInvoices(w http.ResponseWriter, r *http.Request) {
	requests, err := s.invoices.ListInvoicesByMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": toInvoiceList(requests)})
}

func (s *Server) handleListInvoiceGroup(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, models.Validationf("title query parameter is required"))
		return
	}

	requests, err := s.invoices.ListInvoiceGroup(r.Context(), title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": toInvoiceList(requests)})
}

type syncGroupRequest struct {
	Title       string           `json:"title"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	DueDate     *time.Time       `json:"due_date"`
	SyncMembers bool             `json:"sync_members"`
	MemberIDs   []string         `json:"member_ids"`
}

type syncGroupResponse struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	KeptPaid int `json:"kept_paid"`
	Updated  int `json:"updated"`
}

func (s *Server) handleSyncGroup(w http.ResponseWriter, r *http.Request) {
	var req syncGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.invoices.SyncGroup(r.Context(), service.SyncGroupInput{
		Title:            req.Title,
		Amount:           req.Amount,
		Description:      req.Description,
		DueDate:          req.DueDate,
		SyncMembers:      req.SyncMembers,
		DesiredMemberIDs: req.MemberIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncGroupResponse{
		Added:    result.Added,
		Removed:  result.Removed,
		KeptPaid: result.KeptPaid,
		Updated:  result.Updated,
	})
}

type recurringInvoicesRequest struct {
	StartYear  int `json:"start_year"`
	StartMonth int `json:"start_month"`
	Count      int `json:"count"`
}

type recurringInvoicesResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

func (s *Server) handleCreateRecurringInvoices(w http.ResponseWriter, r *http.Request) {
	var req recurringInvoicesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.invoices.CreateFutureRecurringInvoices(
		r.Context(), chi.URLParam(r, "id"), req.StartYear, time.Month(req.StartMonth), req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recurringInvoicesResponse{Created: result.Created, Skipped: result.Skipped})
}
