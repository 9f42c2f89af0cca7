package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/money"
	"github.com/clubledger/server/internal/notify"
	"github.com/clubledger/server/internal/storage"
)

// recurringCategory tags invoices generated from membership-type fees.
const recurringCategory = "Membership fee"

// InvoiceService is the invoice linker and group synchronizer: it creates
// and settles payment requests, generates recurring membership invoices and
// reconciles invoice groups against a desired member roster.
type InvoiceService struct {
	store    storage.Store
	perms    *auth.Evaluator
	notifier notify.Notifier
	now      clock
}

// NewInvoiceService creates an invoice service.
func NewInvoiceService(store storage.Store, perms *auth.Evaluator, notifier notify.Notifier) *InvoiceService {
	return &InvoiceService{store: store, perms: perms, notifier: notifier, now: time.Now}
}

// WithClock overrides the service clock for deterministic tests.
func (s *InvoiceService) WithClock(now func() time.Time) *InvoiceService {
	s.now = now
	return s
}

// CreateInvoiceInput carries the fields of a new payment request.
type CreateInvoiceInput struct {
	MemberID    string
	Title       string
	Description string
	Amount      decimal.Decimal
	Category    string
	DueDate     *time.Time
}

// CreateInvoice inserts a PENDING payment request for a member.
func (s *InvoiceService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*models.PaymentRequest, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageInvoices); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, models.Validationf("title is required")
	}
	if !in.Amount.IsPositive() {
		return nil, models.Validationf("amount must be positive")
	}
	if in.Amount.Exponent() < -money.Places {
		return nil, models.Validationf("amount %s has more than %d fraction digits", in.Amount, money.Places)
	}

	member, err := s.store.GetMember(ctx, in.MemberID)
	if err != nil {
		return nil, wrapStore("create invoice", err)
	}
	if member == nil {
		return nil, models.NotFoundf("member not found: %s", in.MemberID)
	}

	p := &models.PaymentRequest{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		DueDate:     in.DueDate,
		Category:    in.Category,
		Status:      models.StatusPending,
		MemberID:    in.MemberID,
		CreatedAt:   s.now().Unix(),
	}
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.InsertPaymentRequest(p)
	})
	if err != nil {
		return nil, wrapStore("create invoice", err)
	}

	slog.Info("Invoice created", "invoice_id", p.ID, "member_id", p.MemberID, "title", p.Title)
	return p, nil
}

// SettleInvoice links a transaction to an invoice and marks it PAID. The
// transaction must not already settle another invoice: a settling
// transaction can close at most one. Settling moves no money; the
// transaction's balance effect already happened when it was created.
func (s *InvoiceService) SettleInvoice(ctx context.Context, invoiceID, transactionID string) (*models.PaymentRequest, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageInvoices); err != nil {
		return nil, err
	}

	var settled *models.PaymentRequest
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPaymentRequest(invoiceID)
		if err != nil {
			return err
		}
		if p == nil {
			return models.NotFoundf("payment request not found: %s", invoiceID)
		}
		if p.Status != models.StatusPending {
			return models.Conflictf("payment request %s is %s and cannot be settled", invoiceID, p.Status)
		}

		tr, err := tx.GetTransaction(transactionID)
		if err != nil {
			return err
		}
		if tr == nil {
			return models.NotFoundf("transaction not found: %s", transactionID)
		}

		other, err := tx.FindPaymentRequestByTransaction(transactionID)
		if err != nil {
			return err
		}
		if other != nil {
			return models.Conflictf("transaction %s already settles payment request %s", transactionID, other.ID)
		}

		p.Status = models.StatusPaid
		p.TransactionID = transactionID
		if err := tx.UpdatePaymentRequest(p); err != nil {
			return err
		}
		settled = p
		return nil
	})
	if err != nil {
		return nil, wrapStore("settle invoice", err)
	}

	slog.Info("Invoice settled", "invoice_id", invoiceID, "transaction_id", transactionID)
	s.dispatch(settled.MemberID, settled.Title, "Your payment has been received.", "/payment-requests/"+settled.ID)
	return settled, nil
}

// WaiveInvoice forgives a pending payment request. Paid requests cannot be
// waived.
func (s *InvoiceService) WaiveInvoice(ctx context.Context, invoiceID string) (*models.PaymentRequest, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageInvoices); err != nil {
		return nil, err
	}

	var waived *models.PaymentRequest
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPaymentRequest(invoiceID)
		if err != nil {
			return err
		}
		if p == nil {
			return models.NotFoundf("payment request not found: %s", invoiceID)
		}
		if p.Paid() {
			return models.Conflictf("payment request %s is already settled and cannot be waived", invoiceID)
		}
		p.Status = models.StatusWaived
		if err := tx.UpdatePaymentRequest(p); err != nil {
			return err
		}
		waived = p
		return nil
	})
	if err != nil {
		return nil, wrapStore("waive invoice", err)
	}

	slog.Info("Invoice waived", "invoice_id", invoiceID)
	return waived, nil
}

// RecurringResult reports how many monthly invoices a generation run created
// and how many periods it skipped because they were already invoiced.
type RecurringResult struct {
	Created int
	Skipped int
}

// recurringTitle names one monthly period deterministically so re-runs can
// detect existing invoices.
func recurringTitle(year int, month time.Month) string {
	return fmt.Sprintf("Membership fee %04d-%02d", year, int(month))
}

// CreateFutureRecurringInvoices generates up to count monthly membership-fee
// invoices for the member starting at the given period. Periods that already
// have an invoice of the same title are skipped, so re-running is idempotent.
func (s *InvoiceService) CreateFutureRecurringInvoices(ctx context.Context, memberID string, startYear int, startMonth time.Month, count int) (*RecurringResult, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageInvoices); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, models.Validationf("count must be positive")
	}
	if startMonth < time.January || startMonth > time.December {
		return nil, models.Validationf("invalid start month %d", startMonth)
	}

	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, wrapStore("create recurring invoices", err)
	}
	if member == nil {
		return nil, models.NotFoundf("member not found: %s", memberID)
	}

	mt, err := s.store.GetMembershipType(ctx, member.MembershipType)
	if err != nil {
		return nil, wrapStore("create recurring invoices", err)
	}
	if mt == nil {
		return nil, models.Validationf("member %s has no membership type with a configured fee", memberID)
	}

	// Resolve which periods still need an invoice before opening the write
	// transaction; the titles are distinct so the checks need not see the
	// transaction's own inserts.
	result := &RecurringResult{}
	var missing []time.Time
	period := time.Date(startYear, startMonth, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		due := period.AddDate(0, i, 0)
		exists, err := s.store.HasPaymentRequest(ctx, memberID, recurringTitle(due.Year(), due.Month()), "")
		if err != nil {
			return nil, wrapStore("create recurring invoices", err)
		}
		if exists {
			result.Skipped++
			continue
		}
		missing = append(missing, due)
	}

	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		for _, due := range missing {
			dueDate := due
			if err := tx.InsertPaymentRequest(&models.PaymentRequest{
				ID:        uuid.New().String(),
				Title:     recurringTitle(due.Year(), due.Month()),
				Amount:    mt.Fee,
				DueDate:   &dueDate,
				Category:  recurringCategory,
				Status:    models.StatusPending,
				MemberID:  memberID,
				CreatedAt: s.now().Unix(),
			}); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, wrapStore("create recurring invoices", err)
	}

	slog.Info("Recurring invoices generated",
		"member_id", memberID,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

// GetInvoice returns a payment request by ID.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*models.PaymentRequest, error) {
	p, err := s.store.GetPaymentRequest(ctx, id)
	if err != nil {
		return nil, wrapStore("get invoice", err)
	}
	if p == nil {
		return nil, models.NotFoundf("payment request not found: %s", id)
	}
	return p, nil
}

// ListInvoicesByMember returns all of a member's payment requests.
func (s *InvoiceService) ListInvoicesByMember(ctx context.Context, memberID string) ([]models.PaymentRequest, error) {
	requests, err := s.store.ListPaymentRequestsByMember(ctx, memberID)
	if err != nil {
		return nil, wrapStore("list invoices", err)
	}
	return requests, nil
}

// ListInvoiceGroup returns the payment requests sharing a title.
func (s *InvoiceService) ListInvoiceGroup(ctx context.Context, title string) ([]models.PaymentRequest, error) {
	requests, err := s.store.ListPaymentRequestsByTitle(ctx, title)
	if err != nil {
		return nil, wrapStore("list invoice group", err)
	}
	return requests, nil
}

// dispatch delivers a notification fire-and-forget. Failures are logged and
// never surface to the financial operation that triggered them.
func (s *InvoiceService) dispatch(memberID, title, message, link string) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.Notify(context.Background(), memberID, title, message, link); err != nil {
			slog.Warn("Notification failed", "member_id", memberID, "title", title, "error", err)
		}
	}()
}
