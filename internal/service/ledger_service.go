package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/money"
	"github.com/clubledger/server/internal/storage"
)

// LedgerService is the allocation engine: it validates and persists
// transactions, applies their balance effects through the mutator, and
// reverses them on deletion.
type LedgerService struct {
	store   storage.Store
	perms   *auth.Evaluator
	mutator BalanceMutator
	now     clock
}

// NewLedgerService creates a ledger service with the given storage backend
// and permission evaluator.
func NewLedgerService(store storage.Store, perms *auth.Evaluator) *LedgerService {
	return &LedgerService{store: store, perms: perms, now: time.Now}
}

// WithClock overrides the service clock for deterministic tests.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// Split is one member's share of a split transaction. An empty MemberID
// marks a communal share: it stays on the ledger but is not applied to any
// member's balance.
type Split struct {
	MemberID string
	Amount   decimal.Decimal
}

// CreateTransactionInput carries the fields of a new transaction.
type CreateTransactionInput struct {
	Amount      decimal.Decimal
	Description string
	Category    string
	Date        time.Time
	// MemberID owns an unsplit transaction; empty means communal.
	// Must be empty when Splits are given.
	MemberID string
	Splits   []Split
	// SplitAmong divides Amount evenly across the listed members, any
	// residue going to the first. Mutually exclusive with Splits.
	SplitAmong []string
}

func (in *CreateTransactionInput) validate() error {
	if in.Description == "" {
		return models.Validationf("description is required")
	}
	if in.Amount.Exponent() < -money.Places {
		return models.Validationf("amount %s has more than %d fraction digits", in.Amount, money.Places)
	}
	if len(in.Splits) == 0 {
		return nil
	}
	if in.MemberID != "" {
		return models.Validationf("a split transaction cannot also have an owning member")
	}
	amounts := make([]decimal.Decimal, len(in.Splits))
	for i, sp := range in.Splits {
		if sp.Amount.Exponent() < -money.Places {
			return models.Validationf("split %d amount %s has more than %d fraction digits", i, sp.Amount, money.Places)
		}
		amounts[i] = sp.Amount
	}
	if sum := money.Sum(amounts); !sum.Equal(in.Amount) {
		return models.Validationf("split amounts sum to %s, want %s", sum, in.Amount)
	}
	return nil
}

// expandEvenSplit turns SplitAmong into explicit Splits.
func (in *CreateTransactionInput) expandEvenSplit() error {
	if len(in.SplitAmong) == 0 {
		return nil
	}
	if len(in.Splits) > 0 {
		return models.Validationf("an even split cannot be combined with explicit splits")
	}
	shares, err := money.SplitEvenly(in.Amount, len(in.SplitAmong))
	if err != nil {
		return models.Validationf("invalid even split: %v", err)
	}
	for i, memberID := range in.SplitAmong {
		in.Splits = append(in.Splits, Split{MemberID: memberID, Amount: shares[i]})
	}
	in.SplitAmong = nil
	return nil
}

// memberDeltas aggregates allocation shares per distinct member, dropping
// communal shares.
func memberDeltas(allocs []models.Allocation) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)
	for _, a := range allocs {
		if a.MemberID == "" {
			continue
		}
		deltas[a.MemberID] = deltas[a.MemberID].Add(a.Amount)
	}
	return deltas
}

// CreateTransaction validates the input and persists the transaction, its
// allocations and every affected member balance as one atomic unit.
func (s *LedgerService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*models.Transaction, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageLedger); err != nil {
		return nil, err
	}
	if err := in.expandEvenSplit(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	tr := &models.Transaction{
		ID:          uuid.New().String(),
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Date:        in.Date,
		MemberID:    in.MemberID,
		CreatedAt:   s.now().Unix(),
	}
	if tr.Date.IsZero() {
		tr.Date = s.now()
	}
	for _, sp := range in.Splits {
		tr.Allocations = append(tr.Allocations, models.Allocation{
			TransactionID: tr.ID,
			MemberID:      sp.MemberID,
			Amount:        sp.Amount,
		})
	}

	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		if err := s.requireMembers(tx, tr); err != nil {
			return err
		}
		if err := tx.InsertTransaction(tr); err != nil {
			return err
		}
		if len(tr.Allocations) > 0 {
			for memberID, delta := range memberDeltas(tr.Allocations) {
				if err := s.mutator.ApplyDelta(tx, memberID, delta); err != nil {
					return err
				}
			}
			return nil
		}
		if tr.MemberID != "" {
			return s.mutator.ApplyDelta(tx, tr.MemberID, tr.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStore("create transaction", err)
	}

	slog.Info("Transaction created",
		"transaction_id", tr.ID,
		"amount", tr.Amount,
		"splits", len(tr.Allocations),
	)
	return tr, nil
}

// requireMembers verifies the owner and every split member exist.
func (s *LedgerService) requireMembers(tx storage.Tx, tr *models.Transaction) error {
	ids := make([]string, 0, len(tr.Allocations)+1)
	if tr.MemberID != "" {
		ids = append(ids, tr.MemberID)
	}
	for _, a := range tr.Allocations {
		if a.MemberID != "" {
			ids = append(ids, a.MemberID)
		}
	}
	for _, id := range ids {
		m, err := tx.GetMember(id)
		if err != nil {
			return err
		}
		if m == nil {
			return models.NotFoundf("member not found: %s", id)
		}
	}
	return nil
}

// DeleteTransaction reverses the transaction's balance effect and removes it,
// all in one atomic unit. A payment request settled by the transaction is
// unlinked and reopened.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := requireAction(ctx, s.perms, auth.ActionManageLedger); err != nil {
		return err
	}

	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		tr, err := tx.GetTransaction(id)
		if err != nil {
			return err
		}
		if tr == nil {
			return models.NotFoundf("transaction not found: %s", id)
		}

		if len(tr.Allocations) > 0 {
			for memberID, delta := range memberDeltas(tr.Allocations) {
				if err := s.mutator.ReverseDelta(tx, memberID, delta); err != nil {
					return err
				}
			}
		} else if tr.MemberID != "" {
			if err := s.mutator.ReverseDelta(tx, tr.MemberID, tr.Amount); err != nil {
				return err
			}
		}

		linked, err := tx.FindPaymentRequestByTransaction(id)
		if err != nil {
			return err
		}
		if linked != nil {
			linked.TransactionID = ""
			linked.Status = models.StatusPending
			if err := tx.UpdatePaymentRequest(linked); err != nil {
				return err
			}
		}

		return tx.DeleteTransaction(id)
	})
	if err != nil {
		return wrapStore("delete transaction", err)
	}

	slog.Info("Transaction deleted", "transaction_id", id)
	return nil
}

// DeleteAllTransactions is the administrative nuke: it removes every
// transaction and zeroes every member balance in the same atomic unit, so no
// window exists where the ledger is gone but balances are stale.
func (s *LedgerService) DeleteAllTransactions(ctx context.Context) (int64, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageLedger); err != nil {
		return 0, err
	}

	var removed int64
	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		n, err := tx.DeleteAllTransactions()
		if err != nil {
			return err
		}
		removed = n
		return tx.ZeroAllBalances()
	})
	if err != nil {
		return 0, wrapStore("delete all transactions", err)
	}

	slog.Warn("All transactions deleted", "removed", removed)
	return removed, nil
}

// Summary is an aggregate view of the treasury.
type Summary struct {
	// TreasuryTotal is the raw sum of all transaction amounts, including
	// communal shares that belong to no member.
	TreasuryTotal decimal.Decimal
	// MemberBalanceTotal is the sum of all cached member balances.
	MemberBalanceTotal decimal.Decimal
	Transactions       int
	Members            int
}

// Summarize computes the treasury summary from current state.
func (s *LedgerService) Summarize(ctx context.Context) (*Summary, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, wrapStore("summarize", err)
	}
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, wrapStore("summarize", err)
	}

	sum := &Summary{Transactions: len(txns), Members: len(members)}
	for _, t := range txns {
		sum.TreasuryTotal = sum.TreasuryTotal.Add(t.Amount)
	}
	for _, m := range members {
		sum.MemberBalanceTotal = sum.MemberBalanceTotal.Add(m.Balance)
	}
	return sum, nil
}

// GetTransaction returns a transaction with allocations.
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	tr, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, wrapStore("get transaction", err)
	}
	if tr == nil {
		return nil, models.NotFoundf("transaction not found: %s", id)
	}
	return tr, nil
}

// ListTransactions returns the full ledger, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, wrapStore("list transactions", err)
	}
	return txns, nil
}
