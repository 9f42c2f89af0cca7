package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/money"
)

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	tr := &models.Transaction{}
	var amount string
	var date int64
	var memberID sql.NullString
	err := row.Scan(&tr.ID, &amount, &tr.Description, &tr.Category, &date, &memberID, &tr.CreatedAt)
	if err != nil {
		return nil, err
	}
	tr.Amount, err = money.Parse(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for transaction %s: %w", tr.ID, err)
	}
	tr.Date = time.Unix(date, 0).UTC()
	tr.MemberID = memberID.String
	return tr, nil
}

func loadAllocations(ctx context.Context, q querier, transactionID string) ([]models.Allocation, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT transaction_id, member_id, amount FROM allocations WHERE transaction_id = ? ORDER BY rowid",
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocations: %w", err)
	}
	defer rows.Close()

	var allocs []models.Allocation
	for rows.Next() {
		var a models.Allocation
		var memberID sql.NullString
		var amount string
		if err := rows.Scan(&a.TransactionID, &memberID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.MemberID = memberID.String
		a.Amount, err = money.Parse(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt allocation amount on transaction %s: %w", a.TransactionID, err)
		}
		allocs = append(allocs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocations: %w", err)
	}
	return allocs, nil
}

func getTransaction(ctx context.Context, q querier, id string) (*models.Transaction, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, amount, description, category, date, member_id, created_at FROM transactions WHERE id = ?",
		id,
	)
	tr, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil // Transaction not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	tr.Allocations, err = loadAllocations(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// GetTransaction retrieves a transaction by ID, including its allocations.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return getTransaction(ctx, s.db, id)
}

func queryTransactions(ctx context.Context, q querier, query string, args ...any) ([]models.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	for i := range txns {
		txns[i].Allocations, err = loadAllocations(ctx, q, txns[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// ListTransactions returns all transactions, newest first, with allocations.
func (s *SQLiteStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.db,
		"SELECT id, amount, description, category, date, member_id, created_at FROM transactions ORDER BY date DESC, created_at DESC")
}

// ListTransactionsByMemberAmount returns the member's owned transactions with
// the given amount, newest first. Amounts compare as normalized strings.
func (s *SQLiteStore) ListTransactionsByMemberAmount(ctx context.Context, memberID string, amount decimal.Decimal) ([]models.Transaction, error) {
	return queryTransactions(ctx, s.db,
		"SELECT id, amount, description, category, date, member_id, created_at FROM transactions WHERE member_id = ? AND amount = ? ORDER BY date DESC, created_at DESC",
		memberID, amount.String())
}

// memberLedgerSum computes the member's balance from history: owned
// transactions that carry no allocations, plus the member's allocation
// shares. Allocation-bearing transactions count through their allocations
// only, so legacy rows with both an owner and allocations are not counted
// twice. Sums run in Go because SQLite would coerce TEXT amounts to floats.
func memberLedgerSum(ctx context.Context, q querier, memberID string) (decimal.Decimal, error) {
	total := decimal.Zero

	rows, err := q.QueryContext(ctx, `
		SELECT amount FROM transactions t
		WHERE t.member_id = ?
		  AND NOT EXISTS (SELECT 1 FROM allocations a WHERE a.transaction_id = t.id)`,
		memberID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum owned transactions: %w", err)
	}
	total, err = sumAmountRows(rows, total)
	if err != nil {
		return decimal.Zero, err
	}

	rows, err = q.QueryContext(ctx,
		"SELECT amount FROM allocations WHERE member_id = ?", memberID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum allocation shares: %w", err)
	}
	return sumAmountRows(rows, total)
}

func sumAmountRows(rows *sql.Rows, total decimal.Decimal) (decimal.Decimal, error) {
	defer rows.Close()
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := money.Parse(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt amount: %w", err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return total, nil
}

// MemberLedgerSum computes the member's balance from full history.
func (s *SQLiteStore) MemberLedgerSum(ctx context.Context, memberID string) (decimal.Decimal, error) {
	return memberLedgerSum(ctx, s.db, memberID)
}

// GetTransaction retrieves a transaction inside the transaction.
func (t *sqliteTx) GetTransaction(id string) (*models.Transaction, error) {
	return getTransaction(t.ctx, t.tx, id)
}

// InsertTransaction persists a transaction and its allocations.
func (t *sqliteTx) InsertTransaction(tr *models.Transaction) error {
	_, err := t.tx.ExecContext(t.ctx,
		"INSERT INTO transactions (id, amount, description, category, date, member_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		tr.ID, tr.Amount.String(), tr.Description, tr.Category, tr.Date.Unix(), nullable(tr.MemberID), tr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for _, a := range tr.Allocations {
		_, err = t.tx.ExecContext(t.ctx,
			"INSERT INTO allocations (transaction_id, member_id, amount) VALUES (?, ?, ?)",
			tr.ID, nullable(a.MemberID), a.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
	}
	return nil
}

// DeleteTransaction removes a transaction; allocations cascade.
func (t *sqliteTx) DeleteTransaction(id string) error {
	res, err := t.tx.ExecContext(t.ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRowAffected(res, "transaction", id)
}

// DeleteAllTransactions removes every transaction and allocation.
func (t *sqliteTx) DeleteAllTransactions() (int64, error) {
	res, err := t.tx.ExecContext(t.ctx, "DELETE FROM transactions")
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// ClearTransactionOwner nulls the member reference on the member's owned
// transactions and allocation shares. The rows stay for audit.
func (t *sqliteTx) ClearTransactionOwner(memberID string) error {
	if _, err := t.tx.ExecContext(t.ctx,
		"UPDATE transactions SET member_id = NULL WHERE member_id = ?", memberID); err != nil {
		return fmt.Errorf("failed to clear transaction owner: %w", err)
	}
	if _, err := t.tx.ExecContext(t.ctx,
		"UPDATE allocations SET member_id = NULL WHERE member_id = ?", memberID); err != nil {
		return fmt.Errorf("failed to clear allocation owner: %w", err)
	}
	return nil
}

// MemberLedgerSum computes the member's balance from history inside the
// transaction.
func (t *sqliteTx) MemberLedgerSum(memberID string) (decimal.Decimal, error) {
	return memberLedgerSum(t.ctx, t.tx, memberID)
}

// nullable converts an empty string to NULL for optional references.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
