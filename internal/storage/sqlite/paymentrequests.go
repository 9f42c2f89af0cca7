package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/money"
)

const requestColumns = "id, title, description, amount, due_date, category, status, member_id, transaction_id, created_at"

func scanPaymentRequest(row interface{ Scan(...any) error }) (*models.PaymentRequest, error) {
	p := &models.PaymentRequest{}
	var amount, status string
	var dueDate sql.NullInt64
	var transactionID sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Description, &amount, &dueDate, &p.Category, &status, &p.MemberID, &transactionID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Amount, err = money.Parse(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for payment request %s: %w", p.ID, err)
	}
	p.Status = models.RequestStatus(status)
	if dueDate.Valid {
		d := time.Unix(dueDate.Int64, 0).UTC()
		p.DueDate = &d
	}
	p.TransactionID = transactionID.String
	return p, nil
}

func getPaymentRequest(ctx context.Context, q querier, id string) (*models.PaymentRequest, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM payment_requests WHERE id = ?", id)
	p, err := scanPaymentRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil // Request not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}
	return p, nil
}

func findPaymentRequestByTransaction(ctx context.Context, q querier, transactionID string) (*models.PaymentRequest, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM payment_requests WHERE transaction_id = ?", transactionID)
	p, err := scanPaymentRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil // No request linked to this transaction
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment request by transaction: %w", err)
	}
	return p, nil
}

func listPaymentRequests(ctx context.Context, q querier, query string, args ...any) ([]models.PaymentRequest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment requests: %w", err)
	}
	defer rows.Close()

	var requests []models.PaymentRequest
	for rows.Next() {
		p, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment request: %w", err)
		}
		requests = append(requests, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment requests: %w", err)
	}
	return requests, nil
}

// GetPaymentRequest retrieves a payment request by ID.
func (s *SQLiteStore) GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	return getPaymentRequest(ctx, s.db, id)
}

// ListPaymentRequestsByTitle returns the request group with the given title,
// oldest first so the first request is the stable field template.
func (s *SQLiteStore) ListPaymentRequestsByTitle(ctx context.Context, title string) ([]models.PaymentRequest, error) {
	return listPaymentRequests(ctx, s.db,
		"SELECT "+requestColumns+" FROM payment_requests WHERE title = ? ORDER BY created_at, rowid", title)
}

// ListPaymentRequestsByMember returns all of a member's requests, newest first.
func (s *SQLiteStore) ListPaymentRequestsByMember(ctx context.Context, memberID string) ([]models.PaymentRequest, error) {
	return listPaymentRequests(ctx, s.db,
		"SELECT "+requestColumns+" FROM payment_requests WHERE member_id = ? ORDER BY created_at DESC, rowid DESC", memberID)
}

// FindPaymentRequestByTransaction returns the request linked to the
// transaction, if any.
func (s *SQLiteStore) FindPaymentRequestByTransaction(ctx context.Context, transactionID string) (*models.PaymentRequest, error) {
	return findPaymentRequestByTransaction(ctx, s.db, transactionID)
}

// HasPaymentRequest reports whether the member already has a request with the
// given title. A non-empty category narrows the match.
func (s *SQLiteStore) HasPaymentRequest(ctx context.Context, memberID, title, category string) (bool, error) {
	query := "SELECT COUNT(*) FROM payment_requests WHERE member_id = ? AND title = ?"
	args := []any{memberID, title}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count payment requests: %w", err)
	}
	return count > 0, nil
}

// GetPaymentRequest retrieves a request inside the transaction.
func (t *sqliteTx) GetPaymentRequest(id string) (*models.PaymentRequest, error) {
	return getPaymentRequest(t.ctx, t.tx, id)
}

// FindPaymentRequestByTransaction returns the linked request inside the
// transaction, if any.
func (t *sqliteTx) FindPaymentRequestByTransaction(transactionID string) (*models.PaymentRequest, error) {
	return findPaymentRequestByTransaction(t.ctx, t.tx, transactionID)
}

// ListPaymentRequestsByTitle returns the request group inside the
// transaction, oldest first.
func (t *sqliteTx) ListPaymentRequestsByTitle(title string) ([]models.PaymentRequest, error) {
	return listPaymentRequests(t.ctx, t.tx,
		"SELECT "+requestColumns+" FROM payment_requests WHERE title = ? ORDER BY created_at, rowid", title)
}

// InsertPaymentRequest persists a new payment request.
func (t *sqliteTx) InsertPaymentRequest(p *models.PaymentRequest) error {
	var dueDate any
	if p.DueDate != nil {
		dueDate = p.DueDate.Unix()
	}
	_, err := t.tx.ExecContext(t.ctx,
		"INSERT INTO payment_requests (id, title, description, amount, due_date, category, status, member_id, transaction_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Title, p.Description, p.Amount.String(), dueDate, p.Category, string(p.Status), p.MemberID, nullable(p.TransactionID), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment request: %w", err)
	}
	return nil
}

// UpdatePaymentRequest updates a request's mutable fields.
func (t *sqliteTx) UpdatePaymentRequest(p *models.PaymentRequest) error {
	var dueDate any
	if p.DueDate != nil {
		dueDate = p.DueDate.Unix()
	}
	res, err := t.tx.ExecContext(t.ctx,
		"UPDATE payment_requests SET title = ?, description = ?, amount = ?, due_date = ?, category = ?, status = ?, transaction_id = ? WHERE id = ?",
		p.Title, p.Description, p.Amount.String(), dueDate, p.Category, string(p.Status), nullable(p.TransactionID), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	return requireRowAffected(res, "payment request", p.ID)
}

// DeletePaymentRequest removes a request.
func (t *sqliteTx) DeletePaymentRequest(id string) error {
	res, err := t.tx.ExecContext(t.ctx, "DELETE FROM payment_requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete payment request: %w", err)
	}
	return requireRowAffected(res, "payment request", id)
}

// DeletePendingRequestsByMember removes the member's PENDING requests.
func (t *sqliteTx) DeletePendingRequestsByMember(memberID string) error {
	_, err := t.tx.ExecContext(t.ctx,
		"DELETE FROM payment_requests WHERE member_id = ? AND status = ?",
		memberID, string(models.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to delete pending requests: %w", err)
	}
	return nil
}
