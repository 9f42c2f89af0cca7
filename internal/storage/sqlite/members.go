package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/money"
)

const memberColumns = "id, name, email, password_hash, role, balance, membership_type, created_at"

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	m := &models.Member{}
	var balance string
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &balance, &m.MembershipType, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Balance, err = money.Parse(balance)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance for member %s: %w", m.ID, err)
	}
	return m, nil
}

func getMember(ctx context.Context, q querier, id string) (*models.Member, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil // Member not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return getMember(ctx, s.db, id)
}

// GetMemberByEmail retrieves a member by their email address.
func (s *SQLiteStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE email = ?", email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil // Member not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return m, nil
}

// ListMembers returns all members ordered by name.
func (s *SQLiteStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// GetMember retrieves a member inside the transaction.
func (t *sqliteTx) GetMember(id string) (*models.Member, error) {
	return getMember(t.ctx, t.tx, id)
}

// InsertMember persists a new member.
func (t *sqliteTx) InsertMember(m *models.Member) error {
	_, err := t.tx.ExecContext(t.ctx,
		"INSERT INTO members (id, name, email, password_hash, role, balance, membership_type, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.Name, m.Email, m.PasswordHash, m.Role, m.Balance.String(), m.MembershipType, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// UpdateMember updates a member's identity fields. Balance is deliberately
// excluded; only ApplyBalanceDelta and SetBalance touch it.
func (t *sqliteTx) UpdateMember(m *models.Member) error {
	res, err := t.tx.ExecContext(t.ctx,
		"UPDATE members SET name = ?, email = ?, password_hash = ?, role = ?, membership_type = ? WHERE id = ?",
		m.Name, m.Email, m.PasswordHash, m.Role, m.MembershipType, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return requireRowAffected(res, "member", m.ID)
}

// DeleteMember removes the member row.
func (t *sqliteTx) DeleteMember(id string) error {
	res, err := t.tx.ExecContext(t.ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return requireRowAffected(res, "member", id)
}

// ApplyBalanceDelta increments the member's balance by delta. The
// read-modify-write runs inside the surrounding SQL transaction, so SQLite's
// isolation serializes concurrent mutations of the same row.
func (t *sqliteTx) ApplyBalanceDelta(memberID string, delta decimal.Decimal) error {
	m, err := t.GetMember(memberID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("member not found: %s", memberID)
	}
	return t.SetBalance(memberID, m.Balance.Add(delta))
}

// SetBalance overwrites the member's balance.
func (t *sqliteTx) SetBalance(memberID string, balance decimal.Decimal) error {
	res, err := t.tx.ExecContext(t.ctx,
		"UPDATE members SET balance = ? WHERE id = ?", balance.String(), memberID)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return requireRowAffected(res, "member", memberID)
}

// ZeroAllBalances sets every member balance to zero.
func (t *sqliteTx) ZeroAllBalances() error {
	if _, err := t.tx.ExecContext(t.ctx, "UPDATE members SET balance = '0'"); err != nil {
		return fmt.Errorf("failed to zero balances: %w", err)
	}
	return nil
}

// requireRowAffected converts a zero-row UPDATE/DELETE into an error so
// callers notice writes against missing records.
func requireRowAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
