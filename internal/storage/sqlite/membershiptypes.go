package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/money"
)

// GetMembershipType retrieves a membership type by name.
func (s *SQLiteStore) GetMembershipType(ctx context.Context, name string) (*models.MembershipType, error) {
	var fee string
	err := s.db.QueryRowContext(ctx,
		"SELECT fee FROM membership_types WHERE name = ?", name).Scan(&fee)
	if err == sql.ErrNoRows {
		return nil, nil // Type not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership type: %w", err)
	}

	mt := &models.MembershipType{Name: name}
	mt.Fee, err = money.Parse(fee)
	if err != nil {
		return nil, fmt.Errorf("corrupt fee for membership type %s: %w", name, err)
	}
	return mt, nil
}

// ListMembershipTypes returns all membership types ordered by name.
func (s *SQLiteStore) ListMembershipTypes(ctx context.Context) ([]models.MembershipType, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, fee FROM membership_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list membership types: %w", err)
	}
	defer rows.Close()

	var types []models.MembershipType
	for rows.Next() {
		var mt models.MembershipType
		var fee string
		if err := rows.Scan(&mt.Name, &fee); err != nil {
			return nil, fmt.Errorf("failed to scan membership type: %w", err)
		}
		mt.Fee, err = money.Parse(fee)
		if err != nil {
			return nil, fmt.Errorf("corrupt fee for membership type %s: %w", mt.Name, err)
		}
		types = append(types, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate membership types: %w", err)
	}
	return types, nil
}

// InsertMembershipType persists a new membership type.
func (t *sqliteTx) InsertMembershipType(mt *models.MembershipType) error {
	_, err := t.tx.ExecContext(t.ctx,
		"INSERT INTO membership_types (name, fee) VALUES (?, ?)",
		mt.Name, mt.Fee.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership type: %w", err)
	}
	return nil
}

// RenameMembershipType renames a type and cascades the new name to all
// members referencing the old one. The type name is a logical foreign key
// enforced here, not by the store schema.
func (t *sqliteTx) RenameMembershipType(oldName, newName string) error {
	res, err := t.tx.ExecContext(t.ctx,
		"UPDATE membership_types SET name = ? WHERE name = ?", newName, oldName)
	if err != nil {
		return fmt.Errorf("failed to rename membership type: %w", err)
	}
	if err := requireRowAffected(res, "membership type", oldName); err != nil {
		return err
	}

	_, err = t.tx.ExecContext(t.ctx,
		"UPDATE members SET membership_type = ? WHERE membership_type = ?", newName, oldName)
	if err != nil {
		return fmt.Errorf("failed to cascade membership type rename: %w", err)
	}
	return nil
}

// DeleteMembershipType removes a type. Members keep the stale string key,
// which the application tolerates as legacy data.
func (t *sqliteTx) DeleteMembershipType(name string) error {
	res, err := t.tx.ExecContext(t.ctx,
		"DELETE FROM membership_types WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete membership type: %w", err)
	}
	return requireRowAffected(res, "membership type", name)
}
