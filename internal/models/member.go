package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Member represents a club member. Members double as login principals: the
// record is created on first login or invite and carries the credentials and
// role used by the permission evaluator.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// Name is the display name of the member.
	Name string

	// Email is the member's email address (unique). Used for login and
	// notifications.
	Email string

	// PasswordHash is the bcrypt hash of the member's password.
	PasswordHash string

	// Role is the member's role name, evaluated by the permission
	// evaluator. One configured super-role always has full access.
	Role string

	// Balance is the cached running balance. Positive means the club owes
	// the member, negative means the member owes the club. Only the balance
	// mutator writes this field; it must equal the sum of all ledger
	// effects attributed to the member unless a reconciliation sweep is
	// pending.
	Balance decimal.Decimal

	// MembershipType is the string key of the member's fee tier. It may
	// reference a type that no longer exists (legacy data).
	MembershipType string

	// CreatedAt is the Unix timestamp when the member was created.
	CreatedAt int64
}

// NewMember creates a member with a fresh ID, a zero balance and the
// creation timestamp set.
func NewMember(name, email, passwordHash, role, membershipType string) *Member {
	return &Member{
		ID:             uuid.New().String(),
		Name:           name,
		Email:          email,
		PasswordHash:   passwordHash,
		Role:           role,
		Balance:        decimal.Zero,
		MembershipType: membershipType,
		CreatedAt:      time.Now().Unix(),
	}
}

// MembershipType is a named recurring-fee tier. Name is the logical key
// referenced by Member.MembershipType.
type MembershipType struct {
	// Name is the unique string key of the tier (e.g. "Regular", "Student").
	Name string

	// Fee is the recurring monthly amount charged to members of this tier.
	Fee decimal.Decimal
}
