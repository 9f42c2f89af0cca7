package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable monetary event on the ledger. Positive amounts
// are money in, negative amounts are money out. A transaction carries either
// an owning MemberID or a list of Allocations, never both: allocation-bearing
// transactions affect member balances exclusively through their allocations.
//
// Transactions are never mutated in place; corrections are new transactions.
// Deletion reverses the balance effect before removal.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// Amount is the signed total of the event.
	Amount decimal.Decimal

	// Description is the human-readable purpose of the transaction.
	Description string

	// Category groups transactions for reporting (e.g. "Membership fee").
	Category string

	// Date is when the money moved.
	Date time.Time

	// MemberID is the owning member, or empty for a shared/communal
	// transaction. Cleared (not deleted) when the member is removed, so the
	// ledger stays complete for audit.
	MemberID string

	// Allocations split the amount across members. If present, they sum
	// exactly to Amount.
	Allocations []Allocation

	// CreatedAt is the Unix timestamp when the record was written.
	CreatedAt int64
}

// Allocation is one member's share of a split transaction. It is owned by
// its transaction and deleted in cascade with it.
type Allocation struct {
	// TransactionID is the owning transaction.
	TransactionID string

	// MemberID is the member this share belongs to.
	MemberID string

	// Amount is the signed share, same sign convention as the transaction.
	Amount decimal.Decimal
}
