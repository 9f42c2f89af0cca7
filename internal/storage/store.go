// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/models"
)

// Store defines the read side of the ledger store plus the transactional
// entry point for writes. This abstraction allows swapping storage backends
// (SQLite, PostgreSQL, etc.) without changing the service layer.
//
// Get* methods return (nil, nil) when the record does not exist; the service
// layer turns that into a NotFoundError.
type Store interface {
	// GetMember retrieves a member by ID.
	GetMember(ctx context.Context, id string) (*models.Member, error)

	// GetMemberByEmail retrieves a member by email address.
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)

	// ListMembers returns all members ordered by name.
	ListMembers(ctx context.Context) ([]models.Member, error)

	// GetTransaction retrieves a transaction with its allocations.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// ListTransactions returns all transactions, newest first, with
	// allocations attached.
	ListTransactions(ctx context.Context) ([]models.Transaction, error)

	// ListTransactionsByMemberAmount returns the member's owned
	// transactions with the given amount, newest first. Used by the
	// migration matcher.
	ListTransactionsByMemberAmount(ctx context.Context, memberID string, amount decimal.Decimal) ([]models.Transaction, error)

	// MemberLedgerSum computes the member's balance from history: owned
	// allocation-free transactions plus allocation shares.
	MemberLedgerSum(ctx context.Context, memberID string) (decimal.Decimal, error)

	// GetPaymentRequest retrieves a payment request by ID.
	GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error)

	// ListPaymentRequestsByTitle returns the request group with the given
	// title, oldest first.
	ListPaymentRequestsByTitle(ctx context.Context, title string) ([]models.PaymentRequest, error)

	// ListPaymentRequestsByMember returns all of a member's requests,
	// newest first.
	ListPaymentRequestsByMember(ctx context.Context, memberID string) ([]models.PaymentRequest, error)

	// FindPaymentRequestByTransaction returns the request linked to the
	// transaction, if any.
	FindPaymentRequestByTransaction(ctx context.Context, transactionID string) (*models.PaymentRequest, error)

	// HasPaymentRequest reports whether the member already has a request
	// with the given title. A non-empty category narrows the match.
	HasPaymentRequest(ctx context.Context, memberID, title, category string) (bool, error)

	// GetMembershipType retrieves a membership type by name.
	GetMembershipType(ctx context.Context, name string) (*models.MembershipType, error)

	// ListMembershipTypes returns all membership types ordered by name.
	ListMembershipTypes(ctx context.Context) ([]models.MembershipType, error)

	// RunInTx runs fn inside one store transaction. If fn returns an error
	// the transaction rolls back and nothing is applied. Every atomic unit
	// of the core executes inside a single callback.
	RunInTx(ctx context.Context, fn func(Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx carries the write primitives available inside a store transaction,
// plus the reads an atomic unit needs mid-flight. All methods see the
// transaction's own uncommitted writes.
type Tx interface {
	// GetMember retrieves a member by ID.
	GetMember(id string) (*models.Member, error)

	// InsertMember persists a new member.
	InsertMember(m *models.Member) error

	// UpdateMember updates a member's name, email, role and membership
	// type. Balance is untouched; use ApplyBalanceDelta or SetBalance.
	UpdateMember(m *models.Member) error

	// DeleteMember removes the member row.
	DeleteMember(id string) error

	// ApplyBalanceDelta atomically increments the member's balance.
	ApplyBalanceDelta(memberID string, delta decimal.Decimal) error

	// SetBalance overwrites the member's balance.
	SetBalance(memberID string, balance decimal.Decimal) error

	// ZeroAllBalances sets every member balance to zero.
	ZeroAllBalances() error

	// GetTransaction retrieves a transaction with its allocations.
	GetTransaction(id string) (*models.Transaction, error)

	// InsertTransaction persists a transaction and its allocations.
	InsertTransaction(t *models.Transaction) error

	// DeleteTransaction removes a transaction, cascading its allocations.
	DeleteTransaction(id string) error

	// DeleteAllTransactions removes every transaction and allocation,
	// returning the number of transactions removed.
	DeleteAllTransactions() (int64, error)

	// ClearTransactionOwner nulls the member reference on all of the
	// member's owned transactions and allocations, keeping the ledger
	// rows for audit.
	ClearTransactionOwner(memberID string) error

	// MemberLedgerSum computes the member's balance from history.
	MemberLedgerSum(memberID string) (decimal.Decimal, error)

	// GetPaymentRequest retrieves a payment request by ID.
	GetPaymentRequest(id string) (*models.PaymentRequest, error)

	// FindPaymentRequestByTransaction returns the request linked to the
	// transaction, if any.
	FindPaymentRequestByTransaction(transactionID string) (*models.PaymentRequest, error)

	// ListPaymentRequestsByTitle returns the request group with the given
	// title, oldest first.
	ListPaymentRequestsByTitle(title string) ([]models.PaymentRequest, error)

	// InsertPaymentRequest persists a new payment request.
	InsertPaymentRequest(p *models.PaymentRequest) error

	// UpdatePaymentRequest updates a request's mutable fields (title,
	// description, amount, due date, category, status, transaction link).
	UpdatePaymentRequest(p *models.PaymentRequest) error

	// DeletePaymentRequest removes a request.
	DeletePaymentRequest(id string) error

	// DeletePendingRequestsByMember removes the member's PENDING requests.
	DeletePendingRequestsByMember(memberID string) error

	// RenameMembershipType renames a type and cascades the new name to all
	// members referencing the old one.
	RenameMembershipType(oldName, newName string) error

	// InsertMembershipType persists a new membership type.
	InsertMembershipType(mt *models.MembershipType) error

	// DeleteMembershipType removes a type. Members keep the stale string
	// key.
	DeleteMembershipType(name string) error
}
