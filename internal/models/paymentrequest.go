package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of a payment request.
type RequestStatus string

const (
	// StatusPending means the member still owes the amount.
	StatusPending RequestStatus = "PENDING"
	// StatusPaid means a transaction settled the request.
	StatusPaid RequestStatus = "PAID"
	// StatusWaived means the club forgave the amount.
	StatusWaived RequestStatus = "WAIVED"
)

// PaymentRequest is an invoice: a claim that a member owes an amount,
// independent of whether money has moved yet. Requests sharing a Title form
// a group managed as a batch by the group synchronizer.
//
// TransactionID is unique across all payment requests (a settling
// transaction can close at most one invoice), and whenever it is set the
// status is PAID.
type PaymentRequest struct {
	// ID is the unique identifier for the request (UUID format).
	ID string

	// Title names the request and doubles as the non-unique group key
	// (e.g. "Summer trip 2025").
	Title string

	// Description is free-form detail shown to the member.
	Description string

	// Amount is the amount owed. Always positive.
	Amount decimal.Decimal

	// DueDate is when payment is expected, if any.
	DueDate *time.Time

	// Category groups requests for reporting.
	Category string

	// Status is the lifecycle state.
	Status RequestStatus

	// MemberID is the member who owes the amount.
	MemberID string

	// TransactionID links the settling transaction, set only when Status is
	// PAID via a transaction (waived and migrated unmatched requests have
	// none).
	TransactionID string

	// CreatedAt is the Unix timestamp when the request was created.
	CreatedAt int64
}

// Paid reports whether the request has been settled.
func (p *PaymentRequest) Paid() bool {
	return p.Status == StatusPaid
}

// LegacyPayment is one record from a legacy "paid" export, consumed by the
// one-time migration matcher.
type LegacyPayment struct {
	MemberID string
	Title    string
	Amount   decimal.Decimal
	Category string
	PaidAt   time.Time
}
