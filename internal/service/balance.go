package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/storage"
)

// BalanceMutator is the only component that writes Member.Balance. It works
// strictly inside a store transaction so the balance change and the ledger
// write that caused it commit or roll back together.
type BalanceMutator struct{}

// ApplyDelta increments the member's balance by delta inside tx.
// Zero deltas are a no-op.
func (BalanceMutator) ApplyDelta(tx storage.Tx, memberID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	if memberID == "" {
		return fmt.Errorf("balance delta requires a member")
	}
	return tx.ApplyBalanceDelta(memberID, delta)
}

// ReverseDelta undoes a previously applied delta, used when the causing
// transaction is deleted.
func (m BalanceMutator) ReverseDelta(tx storage.Tx, memberID string, delta decimal.Decimal) error {
	return m.ApplyDelta(tx, memberID, delta.Neg())
}

// Overwrite replaces the cached balance with a recomputed value. Only the
// reconciliation sweep uses this.
func (BalanceMutator) Overwrite(tx storage.Tx, memberID string, balance decimal.Decimal) error {
	return tx.SetBalance(memberID, balance)
}
