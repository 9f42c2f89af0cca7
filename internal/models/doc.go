// Package models defines the core domain models for clubledger.
//
// # Models
//
//   - Member: a club member with a cached running balance
//   - Transaction: an immutable monetary event on the ledger
//   - Allocation: one member's share of a split transaction
//   - PaymentRequest: an invoice, a claim that a member owes an amount
//   - MembershipType: a named recurring-fee tier, referenced by string key
//
// # Design Principles
//
//  1. **Decimal money**: all amounts are shopspring decimals with two
//     fraction digits; binary floating point never carries a monetary value
//  2. **Cached balance, ledger truth**: Member.Balance is derived state; the
//     transaction log is the source of truth and the reconciliation sweep
//     can always rebuild the cache from it
//  3. **Avoid circular references**: relationships use ID strings, not
//     pointers
//  4. **String-keyed membership types**: legacy data may reference deleted
//     type names, so the key is a logical foreign key enforced by the
//     application, not the store
package models
