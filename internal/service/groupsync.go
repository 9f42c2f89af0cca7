package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/money"
	"github.com/clubledger/server/internal/storage"
)

// SyncGroupInput describes one reconciliation pass over an invoice group.
// Nil field pointers mean "keep the group's current value". DesiredMemberIDs
// is only honored when SyncMembers is true, so an empty roster (remove
// everyone removable) stays distinguishable from "no membership change".
type SyncGroupInput struct {
	Title            string
	Amount           *decimal.Decimal
	Description      *string
	DueDate          *time.Time
	SyncMembers      bool
	DesiredMemberIDs []string
}

// SyncGroupResult reports what one sync pass changed.
type SyncGroupResult struct {
	Added    int
	Removed  int
	KeptPaid int // members slated for removal whose invoice was PAID
	Updated  int
}

// SyncGroup reconciles the invoice group with the given title against a
// desired member roster and optional field updates, without disturbing paid
// history:
//
//  1. The group is loaded once; membership diffs are computed from that
//     pre-add snapshot, never re-queried, so rows added in this pass can
//     never be picked up for removal.
//  2. Members to add receive new PENDING invoices with the group's resolved
//     fields and are notified after commit.
//  3. Members to remove lose only their non-paid invoices; PAID invoices are
//     silently kept.
//  4. Field updates then apply to every remaining invoice, paid or not.
//     Changing the amount of a paid invoice never touches its linked
//     transaction.
func (s *InvoiceService) SyncGroup(ctx context.Context, in SyncGroupInput) (*SyncGroupResult, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageInvoices); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, models.Validationf("group title is required")
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, models.Validationf("amount must be positive")
		}
		if in.Amount.Exponent() < -money.Places {
			return nil, models.Validationf("amount %s has more than %d fraction digits", *in.Amount, money.Places)
		}
	}

	group, err := s.store.ListPaymentRequestsByTitle(ctx, in.Title)
	if err != nil {
		return nil, wrapStore("sync invoice group", err)
	}
	if len(group) == 0 {
		return nil, models.NotFoundf("invoice group not found: %s", in.Title)
	}

	// The first (oldest) request is the field template for anything the
	// input leaves unspecified.
	template := group[0]
	amount := template.Amount
	if in.Amount != nil {
		amount = *in.Amount
	}
	description := template.Description
	if in.Description != nil {
		description = *in.Description
	}
	dueDate := template.DueDate
	if in.DueDate != nil {
		dueDate = in.DueDate
	}

	// Membership diff against the pre-add snapshot.
	current := make(map[string]bool, len(group))
	for _, p := range group {
		current[p.MemberID] = true
	}
	var toAdd []string
	toRemove := make(map[string]bool)
	if in.SyncMembers {
		desired := make(map[string]bool, len(in.DesiredMemberIDs))
		for _, id := range in.DesiredMemberIDs {
			desired[id] = true
		}
		for _, id := range in.DesiredMemberIDs {
			if !current[id] {
				toAdd = append(toAdd, id)
			}
		}
		for memberID := range current {
			if !desired[memberID] {
				toRemove[memberID] = true
			}
		}
	}

	result := &SyncGroupResult{}
	fieldsChanged := in.Amount != nil || in.Description != nil || in.DueDate != nil

	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		for _, memberID := range toAdd {
			m, err := tx.GetMember(memberID)
			if err != nil {
				return err
			}
			if m == nil {
				return models.NotFoundf("member not found: %s", memberID)
			}
			if err := tx.InsertPaymentRequest(&models.PaymentRequest{
				ID:          uuid.New().String(),
				Title:       in.Title,
				Description: description,
				Amount:      amount,
				DueDate:     dueDate,
				Category:    template.Category,
				Status:      models.StatusPending,
				MemberID:    memberID,
				CreatedAt:   s.now().Unix(),
			}); err != nil {
				return err
			}
			result.Added++
		}

		// Removal and updates walk the pre-add snapshot only; the rows
		// inserted above already carry the resolved fields.
		for i := range group {
			p := &group[i]
			if toRemove[p.MemberID] {
				if p.Paid() {
					// Paid history is never removed.
					result.KeptPaid++
				} else {
					if err := tx.DeletePaymentRequest(p.ID); err != nil {
						return err
					}
					result.Removed++
					continue
				}
			}
			if fieldsChanged {
				p.Amount = amount
				p.Description = description
				p.DueDate = dueDate
				if err := tx.UpdatePaymentRequest(p); err != nil {
					return err
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapStore("sync invoice group", err)
	}

	for _, memberID := range toAdd {
		s.dispatch(memberID, in.Title,
			"A new payment request has been assigned to you.",
			"/payment-requests?title="+in.Title)
	}

	slog.Info("Invoice group synced",
		"title", in.Title,
		"added", result.Added,
		"removed", result.Removed,
		"kept_paid", result.KeptPaid,
		"updated", result.Updated,
	)
	return result, nil
}
