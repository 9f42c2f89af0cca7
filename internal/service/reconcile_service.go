package service

import (
	"context"
	"log/slog"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/storage"
)

// ReconcileService is the reconciliation sweep: it rebuilds every cached
// member balance from the transaction log, healing drift after bulk
// corrections or bugs.
type ReconcileService struct {
	store   storage.Store
	perms   *auth.Evaluator
	mutator BalanceMutator
}

// NewReconcileService creates a reconcile service.
func NewReconcileService(store storage.Store, perms *auth.Evaluator) *ReconcileService {
	return &ReconcileService{store: store, perms: perms}
}

// RecalculateAllBalances recomputes each member's balance from full history
// and overwrites the cache, regardless of its prior value. Each member's sum
// and overwrite happen in one store transaction, so every member lands on a
// known-good snapshot as of that moment; the sweep takes no global lock and
// is safe to re-run under concurrent writers. Returns the number of members
// updated.
func (s *ReconcileService) RecalculateAllBalances(ctx context.Context) (int, error) {
	if err := requireAction(ctx, s.perms, auth.ActionReconcile); err != nil {
		return 0, err
	}

	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return 0, wrapStore("recalculate balances", err)
	}

	updated := 0
	for _, m := range members {
		cached := m.Balance
		err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
			sum, err := tx.MemberLedgerSum(m.ID)
			if err != nil {
				return err
			}
			if !sum.Equal(cached) {
				slog.Warn("Balance drift healed",
					"member_id", m.ID,
					"cached", cached,
					"recomputed", sum,
				)
			}
			return s.mutator.Overwrite(tx, m.ID, sum)
		})
		if err != nil {
			return updated, wrapStore("recalculate balances", err)
		}
		updated++
	}

	slog.Info("Reconciliation sweep finished", "members_updated", updated)
	return updated, nil
}
