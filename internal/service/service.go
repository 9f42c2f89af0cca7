// Package service implements the ledger core: balance mutation, split
// transactions, invoice linking, invoice-group synchronization, the
// reconciliation sweep and the legacy migration matcher. Every mutating
// operation checks the caller's permission first, runs as one store
// transaction, and returns one of the typed error kinds in models.
package service

import (
	"context"
	"time"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
)

// clock returns "now" and is injectable for deterministic tests.
type clock func() time.Time

// requireAction verifies the actor in ctx may perform the action.
func requireAction(ctx context.Context, perms *auth.Evaluator, action string) error {
	actor := auth.ActorFromContext(ctx)
	if actor.MemberID == "" {
		return models.Permissionf("authentication required")
	}
	if !perms.Allows(actor.Role, action) {
		return models.Permissionf("role %q is not allowed to perform %s", actor.Role, action)
	}
	return nil
}

// wrapStore converts a storage failure into a StoreError while letting the
// typed domain kinds pass through unchanged.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if models.IsValidation(err) || models.IsConflict(err) || models.IsNotFound(err) || models.IsPermission(err) {
		return err
	}
	return models.Storef(op, err)
}
