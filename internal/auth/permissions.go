// Package auth provides login, token handling and the permission evaluator
// consulted by every mutating operation.
package auth

import "context"

// Actions the evaluator knows about. Mutating service operations name the
// action they need; reads are open to any authenticated member.
const (
	ActionManageLedger   = "ledger:manage"
	ActionManageInvoices = "invoices:manage"
	ActionManageMembers  = "members:manage"
	ActionReconcile      = "ledger:reconcile"
)

// Evaluator decides whether a role may perform an action. One configured
// super-role short-circuits to allow; every other role is matched against an
// explicit allow-list. This keeps the "one role can do everything" rule in
// one place instead of scattered string comparisons.
type Evaluator struct {
	superRole string
	grants    map[string]map[string]bool
}

// NewEvaluator creates an evaluator with the given super-role and per-role
// action grants.
func NewEvaluator(superRole string, grants map[string][]string) *Evaluator {
	g := make(map[string]map[string]bool, len(grants))
	for role, actions := range grants {
		g[role] = make(map[string]bool, len(actions))
		for _, a := range actions {
			g[role][a] = true
		}
	}
	return &Evaluator{superRole: superRole, grants: g}
}

// DefaultEvaluator grants everything to the "admin" super-role and the
// invoice actions to a "treasurer" role.
func DefaultEvaluator() *Evaluator {
	return NewEvaluator("admin", map[string][]string{
		"treasurer": {ActionManageLedger, ActionManageInvoices, ActionReconcile},
	})
}

// Allows reports whether the role may perform the action.
func (e *Evaluator) Allows(role, action string) bool {
	if role == e.superRole {
		return true
	}
	return e.grants[role][action]
}

// Actor is the authenticated caller identity carried in the request context.
type Actor struct {
	MemberID string
	Email    string
	Role     string
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the actor identity.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor from the context.
// The zero Actor means "unauthenticated".
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey).(Actor)
	return actor
}
