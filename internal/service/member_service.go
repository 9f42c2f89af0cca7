package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/server/internal/auth"
	"github.com/clubledger/server/internal/models"
	"github.com/clubledger/server/internal/storage"
)

// MemberService manages the member lifecycle and membership types. Member
// deletion pays out the remaining balance and clears, never deletes, the
// member's ledger history.
type MemberService struct {
	store         storage.Store
	perms         *auth.Evaluator
	authenticator *auth.PasswordAuthenticator
	mutator       BalanceMutator
	now           clock
}

// NewMemberService creates a member service.
func NewMemberService(store storage.Store, perms *auth.Evaluator, authenticator *auth.PasswordAuthenticator) *MemberService {
	return &MemberService{store: store, perms: perms, authenticator: authenticator, now: time.Now}
}

// CreateMemberInput carries the fields of a new member.
type CreateMemberInput struct {
	Name           string
	Email          string
	Password       string
	Role           string
	MembershipType string
}

// CreateMember registers a new member with a zero balance.
func (s *MemberService) CreateMember(ctx context.Context, in CreateMemberInput) (*models.Member, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageMembers); err != nil {
		return nil, err
	}
	if in.Name == "" || in.Email == "" {
		return nil, models.Validationf("name and email are required")
	}

	hash, err := s.authenticator.HashCredential(in.Password)
	if err != nil {
		return nil, models.Validationf("invalid password: %v", err)
	}

	existing, err := s.store.GetMemberByEmail(ctx, in.Email)
	if err != nil {
		return nil, wrapStore("create member", err)
	}
	if existing != nil {
		return nil, models.Conflictf("email already registered: %s", in.Email)
	}

	m := models.NewMember(in.Name, in.Email, hash, in.Role, in.MembershipType)
	m.CreatedAt = s.now().Unix()
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.InsertMember(m)
	})
	if err != nil {
		return nil, wrapStore("create member", err)
	}

	slog.Info("Member created", "member_id", m.ID, "email", m.Email)
	return m, nil
}

// GetMember returns a member by ID.
func (s *MemberService) GetMember(ctx context.Context, id string) (*models.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, wrapStore("get member", err)
	}
	if m == nil {
		return nil, models.NotFoundf("member not found: %s", id)
	}
	return m, nil
}

// ListMembers returns all members.
func (s *MemberService) ListMembers(ctx context.Context) ([]models.Member, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, wrapStore("list members", err)
	}
	return members, nil
}

// DeleteMember removes a member. In one atomic unit: a final payout
// transaction zeroes the balance, the member's pending payment requests are
// deleted, the member reference on historical ledger rows is cleared (the
// rows stay for audit), and the member row is removed.
func (s *MemberService) DeleteMember(ctx context.Context, id string) error {
	if err := requireAction(ctx, s.perms, auth.ActionManageMembers); err != nil {
		return err
	}

	err := s.store.RunInTx(ctx, func(tx storage.Tx) error {
		m, err := tx.GetMember(id)
		if err != nil {
			return err
		}
		if m == nil {
			return models.NotFoundf("member not found: %s", id)
		}

		if !m.Balance.IsZero() {
			payout := &models.Transaction{
				ID:          uuid.New().String(),
				Amount:      m.Balance.Neg(),
				Description: "Balance payout on member deletion",
				Category:    "Payout",
				Date:        s.now(),
				MemberID:    id,
				CreatedAt:   s.now().Unix(),
			}
			if err := tx.InsertTransaction(payout); err != nil {
				return err
			}
			if err := s.mutator.ApplyDelta(tx, id, payout.Amount); err != nil {
				return err
			}
		}

		if err := tx.DeletePendingRequestsByMember(id); err != nil {
			return err
		}
		if err := tx.ClearTransactionOwner(id); err != nil {
			return err
		}
		return tx.DeleteMember(id)
	})
	if err != nil {
		return wrapStore("delete member", err)
	}

	slog.Info("Member deleted", "member_id", id)
	return nil
}

// CreateMembershipType registers a new fee tier.
func (s *MemberService) CreateMembershipType(ctx context.Context, name string, fee decimal.Decimal) (*models.MembershipType, error) {
	if err := requireAction(ctx, s.perms, auth.ActionManageMembers); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, models.Validationf("name is required")
	}
	if fee.IsNegative() {
		return nil, models.Validationf("fee cannot be negative")
	}

	existing, err := s.store.GetMembershipType(ctx, name)
	if err != nil {
		return nil, wrapStore("create membership type", err)
	}
	if existing != nil {
		return nil, models.Conflictf("membership type already exists: %s", name)
	}

	mt := &models.MembershipType{Name: name, Fee: fee}
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.InsertMembershipType(mt)
	})
	if err != nil {
		return nil, wrapStore("create membership type", err)
	}
	return mt, nil
}

// RenameMembershipType renames a fee tier and cascades the new name to every
// member referencing the old one, in one atomic unit.
func (s *MemberService) RenameMembershipType(ctx context.Context, oldName, newName string) error {
	if err := requireAction(ctx, s.perms, auth.ActionManageMembers); err != nil {
		return err
	}
	if newName == "" {
		return models.Validationf("new name is required")
	}

	old, err := s.store.GetMembershipType(ctx, oldName)
	if err != nil {
		return wrapStore("rename membership type", err)
	}
	if old == nil {
		return models.NotFoundf("membership type not found: %s", oldName)
	}
	clash, err := s.store.GetMembershipType(ctx, newName)
	if err != nil {
		return wrapStore("rename membership type", err)
	}
	if clash != nil {
		return models.Conflictf("membership type already exists: %s", newName)
	}

	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.RenameMembershipType(oldName, newName)
	})
	if err != nil {
		return wrapStore("rename membership type", err)
	}

	slog.Info("Membership type renamed", "old", oldName, "new", newName)
	return nil
}

// DeleteMembershipType removes a fee tier. Members referencing it keep the
// stale string key, which the rest of the system tolerates as legacy data.
func (s *MemberService) DeleteMembershipType(ctx context.Context, name string) error {
	if err := requireAction(ctx, s.perms, auth.ActionManageMembers); err != nil {
		return err
	}

	existing, err := s.store.GetMembershipType(ctx, name)
	if err != nil {
		return wrapStore("delete membership type", err)
	}
	if existing == nil {
		return models.NotFoundf("membership type not found: %s", name)
	}

	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteMembershipType(name)
	})
	if err != nil {
		return wrapStore("delete membership type", err)
	}
	return nil
}

// ListMembershipTypes returns all fee tiers.
func (s *MemberService) ListMembershipTypes(ctx context.Context) ([]models.MembershipType, error) {
	types, err := s.store.ListMembershipTypes(ctx)
	if err != nil {
		return nil, wrapStore("list membership types", err)
	}
	return types, nil
}
