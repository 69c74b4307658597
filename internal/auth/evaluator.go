package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

// RoleStore loads the role documents assigned to a user within one tenant
// context: company roles when companyID is set, platform roles when nil.
type RoleStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) ([]models.Role, error)
}

// Evaluator decides whether an identity holds a required permission by
// aggregating its assigned roles. Grants are additive across roles; the first
// role that grants the permission wins.
type Evaluator struct {
	roles RoleStore
}

func NewEvaluator(roles RoleStore) *Evaluator {
	return &Evaluator{roles: roles}
}

// Evaluate returns nil when the user holds the required permission and a
// typed *Error otherwise. Nothing is cached between calls, so role changes
// take effect on the next request.
func (e *Evaluator) Evaluate(ctx context.Context, user *models.User, required string) error {
	if required == Wildcard {
		return nil
	}

	perm := ParsePermission(required)

	roles, err := e.roles.ListForUser(ctx, user.ID, user.CompanyID)
	if err != nil {
		return errStore(err)
	}
	if len(roles) == 0 {
		return ErrNoRoles
	}

	for _, role := range roles {
		if user.IsPlatform() && role.IsSuperAdmin {
			return nil
		}
		if role.Permissions == nil {
			// malformed role document, contributes nothing
			continue
		}
		if grant, ok := role.Permissions[perm.Module]; ok && grant.Allows(perm.Action) {
			return nil
		}
	}

	return errMissingPermission(perm.String())
}
