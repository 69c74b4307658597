package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionManage implies every other action on a module.
const ActionManage = "manage"

// Grant is the permission a role holds on a single module: either blanket
// access or an explicit action map. On the wire it is the historical shape,
// a JSON boolean or an object of action flags.
type Grant struct {
	Blanket bool
	Actions map[string]bool
}

// Allows reports whether the grant covers the given action.
func (g Grant) Allows(action string) bool {
	if g.Blanket {
		return true
	}
	if g.Actions == nil {
		return false
	}
	return g.Actions[ActionManage] || g.Actions[action]
}

func (g Grant) MarshalJSON() ([]byte, error) {
	if g.Blanket {
		return json.Marshal(true)
	}
	if g.Actions == nil {
		return json.Marshal(false)
	}
	return json.Marshal(g.Actions)
}

func (g *Grant) UnmarshalJSON(data []byte) error {
	var blanket bool
	if err := json.Unmarshal(data, &blanket); err == nil {
		*g = Grant{Blanket: blanket}
		return nil
	}
	var actions map[string]bool
	if err := json.Unmarshal(data, &actions); err != nil {
		return fmt.Errorf("grant must be a boolean or an action map: %w", err)
	}
	*g = Grant{Actions: actions}
	return nil
}

// PermissionMap maps module slugs to grants. A missing slug means no access.
type PermissionMap map[string]Grant

// Role bundles permission grants, scoped to one company or to the platform
// (nil CompanyID). IsSuperAdmin marks a platform role whose holders bypass
// permission evaluation entirely.
type Role struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	CompanyID    *uuid.UUID    `json:"company_id,omitempty" db:"company_id"`
	Name         string        `json:"name" db:"name"`
	Permissions  PermissionMap `json:"permissions" db:"permissions"`
	IsSuperAdmin bool          `json:"is_super_admin" db:"is_super_admin"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// IsPlatform reports whether the role is platform-scoped.
func (r *Role) IsPlatform() bool {
	return r.CompanyID == nil
}
