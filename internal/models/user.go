package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity profile resolved from a token subject. A nil CompanyID
// marks a platform identity administering the system across tenants.
type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CompanyID *uuid.UUID `json:"company_id,omitempty" db:"company_id"`
	Email     string     `json:"email" db:"email"`
	FullName  string     `json:"full_name,omitempty" db:"full_name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsPlatform reports whether the user operates without a tenant context.
func (u *User) IsPlatform() bool {
	return u.CompanyID == nil
}

// RoleAssignment links a user to a role. The role's scope must match the
// user's tenant context: company roles for company users, platform roles for
// platform users.
type RoleAssignment struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	RoleID    uuid.UUID `json:"role_id" db:"role_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
