package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

type contextKey string

const (
	companyKey contextKey = "company"
	userKey    contextKey = "user"
)

func WithCompany(ctx context.Context, c *models.Company) context.Context {
	return context.WithValue(ctx, companyKey, c)
}

func CompanyFromContext(ctx context.Context) *models.Company {
	c, _ := ctx.Value(companyKey).(*models.Company)
	return c
}

// CompanyIDFromContext returns the acting identity's resolved company id, or
// nil for platform identities. Data access scopes by this value, never by a
// client-supplied company id.
func CompanyIDFromContext(ctx context.Context) *uuid.UUID {
	if u := UserFromContext(ctx); u != nil {
		return u.CompanyID
	}
	return nil
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
