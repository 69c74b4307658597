package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

// ProfileStore resolves a token subject to its identity profile. A missing
// profile surfaces as an error satisfying errors.Is(err, pgx.ErrNoRows).
type ProfileStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authorizer runs the per-request authorization pipeline: token verification,
// profile resolution, tenant scoping, permission evaluation. Every step does
// a fresh lookup; permissions are never cached across requests.
type Authorizer struct {
	secret    []byte
	profiles  ProfileStore
	evaluator *Evaluator
	denials   DenialRecorder
}

func NewAuthorizer(secret string, profiles ProfileStore, evaluator *Evaluator) *Authorizer {
	return &Authorizer{
		secret:    []byte(secret),
		profiles:  profiles,
		evaluator: evaluator,
	}
}

// Result is a successful authorization: the resolved identity and its tenant,
// for the caller to use in data-access filtering.
type Result struct {
	User      *models.User
	CompanyID *uuid.UUID
}

// Authorize verifies the bearer token, resolves the identity profile and its
// company, and evaluates the required permission. When targetCompanyID is
// set, a tenant-scoped identity whose company differs is rejected before any
// permission evaluation happens; platform identities pass this check.
func (a *Authorizer) Authorize(ctx context.Context, token, required string, targetCompanyID *uuid.UUID) (*Result, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := verifyToken(a.secret, token)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Sub)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := a.profiles.GetUserByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, errStore(err)
	}

	if targetCompanyID != nil && !user.IsPlatform() && *user.CompanyID != *targetCompanyID {
		return nil, ErrCrossTenant
	}

	if err := a.evaluator.Evaluate(ctx, user, required); err != nil {
		return nil, err
	}

	return &Result{User: user, CompanyID: user.CompanyID}, nil
}
