package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
)

const testSecret = "unit-test-secret"

type fakeProfileStore struct {
	users map[uuid.UUID]*models.User
	err   error
}

func (f *fakeProfileStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func mintToken(t *testing.T, sub string, expiry time.Duration) string {
	t.Helper()
	claims := Claims{
		Sub: sub,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestAuthorizer(profiles ProfileStore, roles RoleStore) *Authorizer {
	return NewAuthorizer(testSecret, profiles, NewEvaluator(roles))
}

func TestAuthorizeMissingToken(t *testing.T) {
	a := newTestAuthorizer(&fakeProfileStore{}, &fakeRoleStore{})

	_, err := a.Authorize(context.Background(), "", "work-orders:view", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}

func TestAuthorizeBadSignature(t *testing.T) {
	a := newTestAuthorizer(&fakeProfileStore{}, &fakeRoleStore{})

	claims := Claims{Sub: uuid.NewString()}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = a.Authorize(context.Background(), forged, "work-orders:view", nil)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestAuthorizeExpiredToken(t *testing.T) {
	a := newTestAuthorizer(&fakeProfileStore{}, &fakeRoleStore{})

	_, err := a.Authorize(context.Background(), mintToken(t, uuid.NewString(), -time.Minute), "work-orders:view", nil)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestAuthorizeProfileNotFound(t *testing.T) {
	// Valid token, no matching profile: stricter 403, not 401.
	a := newTestAuthorizer(&fakeProfileStore{users: map[uuid.UUID]*models.User{}}, &fakeRoleStore{})

	_, err := a.Authorize(context.Background(), mintToken(t, uuid.NewString(), time.Hour), "work-orders:view", nil)
	assert.Equal(t, ErrProfileNotFound, err)
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
}

func TestAuthorizeProfileStoreUnavailable(t *testing.T) {
	a := newTestAuthorizer(&fakeProfileStore{err: errors.New("connection refused")}, &fakeRoleStore{})

	_, err := a.Authorize(context.Background(), mintToken(t, uuid.NewString(), time.Hour), "work-orders:view", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestAuthorizeCrossTenantPrecedesPermission(t *testing.T) {
	companyA := uuid.New()
	companyB := uuid.New()
	user := &models.User{ID: uuid.New(), CompanyID: &companyA}

	// Roles would grant everything, but the tenant mismatch wins.
	roles := &fakeRoleStore{roles: []models.Role{
		{Permissions: models.PermissionMap{"work-orders": {Blanket: true}}},
	}}
	a := newTestAuthorizer(&fakeProfileStore{users: map[uuid.UUID]*models.User{user.ID: user}}, roles)

	_, err := a.Authorize(context.Background(), mintToken(t, user.ID.String(), time.Hour), "work-orders:view", &companyB)
	assert.Equal(t, ErrCrossTenant, err)
	assert.Zero(t, roles.calls, "permission evaluation must not run after a tenant mismatch")
}

func TestAuthorizePlatformIdentityCrossesTenants(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	target := uuid.New()

	roles := &fakeRoleStore{roles: []models.Role{{IsSuperAdmin: true, Permissions: models.PermissionMap{}}}}
	a := newTestAuthorizer(&fakeProfileStore{users: map[uuid.UUID]*models.User{user.ID: user}}, roles)

	res, err := a.Authorize(context.Background(), mintToken(t, user.ID.String(), time.Hour), "work-orders:view", &target)
	require.NoError(t, err)
	assert.Nil(t, res.CompanyID)
}

func TestAuthorizeAllow(t *testing.T) {
	companyID := uuid.New()
	user := &models.User{ID: uuid.New(), CompanyID: &companyID}

	roles := &fakeRoleStore{roles: []models.Role{
		{Permissions: models.PermissionMap{"work-orders": {Actions: map[string]bool{"view": true}}}},
	}}
	a := newTestAuthorizer(&fakeProfileStore{users: map[uuid.UUID]*models.User{user.ID: user}}, roles)

	res, err := a.Authorize(context.Background(), mintToken(t, user.ID.String(), time.Hour), "work-orders:view", nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	require.NotNil(t, res.CompanyID)
	assert.Equal(t, companyID, *res.CompanyID)
}

func TestRequirePermissionMiddleware(t *testing.T) {
	companyID := uuid.New()
	user := &models.User{ID: uuid.New(), CompanyID: &companyID}

	roles := &fakeRoleStore{roles: []models.Role{
		{Permissions: models.PermissionMap{"roles": {Actions: map[string]bool{"view": true}}}},
	}}
	a := newTestAuthorizer(&fakeProfileStore{users: map[uuid.UUID]*models.User{user.ID: user}}, roles)

	var seen *models.User
	handler := a.RequirePermission("roles:view")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = tenant.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Allowed request carries the identity into context.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, user.ID.String(), time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)

	// Missing token never reaches the handler.
	seen = nil
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)

	// Insufficient grant is a 403.
	denied := a.RequirePermission("roles:delete")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/roles/x", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, user.ID.String(), time.Hour))
	rec = httptest.NewRecorder()
	denied.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireCompanyPermissionBlocksCrossTenant(t *testing.T) {
	companyA := uuid.New()
	companyB := uuid.New()
	user := &models.User{ID: uuid.New(), CompanyID: &companyA}

	// The role grants everything on the module; the tenant check must still
	// refuse a foreign company id.
	roles := &fakeRoleStore{roles: []models.Role{
		{Permissions: models.PermissionMap{"platform-companies": {Blanket: true}}},
	}}
	a := newTestAuthorizer(&fakeProfileStore{users: map[uuid.UUID]*models.User{user.ID: user}}, roles)

	r := chi.NewRouter()
	r.With(a.RequireCompanyPermission("platform-companies:view", "id")).
		Get("/companies/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	get := func(id uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/companies/"+id.String(), nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, user.ID.String(), time.Hour))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, get(companyB).Code)
	assert.Equal(t, http.StatusOK, get(companyA).Code)
}

func TestRequireCompanyPermissionPlatformIdentity(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	target := uuid.New()

	roles := &fakeRoleStore{roles: []models.Role{{IsSuperAdmin: true, Permissions: models.PermissionMap{}}}}
	a := newTestAuthorizer(&fakeProfileStore{users: map[uuid.UUID]*models.User{user.ID: user}}, roles)

	r := chi.NewRouter()
	r.With(a.RequireCompanyPermission("platform-companies:view", "id")).
		Get("/companies/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	req := httptest.NewRequest(http.MethodGet, "/companies/"+target.String(), nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, user.ID.String(), time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
