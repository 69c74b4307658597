package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an authorization failure carrying the HTTP status it maps to.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

var (
	ErrMissingToken    = &Error{Status: http.StatusUnauthorized, Message: "missing authorization token"}
	ErrInvalidToken    = &Error{Status: http.StatusUnauthorized, Message: "invalid token"}
	ErrProfileNotFound = &Error{Status: http.StatusForbidden, Message: "profile not found"}
	ErrCrossTenant     = &Error{Status: http.StatusForbidden, Message: "cross-tenant access denied"}
	ErrNoRoles         = &Error{Status: http.StatusForbidden, Message: "no assigned roles"}
)

// errMissingPermission names the exact permission that was absent. The role
// internals are never echoed back.
func errMissingPermission(perm string) *Error {
	return &Error{Status: http.StatusForbidden, Message: fmt.Sprintf("missing required permission: %s", perm)}
}

func errStore(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "permission check failed", cause: err}
}

// HTTPStatus maps an authorization error to its response code, defaulting to
// 500 for anything outside the taxonomy.
func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}
