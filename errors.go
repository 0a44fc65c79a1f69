package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidLogin is the generic credential failure. The same value covers
// unknown usernames and wrong passwords so callers cannot tell them apart.
var ErrInvalidLogin = errors.New("Invalid login attempt", errors.CategoryAuth).
	WithTextCode("INVALID_LOGIN").
	WithCode(errors.CodeUnauthorized)

// ErrRoleMismatch is returned when the caller demanded a role the account
// does not hold. Unlike ErrInvalidLogin the message names the role, which
// confirms the account exists; login forms depend on that distinction.
var ErrRoleMismatch = errors.New("account does not hold the required role", errors.CategoryAuth).
	WithTextCode("ROLE_MISMATCH").
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateUsername signals a registration against a taken username.
var ErrDuplicateUsername = errors.New("username is already taken", errors.CategoryValidation).
	WithTextCode("DUPLICATE_USERNAME").
	WithCode(errors.CodeConflict)

// ErrUserNotFound is returned by lookups against an unknown subject.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrClientNotFound is returned by the registry for unknown client ids.
var ErrClientNotFound = errors.New("client not found", errors.CategoryNotFound).
	WithTextCode("CLIENT_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrLogoutContextNotFound is returned when a logout id is unknown or was
// already consumed.
var ErrLogoutContextNotFound = errors.New("logout context not found", errors.CategoryNotFound).
	WithTextCode("LOGOUT_CONTEXT_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrStaleUpdate is returned when an optimistic write loses the version race.
var ErrStaleUpdate = errors.New("record was modified concurrently", errors.CategoryConflict).
	WithTextCode("STALE_UPDATE").
	WithCode(errors.CodeConflict)

// ErrTokenExpired is returned for expired session or bearer tokens.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be decoded or verified.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// NewPersistenceError wraps a store write failure. Fatal during startup
// provisioning, surfaced as an HTTP error at request time.
func NewPersistenceError(err error, msg string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode("PERSISTENCE_ERROR").
		WithCode(errors.CodeInternal)
}

// NewExternalServiceError wraps a dependent-service failure such as a media
// upload that never reached our store.
func NewExternalServiceError(err error, msg string) *errors.Error {
	return errors.Wrap(err, errors.CategoryOperation, msg).
		WithTextCode("EXTERNAL_SERVICE_ERROR").
		WithCode(errors.CodeBadRequest)
}

// NewValidationError carries field-level messages for form rendering.
func NewValidationError(fields map[string]string) *errors.Error {
	meta := make(map[string]any, len(fields))
	for k, v := range fields {
		meta[k] = v
	}
	return errors.New("validation failed", errors.CategoryValidation).
		WithTextCode("VALIDATION_FAILED").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": meta})
}

// ValidationFields extracts the field error map attached by
// NewValidationError, or nil when err carries none.
func ValidationFields(err error) map[string]string {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return nil
	}

	raw, ok := richErr.Metadata["fields"].(map[string]any)
	if !ok {
		return nil
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fields
}

// IsAuthenticationError reports whether err belongs to the credential or
// role-precondition failure family.
func IsAuthenticationError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryAuth
}

// IsRoleMismatchError distinguishes the role-specific login rejection from
// the generic credential failure.
func IsRoleMismatchError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == "ROLE_MISMATCH"
}

// IsValidationError reports whether err is a field or duplicate-input error.
func IsValidationError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryValidation
}

// IsStaleUpdateError reports whether err is an optimistic write that lost
// the version race.
func IsStaleUpdateError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == "STALE_UPDATE"
}

// IsTokenExpiredError reports whether err is the expired bearer token
// rejection.
func IsTokenExpiredError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == "TOKEN_EXPIRED"
}

// IsTokenMalformedError reports whether err is an undecodable bearer token.
func IsTokenMalformedError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == "TOKEN_MALFORMED"
}

// IsNotFoundError reports unknown user, logout context, or client lookups.
func IsNotFoundError(err error) bool {
	return errors.IsNotFound(err)
}

// isUniqueViolation sniffs driver-level unique index failures so callers can
// map them to the validation taxonomy or tolerate benign provisioning races.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
