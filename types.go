package identity

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds identity authority options
type Config interface {
	GetAuthority() string
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetCookieLifetime() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetDefaultRedirect() string
}

// Claim is a typed assertion about a subject, embedded in issued tokens.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ClaimsIssuer maps an authenticated subject to the claim set embedded in
// issued tokens and answers liveness checks for existing sessions.
type ClaimsIssuer interface {
	IssueClaims(ctx context.Context, subject string) ([]Claim, error)
	IsActive(ctx context.Context, subject string) (bool, error)
}

// SchemeTerminator tears down a single named authentication scheme. The
// coordinator never inspects the outcome beyond collecting failures.
type SchemeTerminator interface {
	Terminate(ctx context.Context, scheme string) error
}

// SchemeTerminatorFunc adapts a function into a SchemeTerminator.
type SchemeTerminatorFunc func(ctx context.Context, scheme string) error

func (f SchemeTerminatorFunc) Terminate(ctx context.Context, scheme string) error {
	if f == nil {
		return nil
	}
	return f(ctx, scheme)
}

// LogoutContext is the post-logout state the external OIDC engine keeps for
// an end-session round trip.
type LogoutContext struct {
	LogoutID              string
	PostLogoutRedirectURI string
}

// LogoutContextResolver looks up the logout context kept by the external
// OIDC engine for a given logout id.
type LogoutContextResolver interface {
	Resolve(ctx context.Context, logoutID string) (*LogoutContext, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// MediaUploader pushes profile media to a third party store and returns the
// public URL. Implementations live outside this module.
type MediaUploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func timePtr(t time.Time) *time.Time { return &t }
