package identity

import (
	"context"

	"github.com/goliatone/go-router"
)

var subjectCtxKey = &contextKey{"subject"}
var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithSubject sets the authenticated subject identifier in the given context
func WithSubject(r context.Context, subject string) context.Context {
	return context.WithValue(r, subjectCtxKey, subject)
}

// SubjectFromContext finds the authenticated subject from the context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(subjectCtxKey).(string)
	return raw, ok
}

// WithSession sets the Session in the given context
func WithSession(r context.Context, session *Session) context.Context {
	return context.WithValue(r, sessionCtxKey, session)
}

// SessionFromContext extracts the Session from the standard context
func SessionFromContext(ctx context.Context) (*Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(*Session)
	return raw, ok
}

// RouterSubject extracts the bearer subject the gate middleware stored in
// router locals.
func RouterSubject(ctx router.Context, key string) (string, bool) {
	if key == "" {
		key = "subject"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return "", false
	}
	subject, ok := raw.(string)
	return subject, ok && subject != ""
}
