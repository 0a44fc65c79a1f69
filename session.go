package identity

import (
	"time"

	"github.com/google/uuid"
)

// Named authentication schemes this authority participates in. Logout tears
// all of them down, in this order.
const (
	SchemeDefault      = "default"
	SchemeApplication  = "application"
	SchemeExternal     = "external"
	SchemeOIDCProvider = "idsrv"
)

// LogoutSchemes is the ordered list of schemes terminated on sign-out.
func LogoutSchemes() []string {
	return []string{SchemeDefault, SchemeApplication, SchemeExternal, SchemeOIDCProvider}
}

// Session describes an established authenticated session. The subject always
// references an existing user; sessions are created only after a successful
// credential check.
type Session struct {
	Subject   string     `json:"subject"`
	Username  string     `json:"username,omitempty"`
	Scheme    string     `json:"scheme"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Token     string     `json:"-"`
}

// SubjectUUID parses the session's subject as a UUID.
func (s *Session) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(s.Subject)
}

// Expired reports whether the session's expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}
