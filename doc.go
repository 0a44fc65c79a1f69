// Package identity implements a small OIDC-style identity authority:
// credential storage, role provisioning, claims issuance, session
// coordination, and a bearer gate for first-party APIs.
//
// Credential store:
//   - Users and Roles are persisted via Bun. Usernames and role names carry
//     an uppercase normalized projection with a unique index, so lookups and
//     uniqueness are case-insensitive. Profile writes use a version column;
//     a concurrent update surfaces as ErrStaleUpdate instead of silently
//     clobbering fields.
//
// Sessions:
//   - Coordinator drives the login state machine and the two-phase check
//     order (optional role precondition, then password verification). On
//     success TokenService mints a short-lived HS256 session token that
//     HTTPSessionWriter stores in a cookie.
//   - Logout tears down every sign-in scheme unconditionally and resolves
//     the post-logout redirect from a one-shot LogoutContextStore entry,
//     falling back to the default landing page. It is safe to repeat.
//
// Claims issuance:
//   - ProfileClaimsIssuer maps a subject id to its name, email, and role
//     claims. Unknown subjects yield an empty claim set rather than an
//     error, and IsActive reports bare account existence.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter the Coordinator uses to
//     describe login and logout events. Sinks run best-effort (errors are
//     logged) so you can forward to a database or queue without blocking
//     authentication.
package identity
