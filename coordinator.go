package identity

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// LoginState tracks a credential check through its two-phase precedence.
type LoginState string

const (
	LoginStateAnonymous      LoginState = "anonymous"
	LoginStateAuthenticating LoginState = "authenticating"
	LoginStateAuthenticated  LoginState = "authenticated"
	LoginStateRejected       LoginState = "rejected"
)

// CanTransition reports whether next is a legal successor state.
func (s LoginState) CanTransition(next LoginState) bool {
	switch s {
	case LoginStateAnonymous:
		return next == LoginStateAuthenticating
	case LoginStateAuthenticating:
		return next == LoginStateAuthenticated || next == LoginStateRejected
	default:
		return false
	}
}

type loginAttempt struct {
	state LoginState
}

func newLoginAttempt() *loginAttempt {
	return &loginAttempt{state: LoginStateAnonymous}
}

func (a *loginAttempt) advance(next LoginState) error {
	if !a.state.CanTransition(next) {
		return errors.New("invalid login state transition", errors.CategoryInternal).
			WithMetadata(map[string]any{"from": string(a.state), "to": string(next)})
	}
	a.state = next
	return nil
}

// Coordinator authenticates credentials, enforces optional role
// preconditions, performs multi-scheme sign-out, and registers accounts.
type Coordinator struct {
	repo            RepositoryManager
	tokens          TokenService
	logoutContexts  LogoutContextResolver
	activitySink    ActivitySink
	logger          Logger
	schemes         []string
	defaultRedirect string
}

func NewCoordinator(repo RepositoryManager, tokens TokenService) *Coordinator {
	return &Coordinator{
		repo:            repo,
		tokens:          tokens,
		activitySink:    noopActivitySink{},
		logger:          defLogger{},
		schemes:         LogoutSchemes(),
		defaultRedirect: "/",
	}
}

func (c *Coordinator) WithLogger(logger Logger) *Coordinator {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithActivitySink configures the audit/event sink login notifications are
// delivered to.
func (c *Coordinator) WithActivitySink(sink ActivitySink) *Coordinator {
	c.activitySink = normalizeActivitySink(sink)
	return c
}

// WithLogoutContextResolver wires the external OIDC engine's end-session
// context lookup.
func (c *Coordinator) WithLogoutContextResolver(resolver LogoutContextResolver) *Coordinator {
	c.logoutContexts = resolver
	return c
}

// WithDefaultRedirect overrides the landing location used when a logout
// context yields no post-logout target.
func (c *Coordinator) WithDefaultRedirect(redirect string) *Coordinator {
	if redirect != "" {
		c.defaultRedirect = redirect
	}
	return c
}

// Login authenticates a credential pair with an optional expected-role
// precondition.
//
// The precedence is two-phase and deliberate: when expectedRole is set, the
// membership check runs BEFORE password verification and fails with a
// role-specific message. That branch confirms the account exists without
// confirming the password; it matches the behavior relying parties depend
// on today, so it must not be reordered without a requirements change.
// Every other failure, including an unknown username, collapses into the
// generic ErrInvalidLogin.
func (c *Coordinator) Login(ctx context.Context, username, password, expectedRole string) (*Session, error) {
	attempt := newLoginAttempt()
	if err := attempt.advance(LoginStateAuthenticating); err != nil {
		return nil, err
	}

	user, err := c.repo.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, c.reject(ctx, attempt, username, "", ErrInvalidLogin)
		}
		return nil, NewPersistenceError(err, "failed to look up user during login")
	}

	if expectedRole != "" {
		memberships, err := c.repo.Users().GetRoles(ctx, user)
		if err != nil {
			return nil, NewPersistenceError(err, "failed to load roles during login")
		}

		if !hasRole(memberships, expectedRole) {
			roleErr := ErrRoleMismatch.Clone().
				WithMetadata(map[string]any{"expected_role": expectedRole})
			return nil, c.reject(ctx, attempt, username, user.ID.String(), roleErr)
		}
	}

	if err := c.repo.Users().VerifyPassword(user, password); err != nil {
		return nil, c.reject(ctx, attempt, username, user.ID.String(), ErrInvalidLogin)
	}

	session, err := c.tokens.Generate(user, SchemeDefault)
	if err != nil {
		return nil, err
	}

	if err := attempt.advance(LoginStateAuthenticated); err != nil {
		return nil, err
	}

	c.emit(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		SubjectID:  user.ID.String(),
		Username:   user.Username,
		OccurredAt: session.CreatedAt,
	})

	return session, nil
}

// Logout unconditionally terminates every scheme in order, never
// short-circuiting on a failure, then resolves the post-logout redirect from
// the logout context. It is idempotent and never fatal: with no active
// session the terminations are no-ops and the default landing location is
// returned.
func (c *Coordinator) Logout(ctx context.Context, logoutID string, terminator SchemeTerminator) string {
	if terminator == nil {
		terminator = SchemeTerminatorFunc(nil)
	}

	for _, scheme := range c.schemes {
		if err := terminator.Terminate(ctx, scheme); err != nil {
			c.logger.Warn("scheme termination failed for %s: %v", scheme, err)
		}
	}

	c.emit(ctx, ActivityEvent{
		EventType:  ActivityEventLogout,
		OccurredAt: time.Now(),
		Metadata:   map[string]any{"logout_id": logoutID},
	})

	return c.resolvePostLogoutRedirect(ctx, logoutID)
}

func (c *Coordinator) resolvePostLogoutRedirect(ctx context.Context, logoutID string) string {
	if c.logoutContexts == nil || logoutID == "" {
		return c.defaultRedirect
	}

	logoutCtx, err := c.logoutContexts.Resolve(ctx, logoutID)
	if err != nil {
		if !errors.IsNotFound(err) {
			c.logger.Warn("logout context resolution failed for %s: %v", logoutID, err)
		}
		return c.defaultRedirect
	}

	if logoutCtx == nil || logoutCtx.PostLogoutRedirectURI == "" {
		return c.defaultRedirect
	}

	return logoutCtx.PostLogoutRedirectURI
}

// Register validates the payload, creates the account with its requested
// role, establishes a session, and emits the same login-success event as
// Login. Validation failures return field-level errors without touching
// storage; a duplicate username creates no user and grants no role.
func (c *Coordinator) Register(ctx context.Context, msg RegisterUserMessage) (*Session, error) {
	handler := &RegisterUserHandler{repo: c.repo}

	user, err := handler.Execute(ctx, msg)
	if err != nil {
		return nil, err
	}

	session, err := c.tokens.Generate(user, SchemeDefault)
	if err != nil {
		return nil, err
	}

	c.emit(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		SubjectID:  user.ID.String(),
		Username:   user.Username,
		OccurredAt: session.CreatedAt,
	})

	return session, nil
}

func (c *Coordinator) reject(ctx context.Context, attempt *loginAttempt, username, subjectID string, cause error) error {
	if err := attempt.advance(LoginStateRejected); err != nil {
		return err
	}

	c.emit(ctx, ActivityEvent{
		EventType:  ActivityEventLoginFailure,
		SubjectID:  subjectID,
		Username:   username,
		OccurredAt: time.Now(),
		Metadata:   map[string]any{"error": cause.Error()},
	})

	return cause
}

func (c *Coordinator) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := c.activitySink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}

func hasRole(memberships []*Role, name RoleName) bool {
	normalized := NormalizeUsername(name)
	for _, role := range memberships {
		if role.NormalizedName == normalized || NormalizeUsername(role.Name) == normalized {
			return true
		}
	}
	return false
}
