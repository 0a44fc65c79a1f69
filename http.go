package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/coursehub/identity/middleware/bearer"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// HTTPSessionWriter binds the session coordinator to the cookie surface:
// it writes the session cookie on login, clears per-scheme cookies on
// logout, and guards API routes with the bearer gate.
type HTTPSessionWriter struct {
	coordinator      *Coordinator
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPSessionWriter(coordinator *Coordinator, cfg Config) (*HTTPSessionWriter, error) {
	if coordinator == nil {
		return nil, errors.New("missing session coordinator", errors.CategoryBadInput)
	}

	cookieDuration := 30 * time.Minute
	if cfg.GetCookieLifetime() > 0 {
		cookieDuration = time.Duration(cfg.GetCookieLifetime()) * time.Minute
	}

	a := &HTTPSessionWriter{
		cfg:            cfg,
		coordinator:    coordinator,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a HTTPSessionWriter) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// ProtectedRoute gates a route behind the bearer token check.
func (a *HTTPSessionWriter) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return bearer.New(bearer.Config{
			ErrorHandler: errorHandler,
			Authority:    cfg.GetAuthority(),
			SigningKey: bearer.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:  cfg.GetAuthScheme(),
			ContextKey:  cfg.GetContextKey(),
			TokenLookup: cfg.GetTokenLookup(),
		})
	}
}

// Login authenticates the credentials and, on success, writes the session
// cookie for the default scheme.
func (a *HTTPSessionWriter) Login(ctx router.Context, username, password, expectedRole string) error {
	session, err := a.coordinator.Login(ctx.Context(), username, password, expectedRole)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	a.setCookieToken(ctx, session.Token, a.cookieDuration)
	return nil
}

// Register creates the account, grants the selected role, and signs the
// new user in.
func (a *HTTPSessionWriter) Register(ctx router.Context, msg RegisterUserMessage) error {
	session, err := a.coordinator.Register(ctx.Context(), msg)
	if err != nil {
		return err
	}

	a.setCookieToken(ctx, session.Token, a.cookieDuration)
	return nil
}

// Logout clears every scheme cookie and returns the post-logout redirect.
// It never fails: a missing session just means the cookie deletions are
// no-ops.
func (a *HTTPSessionWriter) Logout(ctx router.Context, logoutID string) string {
	terminator := SchemeTerminatorFunc(func(_ context.Context, scheme string) error {
		a.cookieDel(ctx, a.cookieNameForScheme(scheme))
		return nil
	})

	return a.coordinator.Logout(ctx.Context(), logoutID, terminator)
}

// cookieNameForScheme maps a sign-out scheme to its cookie. The default
// scheme owns the bare context key; the rest are suffixed.
func (a *HTTPSessionWriter) cookieNameForScheme(scheme string) string {
	if scheme == SchemeDefault || scheme == "" {
		return a.cfg.GetContextKey()
	}
	return a.cfg.GetContextKey() + "." + scheme
}

func (a *HTTPSessionWriter) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsTokenMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding: %s", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

// GetRedirect resolves the post-login destination: an explicit returnUrl
// query parameter wins, then the configured default.
func (a *HTTPSessionWriter) GetRedirect(ctx router.Context, def string) string {
	if r := ctx.Query("returnUrl", ""); r != "" {
		return r
	}
	if def != "" {
		return def
	}
	return a.cfg.GetDefaultRedirect()
}

func (a *HTTPSessionWriter) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *HTTPSessionWriter) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *HTTPSessionWriter) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to login: %s path=%s",
		richErr.Message,
		c.OriginalURL(),
	)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect("/Account/Login", statusCode)
}

func (a *HTTPSessionWriter) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
