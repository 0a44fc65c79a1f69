package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/coursehub/identity"
	"github.com/coursehub/identity/cmd/identityd/config"
)

type App struct {
	config   *gconfig.Container[*config.BaseConfig]
	bunDB    *bun.DB
	repo     identity.RepositoryManager
	registry *identity.ClientRegistry
	sessions *identity.HTTPSessionWriter
	srv      router.Server[*fiber.App]
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func main() {
	cfg := gconfig.New(&config.BaseConfig{})

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
	}

	if app.Config().GetApp().GetDebug() {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
		fmt.Println("============")
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	// The authority cannot serve logins without its roles and bootstrap
	// admin in place, so a provisioning failure is fatal.
	if err := WithProvisioning(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithIdentity(ctx, app); err != nil {
		panic(err)
	}

	app.srv.Serve(app.Config().GetApp().GetAddress())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	bunDB := bun.NewDB(db, sqlitedialect.New())

	if _, err := bunDB.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return err
	}

	if err := identity.Migrate(ctx, bunDB); err != nil {
		return err
	}

	app.bunDB = bunDB
	app.repo = identity.NewRepositoryManager(bunDB)

	return app.repo.Validate()
}

func WithProvisioning(ctx context.Context, app *App) error {
	provisioner := identity.NewProvisioner(app.repo)
	return provisioner.Run(ctx)
}

func WithHTTPServer(ctx context.Context, app *App) error {
	engine := django.New("./views", ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: app.Config().GetApp().GetDebug(),
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.Render("home", router.ViewContext{
			"title": "Identity Authority",
		})
	})

	app.SetHTTPServer(srv)

	return nil
}

func WithIdentity(ctx context.Context, app *App) error {
	authCfg := app.Config().GetAuth()

	registry, err := identity.NewClientRegistry(identity.DefaultRegistryConfig())
	if err != nil {
		return err
	}
	app.registry = registry

	tokens := identity.NewTokenService(
		signingKey(authCfg),
		authCfg.GetCookieLifetime(),
		authCfg.GetAuthority(),
		nil,
	)

	logoutContexts := identity.NewLogoutContextStore(registry)

	coordinator := identity.NewCoordinator(app.repo, tokens).
		WithLogoutContextResolver(logoutContexts).
		WithDefaultRedirect(authCfg.GetDefaultRedirect()).
		WithActivitySink(identity.ActivitySinkFunc(func(ctx context.Context, event identity.ActivityEvent) error {
			fmt.Printf("[ACTIVITY] %s subject=%s username=%s at=%s\n",
				event.EventType, event.SubjectID, event.Username, event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		}))

	sessions, err := identity.NewHTTPSessionWriter(coordinator, authCfg)
	if err != nil {
		return err
	}
	app.sessions = sessions

	identity.RegisterAccountRoutes(app.srv.Router().Group("/"),
		identity.WithControllerSessions(sessions),
		identity.WithControllerDebug(app.Config().GetApp().GetDebug()),
	)

	usersAPI := identity.NewUsersAPIController(app.repo)

	protected := sessions.ProtectedRoute(authCfg, func(c router.Context, err error) error {
		return c.JSON(router.StatusUnauthorized, map[string]string{
			"error": "invalid or expired token",
		})
	})

	identity.RegisterUserAPIRoutes(app.srv.Router().Group("/"), usersAPI, protected)

	return nil
}

func (a *App) SetHTTPServer(srv router.Server[*fiber.App]) {
	a.srv = srv
}

// signingKey returns the configured HMAC secret, generating an ephemeral
// one for local runs where none is set. Tokens do not survive a restart in
// that mode.
func signingKey(cfg config.Auth) []byte {
	if cfg.GetSigningKey() != "" {
		return []byte(cfg.GetSigningKey())
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}

	fmt.Printf("[WRN] IDENTITY no signing key configured, using ephemeral key %s...\n", hex.EncodeToString(key[:4]))
	return key
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
