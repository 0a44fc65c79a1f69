package identity

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterAccountRoutes mounts the interactive login, registration, and
// logout surface.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {

	controller := NewAccountController(opts...)

	app.
		Get(controller.Routes.Login,
			controller.LoginShow,
		).
		SetName("account-login.get")

	app.
		Post(
			controller.Routes.Login,
			controller.LoginPost,
		).
		SetName("account-login.post")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("account-register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("account-register.post")

	app.Get(controller.Routes.Logout, controller.Logout).SetName("account-logout.get")
	app.Post(controller.Routes.Logout, controller.Logout).SetName("account-logout.post")
}

type AccountControllerRoutes struct {
	Login    string
	Logout   string
	Register string
}

type AccountControllerViews struct {
	Login    string
	Logout   string
	Register string
}

type AccountController struct {
	Debug        bool
	Logger       Logger
	Sessions     *HTTPSessionWriter
	Routes       *AccountControllerRoutes
	Views        *AccountControllerViews
	ErrorHandler router.ErrorHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AccountControllerRoutes{
			Login:    "/Account/Login",
			Logout:   "/Account/Logout",
			Register: "/Account/Register",
		},
		Views: &AccountControllerViews{
			Login:    "login",
			Logout:   "logout",
			Register: "register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing HTTPSessionWriter in account controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerSessions(sessions *HTTPSessionWriter) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

func (a *AccountController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors":     nil,
		"record":     nil,
		"return_url": ctx.Query("returnUrl", ""),
		"role":       ctx.Query("role", ""),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Username     string `form:"username" json:"username"`
	Password     string `form:"password" json:"password"`
	ExpectedRole string `form:"expected_role" json:"expected_role"`
	ReturnURL    string `form:"return_url" json:"return_url"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AccountController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errors := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	if err := a.Sessions.Login(ctx, payload.Username, payload.Password, payload.ExpectedRole); err != nil {
		// A role mismatch names the role so the form can say which role is
		// missing; everything else stays generic.
		if IsRoleMismatchError(err) {
			errors["authentication"] = fmt.Sprintf("This account is not registered as %s", payload.ExpectedRole)
		} else {
			errors["authentication"] = "Invalid login attempt"
		}
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	redirect := a.Sessions.GetRedirect(ctx, payload.ReturnURL)

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AccountController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterUserMessage{
			ReturnURL: ctx.Query("returnUrl", ""),
		},
		"roles": DefaultRoles(),
	})
}

func (a *AccountController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterUserMessage)

	if err := ctx.Bind(payload); err != nil {
		errors := map[string]string{}
		errors["form"] = "Failed to parse form"
		a.Logger.Error("register user parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": errors,
			"record": payload,
			"roles":  DefaultRoles(),
		})
	}

	if err := a.Sessions.Register(ctx, *payload); err != nil {
		a.Logger.Error("register user: %v", err)

		if IsValidationError(err) {
			return flash.WithError(ctx, router.ViewContext{
				"error_message":  err.Error(),
				"system_message": "Error validating payload",
			}).Render(a.Views.Register, router.ViewContext{
				"record":     payload,
				"validation": ValidationFields(err),
				"roles":      DefaultRoles(),
			})
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error registering account",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
			"roles":  DefaultRoles(),
		})
	}

	redirect := a.Sessions.GetRedirect(ctx, payload.ReturnURL)

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Successful user registration",
	}).Redirect(redirect, fiber.StatusSeeOther)
}

// Logout terminates every sign-in scheme and lands on the post-logout
// redirect. Repeating the request, or calling it with no session, is
// harmless.
func (a *AccountController) Logout(ctx router.Context) error {
	logoutID := ctx.Query("logoutId", "")
	redirect := a.Sessions.Logout(ctx, logoutID)
	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
