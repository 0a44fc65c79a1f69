package identity

import (
	"encoding/base64"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// RegisterUserAPIRoutes mounts the bearer-protected profile endpoints.
func RegisterUserAPIRoutes[T any](app router.Router[T], controller *UsersAPIController, protect router.MiddlewareFunc) {
	app.Get("/api/users/:id", protect(controller.Show)).SetName("api-users.get")
	app.Put("/api/users/:id", protect(controller.Update)).SetName("api-users.put")
}

// UserResource is the public profile projection.
type UserResource struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Bio         string `json:"bio"`
	MediaURL    string `json:"mediaUrl"`
	SocialLinks string `json:"socialLinks"`
}

func NewUserResource(user *User) UserResource {
	return UserResource{
		ID:          user.ID.String(),
		FullName:    user.FullName,
		Email:       user.Email,
		Bio:         user.Bio,
		MediaURL:    user.MediaURL,
		SocialLinks: user.SocialLinks,
	}
}

type UsersAPIController struct {
	Logger   Logger
	Repo     RepositoryManager
	Uploader MediaUploader
}

type UsersAPIControllerOption func(*UsersAPIController) *UsersAPIController

func NewUsersAPIController(repo RepositoryManager, opts ...UsersAPIControllerOption) *UsersAPIController {
	c := &UsersAPIController{
		Logger: defLogger{},
		Repo:   repo,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in users API controller...")
	}

	return c
}

func WithUsersAPILogger(logger Logger) UsersAPIControllerOption {
	return func(c *UsersAPIController) *UsersAPIController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithUsersAPIUploader(uploader MediaUploader) UsersAPIControllerOption {
	return func(c *UsersAPIController) *UsersAPIController {
		c.Uploader = uploader
		return c
	}
}

func (a *UsersAPIController) Show(ctx router.Context) error {
	id := ctx.Param("id", "")

	user, err := a.Repo.Users().GetByID(ctx.Context(), id)
	if err != nil {
		if err = wrapUserLookupError(err, id); IsNotFoundError(err) {
			return ctx.JSON(fiber.StatusNotFound, map[string]string{"error": "user not found"})
		}
		a.Logger.Error("users api show: %v", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]string{"error": "failed to load user"})
	}

	return ctx.JSON(fiber.StatusOK, NewUserResource(user))
}

// UpdateUserPayload carries the editable profile fields. Photo is an
// optional base64 payload handed to the media uploader; Version feeds the
// optimistic write.
type UpdateUserPayload struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Bio         string `json:"bio"`
	SocialLinks string `json:"socialLinks"`
	Photo       string `json:"photo"`
	PhotoName   string `json:"photoName"`
	Version     int64  `json:"version"`
}

// Validate will validate the payload
func (r UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 500)),
	)
}

func (a *UsersAPIController) Update(ctx router.Context) error {
	id := ctx.Param("id", "")

	payload := new(UpdateUserPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("users api update parse payload: %v", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]string{"error": "failed to parse body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id)
	if err != nil {
		if err = wrapUserLookupError(err, id); IsNotFoundError(err) {
			return ctx.JSON(fiber.StatusNotFound, map[string]string{"error": "user not found"})
		}
		a.Logger.Error("users api update lookup: %v", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]string{"error": "failed to load user"})
	}

	user.FullName = payload.FullName
	user.Bio = payload.Bio
	user.SocialLinks = payload.SocialLinks
	if payload.Email != "" {
		user.Email = payload.Email
	}
	if payload.Phone != "" {
		user.Phone = payload.Phone
	}
	if payload.Version > 0 {
		user.Version = payload.Version
	}

	if payload.Photo != "" {
		url, err := a.uploadPhoto(ctx, payload)
		if err != nil {
			a.Logger.Error("users api photo upload: %v", err)
			return ctx.JSON(fiber.StatusBadGateway, map[string]string{"error": "failed to upload photo"})
		}
		user.MediaURL = url
	}

	updated, err := a.Repo.Users().UpdateProfile(ctx.Context(), user)
	if err != nil {
		switch {
		case IsNotFoundError(err):
			return ctx.JSON(fiber.StatusNotFound, map[string]string{"error": "user not found"})
		case IsStaleUpdateError(err):
			return ctx.JSON(fiber.StatusConflict, map[string]string{"error": "user was modified concurrently"})
		default:
			a.Logger.Error("users api update: %v", err)
			return ctx.JSON(fiber.StatusBadRequest, map[string]string{"error": "failed to update user"})
		}
	}

	return ctx.JSON(fiber.StatusOK, NewUserResource(updated))
}

func (a *UsersAPIController) uploadPhoto(ctx router.Context, payload *UpdateUserPayload) (string, error) {
	if a.Uploader == nil {
		return "", NewExternalServiceError(nil, "no media uploader configured")
	}

	data, err := base64.StdEncoding.DecodeString(payload.Photo)
	if err != nil {
		return "", NewExternalServiceError(err, "photo payload is not valid base64")
	}

	name := payload.PhotoName
	if name == "" {
		name = "profile"
	}

	url, err := a.Uploader.Upload(ctx.Context(), name, data)
	if err != nil {
		return "", NewExternalServiceError(err, "media upload failed")
	}

	return url, nil
}
