package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries the registration form payload.
type RegisterUserMessage struct {
	Username        string `form:"username" json:"username"`
	FullName        string `form:"full_name" json:"full_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	SelectedRole    string `form:"selected_role" json:"selected_role"`
	ReturnURL       string `form:"return_url" json:"return_url"`
}

func (e RegisterUserMessage) Type() string { return "identity.register" }

// Validate runs the registration rules. Every violation is reported per
// field so the form can render them inline.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(
			&e.Username,
			validation.Required,
			validation.Length(1, 50),
		),
		validation.Field(
			&e.FullName,
			validation.Required,
			validation.Length(1, 500),
		),
		validation.Field(
			&e.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&e.Phone,
			validation.Required,
			validation.By(ValidateUkrainianPhone),
		),
		validation.Field(
			&e.Password,
			validation.Required,
			validation.By(ValidatePasswordComplexity),
		),
		validation.Field(
			&e.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(e.Password)),
		),
		validation.Field(
			&e.SelectedRole,
			validation.Required,
			validation.In(rolesAsAny()...),
		),
	)
}

func rolesAsAny() []any {
	roles := DefaultRoles()
	out := make([]any, 0, len(roles))
	for _, r := range roles {
		out = append(out, r)
	}
	return out
}

// RegisterUserHandler creates the account and grants the selected role
// inside a single transaction. A duplicate username aborts the whole unit:
// no user row and no role grant survive.
type RegisterUserHandler struct {
	repo RepositoryManager
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, NewValidationError(FormatValidationErrorToMap(err))
	}

	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	user := &User{
		Username: event.Username,
		FullName: event.FullName,
		Email:    event.Email,
		Phone:    event.Phone,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Users().CreateWithPasswordTx(ctx, tx, user, event.Password)
		if err != nil {
			return err
		}
		user = created

		role, err := h.repo.Roles().GetOrCreateByNameTx(ctx, tx, event.SelectedRole)
		if err != nil {
			return NewPersistenceError(err, "failed to resolve selected role")
		}

		if err := h.repo.Users().AddToRoleTx(ctx, tx, user, role); err != nil {
			return NewPersistenceError(err, "failed to grant selected role")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}
