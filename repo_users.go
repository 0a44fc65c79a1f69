package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential store. Lookups are case-insensitive on the
// normalized username projection; profile writes go through an optimistic
// version check so concurrent updates to one record cannot lose data.
type Users interface {
	repository.Repository[*User]

	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*User, error)

	CreateWithPassword(ctx context.Context, record *User, password string) (*User, error)
	CreateWithPasswordTx(ctx context.Context, tx bun.IDB, record *User, password string) (*User, error)

	UpdateProfile(ctx context.Context, record *User) (*User, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	VerifyPassword(user *User, password string) error

	GetRoles(ctx context.Context, user *User) ([]*Role, error)
	GetRolesTx(ctx context.Context, tx bun.IDB, user *User) ([]*Role, error)
	AddToRole(ctx context.Context, user *User, role *Role) error
	AddToRoleTx(ctx context.Context, tx bun.IDB, user *User, role *Role) error
}

type users struct {
	repository.Repository[*User]
	db     *bun.DB
	hasher PasswordHasher
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithUsersPasswordHasher overrides the default bcrypt hasher.
func WithUsersPasswordHasher(h PasswordHasher) UsersOption {
	return func(u *users) {
		if h != nil {
			u.hasher = h
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		hasher:     BcryptHasher{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.normalized_username = ?", NormalizeUsername(username)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"username": username})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id, criteria...)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}

	record := &User{}
	err = tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", uid).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id})
		}
		return nil, err
	}

	return record, nil
}

// CreateWithPassword hashes the password and inserts the record. A taken
// username surfaces as ErrDuplicateUsername without any partial writes.
func (a *users) CreateWithPassword(ctx context.Context, record *User, password string) (*User, error) {
	return a.CreateWithPasswordTx(ctx, a.db, record, password)
}

func (a *users) CreateWithPasswordTx(ctx context.Context, tx bun.IDB, record *User, password string) (*User, error) {
	hash, err := a.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	prepareUserDefaults(record)
	record.PasswordHash = hash

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			dup := ErrDuplicateUsername.Clone()
			dup.Source = err
			return nil, dup.WithMetadata(map[string]any{"username": record.Username})
		}
		return nil, NewPersistenceError(err, "could not create user")
	}

	return record, nil
}

// UpdateProfile persists the mutable profile columns guarded by the record's
// version. A stale version returns ErrStaleUpdate so the caller can re-read
// and retry instead of silently losing the concurrent write.
func (a *users) UpdateProfile(ctx context.Context, record *User) (*User, error) {
	return a.UpdateProfileTx(ctx, a.db, record)
}

func (a *users) UpdateProfileTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	res, err := tx.NewUpdate().
		Model(record).
		Column("email", "full_name", "phone_number", "bio", "media_url", "social_links").
		Set("version = version + 1").
		Set("updated_at = current_timestamp").
		Where("?TableAlias.id = ?", record.ID).
		Where("?TableAlias.version = ?", record.Version).
		Exec(ctx)

	if err != nil {
		return nil, NewPersistenceError(err, "could not update user profile")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := a.GetByIDTx(ctx, tx, record.ID.String()); err != nil {
			return nil, err
		}
		return nil, ErrStaleUpdate.Clone().
			WithMetadata(map[string]any{"id": record.ID.String()})
	}

	record.Version++
	return record, nil
}

// VerifyPassword runs the one-way salted hash comparison. Failures collapse
// to the generic login error.
func (a *users) VerifyPassword(user *User, password string) error {
	if user == nil {
		return ErrInvalidLogin
	}
	return a.hasher.ComparePasswordAndHash(password, user.PasswordHash)
}

func (a *users) GetRoles(ctx context.Context, user *User) ([]*Role, error) {
	return a.GetRolesTx(ctx, a.db, user)
}

// GetRolesTx returns memberships ordered by grant time, which is the order
// issued role claims preserve.
func (a *users) GetRolesTx(ctx context.Context, tx bun.IDB, user *User) ([]*Role, error) {
	var roles []*Role
	err := tx.NewSelect().
		Model(&roles).
		Join("JOIN user_roles AS uro ON uro.role_id = ?TableAlias.id").
		Where("uro.user_id = ?", user.ID).
		OrderExpr("uro.granted_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return roles, nil
}

func (a *users) AddToRole(ctx context.Context, user *User, role *Role) error {
	return a.AddToRoleTx(ctx, a.db, user, role)
}

// AddToRoleTx grants a membership. Granting an already-held role is a no-op,
// which keeps concurrent grants and repeated provisioning runs benign.
func (a *users) AddToRoleTx(ctx context.Context, tx bun.IDB, user *User, role *Role) error {
	membership := &UserRole{
		UserID: user.ID,
		RoleID: role.ID,
	}

	if _, err := tx.NewInsert().Model(membership).Ignore().Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return NewPersistenceError(err, "could not grant role")
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Normalize()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// wrapUserLookupError maps a repository not-found to the domain error while
// passing through everything else.
func wrapUserLookupError(err error, subject string) error {
	if err == nil {
		return nil
	}
	if errors.IsNotFound(err) {
		return ErrUserNotFound.Clone().
			WithMetadata(map[string]any{"subject": subject})
	}
	return err
}
