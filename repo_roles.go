package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles persists the role catalog. Names are unique on a normalized
// projection, same as usernames.
type Roles interface {
	repository.Repository[*Role]

	GetByName(ctx context.Context, name RoleName) (*Role, error)
	GetByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error)
	GetOrCreateByName(ctx context.Context, name RoleName) (*Role, error)
	GetOrCreateByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error)
}

type roles struct {
	repository.Repository[*Role]
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &roles{
		Repository: repo,
		db:         db,
	}
}

func (a *roles) GetByName(ctx context.Context, name RoleName) (*Role, error) {
	return a.GetByNameTx(ctx, a.db, name)
}

func (a *roles) GetByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error) {
	record := &Role{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.normalized_name = ?", NormalizeUsername(name)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"name": name})
		}
		return nil, err
	}

	return record, nil
}

func (a *roles) GetOrCreateByName(ctx context.Context, name RoleName) (*Role, error) {
	return a.GetOrCreateByNameTx(ctx, a.db, name)
}

// GetOrCreateByNameTx is check-then-create rather than an upsert: role names
// are stable, and a lost race against another creator is resolved by
// re-reading the winner's row.
func (a *roles) GetOrCreateByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error) {
	record, err := a.GetByNameTx(ctx, tx, name)
	if err == nil {
		return record, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	record = (&Role{ID: uuid.New(), Name: name}).Normalize()
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return a.GetByNameTx(ctx, tx, name)
		}
		return nil, NewPersistenceError(err, "could not create role")
	}

	return record, nil
}
