package identity_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/coursehub/identity"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestRepo(t *testing.T) (identity.RepositoryManager, *bun.DB, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, identity.Migrate(context.Background(), bunDB))

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return identity.NewRepositoryManager(bunDB), bunDB, cleanup
}

func seedUser(t *testing.T, repo identity.RepositoryManager, username, password string, roleNames ...identity.RoleName) *identity.User {
	t.Helper()

	ctx := context.Background()

	user, err := repo.Users().CreateWithPassword(ctx, &identity.User{
		Username: username,
		Email:    username + "@example.com",
	}, password)
	require.NoError(t, err)

	for _, name := range roleNames {
		role, err := repo.Roles().GetOrCreateByName(ctx, name)
		require.NoError(t, err)
		require.NoError(t, repo.Users().AddToRole(ctx, user, role))
	}

	return user
}
