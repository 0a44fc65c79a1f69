package identity_test

import (
	"context"
	"testing"

	"github.com/coursehub/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithPassword(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := repo.Users().CreateWithPassword(ctx, &identity.User{
			Username: "alice@example.com",
		}, "Sup3rSecret!")

		require.NoError(t, err)
		assert.NotEqual(t, "", user.ID.String())
		assert.Equal(t, "ALICE@EXAMPLE.COM", user.NormalizedUsername)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotContains(t, user.PasswordHash, "Sup3rSecret!")
	})

	t.Run("duplicate username is rejected case-insensitively", func(t *testing.T) {
		_, err := repo.Users().CreateWithPassword(ctx, &identity.User{
			Username: "Alice@Example.com",
		}, "An0therPass!")

		require.Error(t, err)
		assert.True(t, identity.IsValidationError(err))
	})

	t.Run("empty password is rejected before touching storage", func(t *testing.T) {
		_, err := repo.Users().CreateWithPassword(ctx, &identity.User{
			Username: "bob@example.com",
		}, "")

		require.Error(t, err)

		_, err = repo.Users().GetByUsername(ctx, "bob@example.com")
		assert.Error(t, err)
	})
}

func TestGetByUsername(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, "carol@example.com", "Sup3rSecret!")

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		user, err := repo.Users().GetByUsername(ctx, "CAROL@example.COM")
		require.NoError(t, err)
		assert.Equal(t, "carol@example.com", user.Username)
	})

	t.Run("unknown username reports not found", func(t *testing.T) {
		_, err := repo.Users().GetByUsername(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, identity.IsNotFoundError(err))
	})
}

func TestVerifyPassword(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	user := seedUser(t, repo, "dave@example.com", "Sup3rSecret!")

	t.Run("accepts the right password", func(t *testing.T) {
		assert.NoError(t, repo.Users().VerifyPassword(user, "Sup3rSecret!"))
	})

	t.Run("wrong password yields the generic login error", func(t *testing.T) {
		err := repo.Users().VerifyPassword(user, "WrongPass1!")
		require.Error(t, err)
		assert.True(t, identity.IsAuthenticationError(err))
	})
}

func TestUpdateProfile(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("persists profile fields and bumps version", func(t *testing.T) {
		user := seedUser(t, repo, "erin@example.com", "Sup3rSecret!")

		user.FullName = "Erin Example"
		user.Bio = "teaches databases"

		updated, err := repo.Users().UpdateProfile(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.Version)

		fresh, err := repo.Users().GetByUsername(ctx, "erin@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Erin Example", fresh.FullName)
		assert.Equal(t, "teaches databases", fresh.Bio)
		assert.Equal(t, int64(1), fresh.Version)
	})

	t.Run("stale version loses the race", func(t *testing.T) {
		seedUser(t, repo, "frank@example.com", "Sup3rSecret!")

		first, err := repo.Users().GetByUsername(ctx, "frank@example.com")
		require.NoError(t, err)
		second, err := repo.Users().GetByUsername(ctx, "frank@example.com")
		require.NoError(t, err)

		first.Bio = "writer one"
		_, err = repo.Users().UpdateProfile(ctx, first)
		require.NoError(t, err)

		second.Bio = "writer two"
		_, err = repo.Users().UpdateProfile(ctx, second)
		require.Error(t, err)
		assert.True(t, identity.IsStaleUpdateError(err))

		fresh, err := repo.Users().GetByUsername(ctx, "frank@example.com")
		require.NoError(t, err)
		assert.Equal(t, "writer one", fresh.Bio)
	})
}

func TestRoleMembership(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, repo, "grace@example.com", "Sup3rSecret!")

	student, err := repo.Roles().GetOrCreateByName(ctx, identity.RoleStudent)
	require.NoError(t, err)
	professor, err := repo.Roles().GetOrCreateByName(ctx, identity.RoleProfessor)
	require.NoError(t, err)

	t.Run("memberships come back in grant order", func(t *testing.T) {
		require.NoError(t, repo.Users().AddToRole(ctx, user, student))
		require.NoError(t, repo.Users().AddToRole(ctx, user, professor))

		roles, err := repo.Users().GetRoles(ctx, user)
		require.NoError(t, err)
		require.Len(t, roles, 2)
		assert.Equal(t, identity.RoleStudent, roles[0].Name)
		assert.Equal(t, identity.RoleProfessor, roles[1].Name)
	})

	t.Run("granting a held role is a no-op", func(t *testing.T) {
		require.NoError(t, repo.Users().AddToRole(ctx, user, student))

		roles, err := repo.Users().GetRoles(ctx, user)
		require.NoError(t, err)
		assert.Len(t, roles, 2)
	})
}
