package identity_test

import (
	"context"
	"testing"

	"github.com/coursehub/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueClaims(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	issuer := identity.NewClaimsIssuer(repo)

	t.Run("full profile with two memberships", func(t *testing.T) {
		user := seedUser(t, repo, "kate@example.com", "Sup3rSecret!",
			identity.RoleStudent, identity.RoleProfessor)
		user.FullName = "Kate Example"
		user.Email = "kate@example.com"
		_, err := repo.Users().UpdateProfile(ctx, user)
		require.NoError(t, err)

		claims, err := issuer.IssueClaims(ctx, user.ID.String())
		require.NoError(t, err)
		require.Len(t, claims, 4)

		assert.Equal(t, []string{"Kate Example"}, identity.ClaimValues(claims, identity.ClaimTypeName))
		assert.Equal(t, []string{"kate@example.com"}, identity.ClaimValues(claims, identity.ClaimTypeEmail))
		// role claims follow grant order
		assert.Equal(t,
			[]string{identity.RoleStudent, identity.RoleProfessor},
			identity.ClaimValues(claims, identity.ClaimTypeRole))
	})

	t.Run("name falls back to username without a full name", func(t *testing.T) {
		user := seedUser(t, repo, "liam@example.com", "Sup3rSecret!", identity.RoleStudent)

		claims, err := issuer.IssueClaims(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, []string{"liam@example.com"}, identity.ClaimValues(claims, identity.ClaimTypeName))
	})

	t.Run("unknown subject yields an empty set and no error", func(t *testing.T) {
		claims, err := issuer.IssueClaims(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, claims)
	})
}

func TestIsActive(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	issuer := identity.NewClaimsIssuer(repo)
	user := seedUser(t, repo, "mia@example.com", "Sup3rSecret!", identity.RoleStudent)

	active, err := issuer.IsActive(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, active)

	active, err = issuer.IsActive(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, active)
}
