package identity_test

import (
	"context"
	"testing"

	"github.com/coursehub/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionerRun(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, identity.NewProvisioner(repo).Run(ctx))

	t.Run("fixed role set exists", func(t *testing.T) {
		for _, name := range identity.DefaultRoles() {
			role, err := repo.Roles().GetByName(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, name, role.Name)
		}
	})

	t.Run("bootstrap admin exists with all roles", func(t *testing.T) {
		admin, err := repo.Users().GetByUsername(ctx, identity.BootstrapAdminUsername)
		require.NoError(t, err)

		require.NoError(t, repo.Users().VerifyPassword(admin, identity.BootstrapAdminPassword))

		roles, err := repo.Users().GetRoles(ctx, admin)
		require.NoError(t, err)
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.Name)
		}
		assert.Contains(t, names, identity.RoleAdmin)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		require.NoError(t, identity.NewProvisioner(repo).Run(ctx))

		admin, err := repo.Users().GetByUsername(ctx, identity.BootstrapAdminUsername)
		require.NoError(t, err)

		roles, err := repo.Users().GetRoles(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, roles, len(identity.DefaultRoles()))
	})
}

func TestProvisionerGrantsMissingAdminRole(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	// account pre-exists without the Admin membership
	seedUser(t, repo, identity.BootstrapAdminUsername, identity.BootstrapAdminPassword)

	require.NoError(t, identity.NewProvisioner(repo).Run(ctx))

	admin, err := repo.Users().GetByUsername(ctx, identity.BootstrapAdminUsername)
	require.NoError(t, err)

	roles, err := repo.Users().GetRoles(ctx, admin)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, identity.RoleAdmin, roles[0].Name)
}

func TestProvisionerCustomBootstrap(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	provisioner := identity.NewProvisioner(repo).
		WithBootstrapAdmin("root@corp", "Sup3rSecret!")

	require.NoError(t, provisioner.Run(ctx))

	admin, err := repo.Users().GetByUsername(ctx, "root@corp")
	require.NoError(t, err)
	require.NoError(t, repo.Users().VerifyPassword(admin, "Sup3rSecret!"))
}
