package identity_test

import (
	"context"
	"testing"

	"github.com/coursehub/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogoutContextStore(t *testing.T) {
	registry, err := identity.NewClientRegistry(identity.DefaultRegistryConfig())
	require.NoError(t, err)

	store := identity.NewLogoutContextStore(registry)
	ctx := context.Background()

	t.Run("registered redirect is kept and resolved once", func(t *testing.T) {
		id, err := store.Create(ctx, "courses_platform_client", "https://localhost:5001/signout-callback-oidc")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		lc, err := store.Resolve(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, lc.LogoutID)
		assert.Equal(t, "https://localhost:5001/signout-callback-oidc", lc.PostLogoutRedirectURI)

		_, err = store.Resolve(ctx, id)
		require.Error(t, err)
		assert.True(t, identity.IsNotFoundError(err))
	})

	t.Run("unregistered redirect is dropped", func(t *testing.T) {
		id, err := store.Create(ctx, "courses_platform_client", "https://evil.example/phish")
		require.NoError(t, err)

		lc, err := store.Resolve(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, lc.PostLogoutRedirectURI)
	})

	t.Run("empty redirect is tolerated", func(t *testing.T) {
		id, err := store.Create(ctx, "courses_platform_client", "")
		require.NoError(t, err)

		lc, err := store.Resolve(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, lc.PostLogoutRedirectURI)
	})

	t.Run("unknown id is a not found error", func(t *testing.T) {
		_, err := store.Resolve(ctx, "missing")
		require.Error(t, err)
		assert.True(t, identity.IsNotFoundError(err))
	})
}
