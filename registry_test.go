package identity_test

import (
	"testing"

	"github.com/coursehub/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRegistry(t *testing.T) {
	registry, err := identity.NewClientRegistry(identity.DefaultRegistryConfig())
	require.NoError(t, err)

	t.Run("resolves a registered client", func(t *testing.T) {
		client, err := registry.Client("courses_platform_client")
		require.NoError(t, err)

		assert.Equal(t, identity.GrantTypeAuthorizationCode, client.GrantType)
		assert.True(t, client.RequirePKCE)
		assert.True(t, client.AllowOfflineAccess)
		assert.Contains(t, client.AllowedScopes, identity.ScopeOfflineAccess)
		assert.Equal(t, identity.HashClientSecret("secret"), client.SecretHash)
	})

	t.Run("unknown client is a not found error", func(t *testing.T) {
		_, err := registry.Client("nope")
		require.Error(t, err)
		assert.True(t, identity.IsNotFoundError(err))
	})

	t.Run("catalog copies are independent", func(t *testing.T) {
		scopes := registry.ApiScopes()
		require.NotEmpty(t, scopes)
		scopes[0].Name = "mutated"

		again := registry.ApiScopes()
		assert.Equal(t, identity.ScopeCoursesAPI, again[0].Name)
	})
}

func TestClientRegistryConstruction(t *testing.T) {
	t.Run("empty client id rejected", func(t *testing.T) {
		_, err := identity.NewClientRegistry(identity.RegistryConfig{
			Clients: []identity.Client{{ID: ""}},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate client id rejected", func(t *testing.T) {
		_, err := identity.NewClientRegistry(identity.RegistryConfig{
			Clients: []identity.Client{{ID: "dup"}, {ID: "dup"}},
		})
		assert.Error(t, err)
	})

	t.Run("grant type defaults to authorization code", func(t *testing.T) {
		registry, err := identity.NewClientRegistry(identity.RegistryConfig{
			Clients: []identity.Client{{ID: "bare"}},
		})
		require.NoError(t, err)

		client, err := registry.Client("bare")
		require.NoError(t, err)
		assert.Equal(t, identity.GrantTypeAuthorizationCode, client.GrantType)
	})
}

func TestRedirectValidation(t *testing.T) {
	registry, err := identity.NewClientRegistry(identity.DefaultRegistryConfig())
	require.NoError(t, err)

	const clientID = "courses_platform_client"

	t.Run("registered targets pass", func(t *testing.T) {
		assert.NoError(t, registry.ValidateRedirectURI(clientID, "https://localhost:5001/signin-oidc"))
		assert.NoError(t, registry.ValidateRedirectURI(clientID, "myapp://auth/callback"))
		assert.NoError(t, registry.ValidatePostLogoutRedirectURI(clientID, "https://localhost:5001/signout-callback-oidc"))
	})

	t.Run("matching is exact, not prefix", func(t *testing.T) {
		err := registry.ValidateRedirectURI(clientID, "https://localhost:5001/signin-oidc/extra")
		assert.Error(t, err)

		err = registry.ValidateRedirectURI(clientID, "https://localhost:5001")
		assert.Error(t, err)
	})

	t.Run("unregistered target rejected", func(t *testing.T) {
		err := registry.ValidatePostLogoutRedirectURI(clientID, "https://evil.example/phish")
		assert.Error(t, err)
		assert.False(t, identity.IsNotFoundError(err))
	})

	t.Run("unknown client rejected before target check", func(t *testing.T) {
		err := registry.ValidateRedirectURI("nope", "https://localhost:5001/signin-oidc")
		require.Error(t, err)
		assert.True(t, identity.IsNotFoundError(err))
	})
}

func TestHashClientSecret(t *testing.T) {
	// base64(sha256("secret"))
	assert.Equal(t, "K7gNU3sdo+OL0wNhqoVWhr3g6s1xYv72ol/pe/Unols=", identity.HashClientSecret("secret"))
	assert.NotEqual(t, identity.HashClientSecret("secret"), identity.HashClientSecret("Secret"))
}
