package identity

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/goliatone/go-errors"
)

// GrantTypeAuthorizationCode is the only grant this authority registers
// clients for.
const GrantTypeAuthorizationCode = "authorization_code"

// Standard scope names surfaced to the OIDC engine.
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeCoursesAPI    = "courses_api"
	ScopeRoles         = "roles"
	ScopeOfflineAccess = "offline_access"
)

// Client is a registered relying party. Records are immutable at runtime and
// loaded once from static configuration.
type Client struct {
	ID                     string   `json:"client_id"`
	GrantType              string   `json:"grant_type"`
	RedirectURIs           []string `json:"redirect_uris"`
	PostLogoutRedirectURIs []string `json:"post_logout_redirect_uris"`
	AllowedScopes          []string `json:"allowed_scopes"`
	SecretHash             string   `json:"-"`
	RequirePKCE            bool     `json:"require_pkce"`
	AllowOfflineAccess     bool     `json:"allow_offline_access"`
	AllowedCORSOrigins     []string `json:"allowed_cors_origins"`
}

// ApiScope names an API surface clients may request access to.
type ApiScope struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// IdentityResource maps a scope to the claim types it releases.
type IdentityResource struct {
	Name       string   `json:"name"`
	ClaimTypes []string `json:"claim_types"`
}

// RegistryConfig is the explicit configuration object the registry is
// constructed from; it is never held as ambient global state.
type RegistryConfig struct {
	Clients           []Client
	ApiScopes         []ApiScope
	IdentityResources []IdentityResource
}

// ClientRegistry is the immutable table of trusted relying parties plus the
// scope and identity-resource catalog the external OIDC engine consumes.
type ClientRegistry struct {
	clients   map[string]Client
	scopes    []ApiScope
	resources []IdentityResource
}

func NewClientRegistry(cfg RegistryConfig) (*ClientRegistry, error) {
	clients := make(map[string]Client, len(cfg.Clients))
	for _, c := range cfg.Clients {
		if c.ID == "" {
			return nil, errors.New("client id must not be empty", errors.CategoryValidation)
		}
		if _, exists := clients[c.ID]; exists {
			return nil, errors.New("duplicate client id: "+c.ID, errors.CategoryValidation)
		}
		if c.GrantType == "" {
			c.GrantType = GrantTypeAuthorizationCode
		}
		clients[c.ID] = c
	}

	return &ClientRegistry{
		clients:   clients,
		scopes:    append([]ApiScope(nil), cfg.ApiScopes...),
		resources: append([]IdentityResource(nil), cfg.IdentityResources...),
	}, nil
}

// Client returns the record registered under id.
func (r *ClientRegistry) Client(id string) (Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return Client{}, ErrClientNotFound.Clone().
			WithMetadata(map[string]any{"client_id": id})
	}
	return c, nil
}

// ApiScopes returns a copy of the API scope catalog.
func (r *ClientRegistry) ApiScopes() []ApiScope {
	return append([]ApiScope(nil), r.scopes...)
}

// IdentityResources returns a copy of the identity resource catalog.
func (r *ClientRegistry) IdentityResources() []IdentityResource {
	return append([]IdentityResource(nil), r.resources...)
}

// ValidateRedirectURI enforces exact-match redirect targets; no prefix or
// wildcard matching.
func (r *ClientRegistry) ValidateRedirectURI(clientID, uri string) error {
	c, err := r.Client(clientID)
	if err != nil {
		return err
	}
	return matchExact(c.RedirectURIs, uri, "redirect_uri")
}

// ValidatePostLogoutRedirectURI enforces exact-match post-logout targets.
func (r *ClientRegistry) ValidatePostLogoutRedirectURI(clientID, uri string) error {
	c, err := r.Client(clientID)
	if err != nil {
		return err
	}
	return matchExact(c.PostLogoutRedirectURIs, uri, "post_logout_redirect_uri")
}

func matchExact(registered []string, uri, kind string) error {
	for _, candidate := range registered {
		if candidate == uri {
			return nil
		}
	}
	return errors.New("unregistered "+kind, errors.CategoryValidation).
		WithTextCode("UNREGISTERED_REDIRECT").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{kind: uri})
}

// HashClientSecret is the sha256 digest format stored for client secrets.
func HashClientSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// DefaultRegistryConfig is the static configuration for the courses
// platform relying party.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Clients: []Client{
			{
				ID:        "courses_platform_client",
				GrantType: GrantTypeAuthorizationCode,
				RedirectURIs: []string{
					"https://localhost:5001/signin-oidc",
					"http://127.0.0.1:7890/callback",
					"myapp://auth/callback",
				},
				PostLogoutRedirectURIs: []string{
					"https://localhost:5001/signout-callback-oidc",
					"http://127.0.0.1:7890/callback",
					"myapp://auth/callback",
				},
				AllowedScopes: []string{
					ScopeOpenID,
					ScopeProfile,
					ScopeCoursesAPI,
					ScopeRoles,
					ScopeOfflineAccess,
				},
				SecretHash:         HashClientSecret("secret"),
				RequirePKCE:        true,
				AllowOfflineAccess: true,
				AllowedCORSOrigins: []string{
					"https://localhost:5001",
					"http://localhost:5005",
					"https://localhost:5005",
					"http://127.0.0.1:7890",
					"https://127.0.0.1:7890",
					"https://10.0.2.2:5000",
					"http://10.0.2.2:5000",
				},
			},
		},
		ApiScopes: []ApiScope{
			{Name: ScopeCoursesAPI, DisplayName: "Courses API"},
		},
		IdentityResources: []IdentityResource{
			{Name: ScopeOpenID, ClaimTypes: []string{"sub"}},
			{Name: ScopeProfile, ClaimTypes: []string{"name", "preferred_username"}},
			{Name: ScopeRoles, ClaimTypes: []string{"role"}},
		},
	}
}
