package config

// BaseConfig is the root application configuration. Values load from
// config files and environment overrides; the getters fill in defaults so
// an empty config still boots a usable local authority.
type BaseConfig struct {
	App         App         `json:"app" yaml:"app"`
	Auth        Auth        `json:"auth" yaml:"auth"`
	Persistence Persistence `json:"persistence" yaml:"persistence"`
}

func (a BaseConfig) Validate() error {
	return nil
}

func (a *BaseConfig) GetApp() App {
	return a.App
}

func (a *BaseConfig) GetAuth() Auth {
	return a.Auth
}

func (a *BaseConfig) GetPersistence() Persistence {
	return a.Persistence
}

type App struct {
	Address string `json:"address" yaml:"address"`
	Debug   bool   `json:"debug" yaml:"debug"`
}

func (a App) GetAddress() string {
	if a.Address == "" {
		return ":5001"
	}
	return a.Address
}

func (a App) GetDebug() bool {
	return a.Debug
}

// Auth satisfies the identity package Config interface.
type Auth struct {
	Authority       string `json:"authority" yaml:"authority"`
	SigningKey      string `json:"signing_key" yaml:"signing_key"`
	SigningMethod   string `json:"signing_method" yaml:"signing_method"`
	ContextKey      string `json:"context_key" yaml:"context_key"`
	TokenLookup     string `json:"token_lookup" yaml:"token_lookup"`
	AuthScheme      string `json:"auth_scheme" yaml:"auth_scheme"`
	DefaultRedirect string `json:"default_redirect" yaml:"default_redirect"`
	CookieLifetime  int    `json:"cookie_lifetime" yaml:"cookie_lifetime"`
}

func (a Auth) GetAuthority() string {
	if a.Authority == "" {
		return "https://localhost:5001"
	}
	return a.Authority
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "identity"
	}
	return a.ContextKey
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetDefaultRedirect() string {
	if a.DefaultRedirect == "" {
		return "/"
	}
	return a.DefaultRedirect
}

// GetCookieLifetime is the session cookie lifetime in minutes.
func (a Auth) GetCookieLifetime() int {
	if a.CookieLifetime <= 0 {
		return 30
	}
	return a.CookieLifetime
}

type Persistence struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}
