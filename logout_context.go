package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LogoutContextStore keeps pending end-session contexts keyed by an opaque
// logout id. Contexts are one-shot: resolving one removes it, so a replayed
// logout link falls back to the default landing page.
type LogoutContextStore struct {
	mu       sync.Mutex
	registry *ClientRegistry
	pending  map[string]*LogoutContext
}

func NewLogoutContextStore(registry *ClientRegistry) *LogoutContextStore {
	return &LogoutContextStore{
		registry: registry,
		pending:  map[string]*LogoutContext{},
	}
}

// Create registers a pending logout. The post-logout redirect must be one
// the client registered, otherwise it is dropped and the resolver will
// fall back to the default.
func (s *LogoutContextStore) Create(ctx context.Context, clientID, postLogoutRedirectURI string) (string, error) {
	redirect := ""
	if s.registry != nil && clientID != "" && postLogoutRedirectURI != "" {
		if err := s.registry.ValidatePostLogoutRedirectURI(clientID, postLogoutRedirectURI); err == nil {
			redirect = postLogoutRedirectURI
		}
	}

	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[id] = &LogoutContext{
		LogoutID:              id,
		PostLogoutRedirectURI: redirect,
	}

	return id, nil
}

// Resolve implements LogoutContextResolver.
func (s *LogoutContextStore) Resolve(ctx context.Context, logoutID string) (*LogoutContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lc, ok := s.pending[logoutID]
	if !ok {
		return nil, ErrLogoutContextNotFound
	}
	delete(s.pending, logoutID)

	return lc, nil
}
