package variables

import (
	"context"
	"errors"

	"github.com/promptforge/promptforge/statestore"
)

// SessionProvider resolves variables from a playground session's stored
// values. The statestore is injected via constructor, allowing the provider
// to look up the values the user has typed for the current session.
type SessionProvider struct {
	store     statestore.Store
	sessionID string
}

// NewSessionProvider creates a SessionProvider for the given session.
func NewSessionProvider(store statestore.Store, sessionID string) *SessionProvider {
	return &SessionProvider{
		store:     store,
		sessionID: sessionID,
	}
}

// Name returns the provider identifier.
func (p *SessionProvider) Name() string {
	return "session"
}

// Provide returns the session's variable values.
// A missing session is not an error, it just contributes no variables.
func (p *SessionProvider) Provide(ctx context.Context) (map[string]string, error) {
	if p.store == nil || p.sessionID == "" {
		return nil, nil
	}

	session, err := p.store.Load(ctx, p.sessionID)
	if err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	result := make(map[string]string, len(session.Values))
	for k, v := range session.Values {
		result[k] = v
	}
	return result, nil
}
