package variables

import (
	"context"
)

// Provider resolves variables dynamically at render time.
// Variables returned override static variables with the same key.
// Providers are called before each template render to inject context.
type Provider interface {
	// Name returns the provider identifier (for logging/debugging)
	Name() string

	// Provide returns variables to merge into the render context.
	Provide(ctx context.Context) (map[string]string, error)
}

// StaticProvider wraps a fixed variable map in the Provider interface.
type StaticProvider map[string]string

// Name returns the provider identifier.
func (p StaticProvider) Name() string {
	return "static"
}

// Provide returns the wrapped map.
func (p StaticProvider) Provide(ctx context.Context) (map[string]string, error) {
	return p, nil
}
