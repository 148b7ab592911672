package providers

import (
	"github.com/promptforge/promptforge/credentials"
)

// Registry manages available providers.
type Registry struct {
	providers map[string]Provider
}

// ProviderFactory is a function that creates a provider from a spec.
type ProviderFactory func(spec ProviderSpec) (Provider, error)

var providerFactories = make(map[string]ProviderFactory)

// RegisterProviderFactory registers a factory function for a provider type.
// Provider subpackages call this from init; importing a subpackage makes
// its type available to CreateProviderFromSpec.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	r.providers[provider.ID()] = provider
}

// Get retrieves a provider by ID.
func (r *Registry) Get(id string) (Provider, bool) {
	provider, exists := r.providers[id]
	return provider, exists
}

// List returns all registered provider IDs.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

// Close closes all registered providers and cleans up their resources.
func (r *Registry) Close() error {
	for _, provider := range r.providers {
		if err := provider.Close(); err != nil {
			return err
		}
	}
	return nil
}

// ProviderSpec holds the configuration needed to create a provider instance.
// All configuration is explicit; providers never read ambient process
// environment themselves.
type ProviderSpec struct {
	ID      string
	Type    string
	Model   string
	BaseURL string

	// Credential authenticates outbound calls. Resolved by the caller
	// (see the credentials package), typically from configuration.
	Credential credentials.Credential

	// AttributionHeaders are extra headers identifying the calling site
	// (e.g. HTTP-Referer, X-Title for OpenRouter rankings).
	AttributionHeaders map[string]string

	Defaults ProviderDefaults
}

// CreateProviderFromSpec creates a provider implementation from a spec.
// Returns an error if the provider type is unsupported.
func CreateProviderFromSpec(spec ProviderSpec) (Provider, error) {
	if spec.BaseURL == "" {
		switch spec.Type {
		case "openrouter":
			spec.BaseURL = "https://openrouter.ai/api/v1"
		case "textgen", "mock":
			// No default base URL; textgen requires an explicit one.
		}
	}

	factory, exists := providerFactories[spec.Type]
	if !exists {
		return nil, &UnsupportedProviderError{ProviderType: spec.Type}
	}

	return factory(spec)
}

// UnsupportedProviderError is returned when a provider type is not recognized.
type UnsupportedProviderError struct {
	ProviderType string
}

func (e *UnsupportedProviderError) Error() string {
	return "unsupported provider type: " + e.ProviderType
}
