// Package mock provides a scripted in-memory provider for tests and
// local development. It never touches the network.
package mock

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/promptforge/promptforge/providers"
)

// Provider is a deterministic providers.Provider. By default it echoes
// the prompt back with a prefix; fixed text or a scripted error can be
// configured instead.
type Provider struct {
	id        string
	model     string
	prefix    string
	fixedText string
	err       error
	delay     time.Duration
	calls     atomic.Int64
}

// Option configures a mock Provider.
type Option func(*Provider)

// WithFixedText makes every call return the given text instead of an echo.
func WithFixedText(text string) Option {
	return func(p *Provider) {
		p.fixedText = text
	}
}

// WithError makes every call fail with err.
func WithError(err error) Option {
	return func(p *Provider) {
		p.err = err
	}
}

// WithPrefix overrides the echo prefix.
func WithPrefix(prefix string) Option {
	return func(p *Provider) {
		p.prefix = prefix
	}
}

// WithDelay simulates provider latency. The delay respects context
// cancellation.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) {
		p.delay = d
	}
}

// NewProvider creates a mock provider.
func NewProvider(id, model string, opts ...Option) *Provider {
	p := &Provider{
		id:     id,
		model:  model,
		prefix: "echo: ",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func init() {
	providers.RegisterProviderFactory("mock", func(spec providers.ProviderSpec) (providers.Provider, error) {
		return NewProvider(spec.ID, spec.Model), nil
	})
}

// Generate returns the scripted response.
func (p *Provider) Generate(ctx context.Context, req providers.GenerationRequest) (providers.GenerationResponse, error) {
	p.calls.Add(1)

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return providers.GenerationResponse{}, providers.NetworkError(ctx.Err())
		}
	}

	if p.err != nil {
		return providers.GenerationResponse{}, p.err
	}

	text := p.fixedText
	if text == "" {
		text = p.prefix + req.Prompt
	}

	return providers.GenerationResponse{
		Text:      text,
		Model:     p.model,
		TokensIn:  len(strings.Fields(req.Prompt)),
		TokensOut: len(strings.Fields(text)),
	}, nil
}

// ID returns the provider identifier.
func (p *Provider) ID() string {
	return p.id
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}

// Calls reports how many times Generate has been invoked.
func (p *Provider) Calls() int64 {
	return p.calls.Load()
}
