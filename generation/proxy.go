// Package generation implements the generation proxy: it forwards
// rendered prompt text to a configured text-generation provider and
// normalizes the outcome. The proxy owns cross-provider concerns
// (input validation, provider selection, sequence numbering, metrics)
// while the providers package owns wire formats.
package generation

import (
	"context"
	"strings"
	"time"

	"github.com/promptforge/promptforge/logger"
	"github.com/promptforge/promptforge/metrics/prometheus"
	"github.com/promptforge/promptforge/providers"
	"github.com/promptforge/promptforge/statestore"
)

// Request is one generation request.
type Request struct {
	// PromptText is the rendered prompt. Whitespace-only text is
	// rejected before any provider call.
	PromptText string `json:"prompt_text"`

	// ProviderID selects a registered provider. Empty means the
	// proxy's default provider.
	ProviderID string `json:"provider_id,omitempty"`

	// Model is passed through to the provider; empty means the
	// provider's configured default.
	Model string `json:"model,omitempty"`

	// SessionID ties the request to a variable session. When set, the
	// result carries that session's next sequence number so clients
	// can discard results from superseded requests.
	SessionID string `json:"session_id,omitempty"`

	System      string  `json:"system,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Result is a successful generation outcome.
type Result struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`

	TokensIn  int `json:"tokens_in,omitempty"`
	TokensOut int `json:"tokens_out,omitempty"`

	// Seq is the session's sequence number for this generation, zero
	// when the request carried no session.
	Seq uint64 `json:"seq,omitempty"`
}

// Proxy routes generation requests to registered providers.
type Proxy struct {
	registry          *providers.Registry
	defaultProviderID string
	sessions          statestore.Store
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithSessionStore enables sequence numbering against the given store.
func WithSessionStore(store statestore.Store) Option {
	return func(p *Proxy) {
		p.sessions = store
	}
}

// NewProxy creates a generation proxy. defaultProviderID is used when a
// request doesn't name a provider.
func NewProxy(registry *providers.Registry, defaultProviderID string, opts ...Option) *Proxy {
	p := &Proxy{
		registry:          registry,
		defaultProviderID: defaultProviderID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate validates the request, forwards it to the selected provider
// and returns the normalized result. All failures are *providers.Error
// values.
func (p *Proxy) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.PromptText) == "" {
		return nil, providers.NewError(providers.KindInvalidRequest, "Prompt text is required")
	}

	providerID := req.ProviderID
	if providerID == "" {
		providerID = p.defaultProviderID
	}
	provider, ok := p.registry.Get(providerID)
	if !ok {
		return nil, providers.NewError(providers.KindInvalidRequest, "unknown provider: "+providerID)
	}

	start := time.Now()
	resp, err := provider.Generate(ctx, providers.GenerationRequest{
		Prompt:      req.PromptText,
		Model:       req.Model,
		System:      req.System,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		genErr, ok := providers.AsError(err)
		if !ok {
			genErr = providers.NewError(providers.KindProviderError, err.Error())
		}
		prometheus.RecordGeneration(providerID, req.Model, string(genErr.Kind), elapsed)
		return nil, genErr
	}

	prometheus.RecordGeneration(providerID, resp.Model, "success", elapsed)
	prometheus.RecordGenerationTokens(providerID, resp.Model, resp.TokensIn, resp.TokensOut)

	result := &Result{
		Text:      resp.Text,
		Model:     resp.Model,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
	}

	if req.SessionID != "" && p.sessions != nil {
		seq, seqErr := p.sessions.NextSeq(ctx, req.SessionID)
		if seqErr != nil {
			// The generated text is still good; log and return it
			// without a sequence number.
			logger.Warn("failed to advance session sequence",
				"session_id", req.SessionID, "error", seqErr)
		} else {
			result.Seq = seq
		}
	}

	return result, nil
}
