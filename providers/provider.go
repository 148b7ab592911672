// Package providers implements multi-provider text generation with a
// unified interface.
//
// This package provides a common abstraction over external text-completion
// HTTP services. Two wire shapes are supported behind the same contract: a
// chat-completions API taking a system+user message pair (openrouter) and a
// single-prompt generation API (textgen). Provider-specific request and
// response envelopes are reconciled into the same GenerationResponse, and
// provider failures are normalized into the error taxonomy in errors.go.
package providers

import (
	"context"
	"time"
)

// GenerationRequest represents one request to a text-generation provider.
type GenerationRequest struct {
	// Prompt is the fully-rendered prompt text. Must be non-empty.
	Prompt string `json:"prompt"`

	// Model is the model identifier passed through to the provider.
	// Empty means the provider's configured default model.
	Model string `json:"model,omitempty"`

	// System optionally overrides the provider's default system prompt.
	// Only meaningful for chat-shaped providers.
	System string `json:"system,omitempty"`

	// Temperature and MaxTokens override provider defaults when non-zero.
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// GenerationResponse represents a normalized provider response.
type GenerationResponse struct {
	// Text is the primary candidate's text content. Always non-empty on
	// success; a response with no usable text is an EmptyResponse error,
	// not a success.
	Text string `json:"text"`

	// Model is the model that actually served the request, when reported.
	Model string `json:"model,omitempty"`

	// Token counts as reported by the provider, zero when unavailable.
	TokensIn  int `json:"tokens_in,omitempty"`
	TokensOut int `json:"tokens_out,omitempty"`

	Latency time.Duration `json:"latency"`

	// Raw is the unparsed provider response body, for debugging.
	Raw []byte `json:"raw,omitempty"`
}

// ProviderDefaults holds default parameters applied when a request leaves
// the corresponding field zero-valued.
type ProviderDefaults struct {
	Temperature float32
	MaxTokens   int
	System      string
}

// Provider is the contract for text-generation providers.
// Implementations make exactly one outbound call per Generate invocation,
// never retry, and keep no state between calls.
type Provider interface {
	ID() string

	// Generate sends one generation request and returns a normalized
	// response. Failures are returned as *Error values carrying an
	// ErrorKind (use AsError to inspect).
	Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error)

	// Close cleans up provider resources (e.g., HTTP connections).
	Close() error
}
