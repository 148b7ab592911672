// Package textgen provides a provider for single-prompt text generation
// endpoints, the simpler wire shape used by self-hosted generation
// servers. The request carries one prompt string rather than a chat
// message list.
package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/promptforge/promptforge/credentials"
	"github.com/promptforge/promptforge/logger"
	"github.com/promptforge/promptforge/providers"
)

const generatePath = "/generate"

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
)

// Config holds the explicit configuration for a textgen provider.
type Config struct {
	// APIKey authenticates against the endpoint. Optional; self-hosted
	// endpoints commonly run without auth.
	APIKey string

	// BaseURL is the endpoint root. Required; there is no well-known
	// public default for self-hosted servers.
	BaseURL string
}

// Provider implements providers.Provider against a single-prompt
// generation endpoint.
type Provider struct {
	providers.BaseProvider
	model    string
	baseURL  string
	defaults providers.ProviderDefaults
}

// NewProvider creates a textgen provider.
func NewProvider(id, model string, cfg Config, defaults providers.ProviderDefaults) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("textgen provider %s: base URL is required", id)
	}

	var cred credentials.Credential = &credentials.NoOpCredential{}
	if cfg.APIKey != "" {
		cred = credentials.NewAPIKeyCredential(cfg.APIKey)
	}
	base := providers.NewBaseProvider(id, &http.Client{Timeout: 60 * time.Second}, cred)

	return &Provider{
		BaseProvider: base,
		model:        model,
		baseURL:      cfg.BaseURL,
		defaults:     defaults,
	}, nil
}

func init() {
	providers.RegisterProviderFactory("textgen", func(spec providers.ProviderSpec) (providers.Provider, error) {
		apiKey := ""
		if keyed, ok := spec.Credential.(*credentials.APIKeyCredential); ok {
			apiKey = keyed.APIKey()
		}
		return NewProvider(spec.ID, spec.Model, Config{
			APIKey:  apiKey,
			BaseURL: spec.BaseURL,
		}, spec.Defaults)
	})
}

type textgenRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type textgenResponse struct {
	Output string `json:"output"`
	Model  string `json:"model,omitempty"`
	Usage  struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate sends one generation request and normalizes the response.
func (p *Provider) Generate(ctx context.Context, req providers.GenerationRequest) (providers.GenerationResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	prompt := req.Prompt
	if req.System != "" {
		// Single-prompt endpoints have no system slot; prepend it.
		prompt = req.System + "\n\n" + req.Prompt
	}

	body := textgenRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: p.temperature(req),
		MaxTokens:   p.maxTokens(req),
	}

	logger.GenerationCall(p.ID(), model, len(prompt))
	start := time.Now()

	status, respBytes, err := p.MakeJSONRequest(ctx, p.baseURL+generatePath, body, nil, "TextGen")
	if err != nil {
		logger.GenerationError(p.ID(), model, err)
		return providers.GenerationResponse{}, err
	}

	if status < 200 || status >= 300 {
		genErr := providers.ClassifyHTTPError(status, respBytes)
		logger.GenerationError(p.ID(), model, genErr)
		return providers.GenerationResponse{Raw: respBytes}, genErr
	}

	var parsed textgenResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return providers.GenerationResponse{Raw: respBytes},
			providers.NewError(providers.KindProviderError, "failed to parse provider response: "+err.Error())
	}

	if parsed.Output == "" {
		genErr := providers.NewError(providers.KindEmptyResponse, "provider returned no output text")
		logger.GenerationError(p.ID(), model, genErr)
		return providers.GenerationResponse{Raw: respBytes}, genErr
	}

	latency := time.Since(start)
	logger.GenerationResult(p.ID(), model, len(parsed.Output), latency.Milliseconds())

	respModel := parsed.Model
	if respModel == "" {
		respModel = model
	}

	return providers.GenerationResponse{
		Text:      parsed.Output,
		Model:     respModel,
		TokensIn:  parsed.Usage.InputTokens,
		TokensOut: parsed.Usage.OutputTokens,
		Latency:   latency,
		Raw:       respBytes,
	}, nil
}

func (p *Provider) temperature(req providers.GenerationRequest) float32 {
	if req.Temperature != 0 {
		return req.Temperature
	}
	if p.defaults.Temperature != 0 {
		return p.defaults.Temperature
	}
	return defaultTemperature
}

func (p *Provider) maxTokens(req providers.GenerationRequest) int {
	if req.MaxTokens != 0 {
		return req.MaxTokens
	}
	if p.defaults.MaxTokens != 0 {
		return p.defaults.MaxTokens
	}
	return defaultMaxTokens
}
