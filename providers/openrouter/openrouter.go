// Package openrouter provides OpenRouter chat-completions provider
// integration. OpenRouter fronts many hosted models behind an
// OpenAI-compatible chat API, selected by model identifier
// (e.g. "openai/gpt-3.5-turbo").
package openrouter

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

const chatCompletionsPath = "/chat/completions"

// defaultSystemPrompt is sent when neither the request nor the provider
// defaults carry one.
const defaultSystemPrompt = "You are a helpful AI assistant that provides clear, concise, and accurate responses."

// Default request parameters when neither the request nor the provider
// defaults carry them.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
)

// Config holds the explicit configuration for an OpenRouter provider.
// Absence of a required field is a construction-time error, not a
// per-request surprise.
type Config struct {
	// APIKey is the bearer credential. Required.
	APIKey string

	// BaseURL is the API root, e.g. "https://openrouter.ai/api/v1". Required.
	BaseURL string

	// SiteAttributionHeaders identify the calling site to OpenRouter
	// (HTTP-Referer, X-Title). Optional.
	SiteAttributionHeaders map[string]string
}

// Provider implements providers.Provider against OpenRouter's
// chat-completions endpoint.
type Provider struct {
	providers.BaseProvider
	model    string
	baseURL  string
	headers  map[string]string
	defaults providers.ProviderDefaults
}

// NewProvider creates an OpenRouter provider. The model is the default
// model identifier used when a request doesn't name one.
func NewProvider(id, model string, cfg Config, defaults providers.ProviderDefaults) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter provider %s: API key is required", id)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openrouter provider %s: base URL is required", id)
	}

	cred := credentials.NewAPIKeyCredential(cfg.APIKey)
	base := providers.NewBaseProvider(id, &http.Client{Timeout: 60 * time.Second}, cred)

	return &Provider{
		BaseProvider: base,
		model:        model,
		baseURL:      cfg.BaseURL,
		headers:      cfg.SiteAttributionHeaders,
		defaults:     defaults,
	}, nil
}

func init() {
	providers.RegisterProviderFactory("openrouter", func(spec providers.ProviderSpec) (providers.Provider, error) {
		apiKey := ""
		if keyed, ok := spec.Credential.(*credentials.APIKeyCredential); ok {
			apiKey = keyed.APIKey()
		}
		return NewProvider(spec.ID, spec.Model, Config{
			APIKey:                 apiKey,
			BaseURL:                spec.BaseURL,
			SiteAttributionHeaders: spec.AttributionHeaders,
		}, spec.Defaults)
	})
}

// OpenRouter API request/response structures (OpenAI-compatible format)
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

// Generate sends one chat-completion request and normalizes the response.
func (p *Provider) Generate(ctx context.Context, req providers.GenerationRequest) (providers.GenerationResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: p.systemPrompt(req)},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: p.temperature(req),
		MaxTokens:   p.maxTokens(req),
	}

	logger.GenerationCall(p.ID(), model, len(req.Prompt))
	start := time.Now()

	status, respBytes, err := p.MakeJSONRequest(ctx, p.baseURL+chatCompletionsPath, body, p.headers, "OpenRouter")
	if err != nil {
		logger.GenerationError(p.ID(), model, err)
		return providers.GenerationResponse{}, err
	}

	if status < 200 || status >= 300 {
		genErr := providers.ClassifyHTTPError(status, respBytes)
		logger.GenerationError(p.ID(), model, genErr)
		return providers.GenerationResponse{Raw: respBytes}, genErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return providers.GenerationResponse{Raw: respBytes},
			providers.NewError(providers.KindProviderError, "failed to parse provider response: "+err.Error())
	}

	// Some providers report errors inside a 200 envelope.
	if parsed.Error != nil && parsed.Error.Message != "" {
		genErr := providers.ClassifyHTTPError(status, respBytes)
		logger.GenerationError(p.ID(), model, genErr)
		return providers.GenerationResponse{Raw: respBytes}, genErr
	}

	text := ""
	if len(parsed.Choices) > 0 {
		text = parsed.Choices[0].Message.Content
	}
	if text == "" {
		genErr := providers.NewError(providers.KindEmptyResponse, "provider returned no candidate text")
		logger.GenerationError(p.ID(), model, genErr)
		return providers.GenerationResponse{Raw: respBytes}, genErr
	}

	latency := time.Since(start)
	logger.GenerationResult(p.ID(), model, len(text), latency.Milliseconds())

	respModel := parsed.Model
	if respModel == "" {
		respModel = model
	}

	return providers.GenerationResponse{
		Text:      text,
		Model:     respModel,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
		Latency:   latency,
		Raw:       respBytes,
	}, nil
}

func (p *Provider) systemPrompt(req providers.GenerationRequest) string {
	if req.System != "" {
		return req.System
	}
	if p.defaults.System != "" {
		return p.defaults.System
	}
	return defaultSystemPrompt
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
