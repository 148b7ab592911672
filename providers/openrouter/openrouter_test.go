package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/providers"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := NewProvider("openrouter", "openai/gpt-3.5-turbo", Config{
		APIKey:  "sk-or-test-key",
		BaseURL: baseURL,
		SiteAttributionHeaders: map[string]string{
			"HTTP-Referer": "https://promptforge.example.com",
			"X-Title":      "PromptForge",
		},
	}, providers.ProviderDefaults{})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider("openrouter", "openai/gpt-3.5-turbo", Config{
		BaseURL: "https://openrouter.ai/api/v1",
	}, providers.ProviderDefaults{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewProvider_RequiresBaseURL(t *testing.T) {
	_, err := NewProvider("openrouter", "openai/gpt-3.5-turbo", Config{
		APIKey: "sk-or-test-key",
	}, providers.ProviderDefaults{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")
}

func TestGenerate_Success(t *testing.T) {
	var captured chatRequest
	var capturedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := chatResponse{
			ID:    "gen-123",
			Model: "openai/gpt-3.5-turbo",
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "Generated text."}, FinishReason: "stop"},
			},
			Usage: chatUsage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.Generate(context.Background(), providers.GenerationRequest{
		Prompt: "Explain recursion to a beginner",
	})
	require.NoError(t, err)

	assert.Equal(t, "Generated text.", resp.Text)
	assert.Equal(t, "openai/gpt-3.5-turbo", resp.Model)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 4, resp.TokensOut)

	// Wire format: system + user pair with default parameters.
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, defaultSystemPrompt, captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "Explain recursion to a beginner", captured.Messages[1].Content)
	assert.Equal(t, float32(defaultTemperature), captured.Temperature)
	assert.Equal(t, defaultMaxTokens, captured.MaxTokens)

	assert.Equal(t, "Bearer sk-or-test-key", capturedHeaders.Get("Authorization"))
	assert.Equal(t, "https://promptforge.example.com", capturedHeaders.Get("HTTP-Referer"))
	assert.Equal(t, "PromptForge", capturedHeaders.Get("X-Title"))
}

func TestGenerate_RequestModelOverridesDefault(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), providers.GenerationRequest{
		Prompt: "hi",
		Model:  "anthropic/claude-3-haiku",
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku", captured.Model)
}

func TestGenerate_RateLimitedWithProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded for this key"}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)

	genErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindRateLimited, genErr.Kind)
	assert.Equal(t, "quota exceeded for this key", genErr.Message)
}

func TestGenerate_UnauthorizedMapsKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)

	genErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindUnauthorized, genErr.Kind)
}

func TestGenerate_FallbackMessageWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream unavailable`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)

	genErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindProviderError, genErr.Kind)
	assert.Equal(t, "API Error: 502 Bad Gateway", genErr.Message)
	assert.Equal(t, http.StatusBadGateway, genErr.ProviderStatus)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Model: "openai/gpt-3.5-turbo"})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)

	genErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindEmptyResponse, genErr.Kind)
}

func TestGenerate_ErrorInsideOKEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"moderation flagged the prompt"}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)

	genErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindContentRejected, genErr.Kind)
	assert.Equal(t, "moderation flagged the prompt", genErr.Message)
}

func TestGenerate_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)

	genErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindNetworkError, genErr.Kind)
}
