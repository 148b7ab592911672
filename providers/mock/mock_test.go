package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/providers"
)

func TestGenerate_EchoesPrompt(t *testing.T) {
	p := NewProvider("mock", "mock-model")

	resp, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", resp.Text)
	assert.Equal(t, "mock-model", resp.Model)
	assert.Equal(t, int64(1), p.Calls())
}

func TestGenerate_FixedText(t *testing.T) {
	p := NewProvider("mock", "mock-model", WithFixedText("always this"))

	resp, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "always this", resp.Text)
}

func TestGenerate_ScriptedError(t *testing.T) {
	scripted := providers.NewError(providers.KindRateLimited, "quota exceeded")
	p := NewProvider("mock", "mock-model", WithError(scripted))

	_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)

	genErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindRateLimited, genErr.Kind)
	assert.Equal(t, int64(1), p.Calls())
}

func TestGenerate_CountsCalls(t *testing.T) {
	p := NewProvider("mock", "mock-model")

	for i := 0; i < 3; i++ {
		_, err := p.Generate(context.Background(), providers.GenerationRequest{Prompt: "x"})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), p.Calls())
}

func TestGenerate_RegisteredFactory(t *testing.T) {
	p, err := providers.CreateProviderFromSpec(providers.ProviderSpec{
		ID:    "mock-1",
		Type:  "mock",
		Model: "mock-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "mock-1", p.ID())
}
