package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/generation"
	"github.com/promptforge/promptforge/prompt"
	promptmemory "github.com/promptforge/promptforge/prompt/memory"
	"github.com/promptforge/promptforge/providers"
	"github.com/promptforge/promptforge/providers/mock"
	"github.com/promptforge/promptforge/statestore"
)

type testServer struct {
	handler  http.Handler
	prompts  *promptmemory.Store
	sessions *statestore.MemoryStore
	provider *mock.Provider
}

func newTestServer(t *testing.T, providerOpts ...mock.Option) *testServer {
	t.Helper()

	provider := mock.NewProvider("mock", "mock-model", providerOpts...)
	registry := providers.NewRegistry()
	registry.Register(provider)

	sessions := statestore.NewMemoryStore()
	proxy := generation.NewProxy(registry, "mock", generation.WithSessionStore(sessions))

	prompts := promptmemory.NewStore()
	prompts.Seed([]prompt.Prompt{{
		ID:        "p1",
		Title:     "Learning Explainer",
		Template:  "Explain {topic} to a {audience}",
		Tags:      []string{"learning"},
		CreatedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}})

	srv := NewServer(prompts, proxy, WithSessionStore(sessions))
	return &testServer{
		handler:  srv.Handler(),
		prompts:  prompts,
		sessions: sessions,
		provider: provider,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGenerate_EndToEnd(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/generate", map[string]string{
		"prompt": "Explain recursion to a beginner",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[generateResponse](t, rec)
	assert.Equal(t, "echo: Explain recursion to a beginner", resp.Text)
}

func TestGenerate_EmptyPromptIs400(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/generate", map[string]string{"prompt": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "Prompt text is required", resp.Error)
	assert.Equal(t, int64(0), ts.provider.Calls())
}

func TestGenerate_ErrorKindMapsToStatus(t *testing.T) {
	tests := []struct {
		kind       providers.ErrorKind
		message    string
		wantStatus int
	}{
		{providers.KindUnauthorized, "invalid api key", http.StatusUnauthorized},
		{providers.KindRateLimited, "quota exceeded", http.StatusTooManyRequests},
		{providers.KindContentRejected, "flagged by moderation", http.StatusUnprocessableEntity},
		{providers.KindEmptyResponse, "no candidate text", http.StatusBadGateway},
		{providers.KindNetworkError, "connection refused", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ts := newTestServer(t, mock.WithError(providers.NewError(tt.kind, tt.message)))

			rec := ts.do(t, http.MethodPost, "/api/generate", map[string]string{"prompt": "hi"})
			require.Equal(t, tt.wantStatus, rec.Code)

			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tt.message, resp.Error)
		})
	}
}

func TestGenerate_WithSessionReturnsSeq(t *testing.T) {
	ts := newTestServer(t)

	first := decode[generateResponse](t, ts.do(t, http.MethodPost, "/api/generate", map[string]string{
		"prompt":     "hi",
		"session_id": "sess-1",
	}))
	second := decode[generateResponse](t, ts.do(t, http.MethodPost, "/api/generate", map[string]string{
		"prompt":     "hi again",
		"session_id": "sess-1",
	}))
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
}

func TestListPrompts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/prompts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	prompts := decode[[]prompt.Prompt](t, rec)
	require.Len(t, prompts, 1)
	assert.Equal(t, "p1", prompts[0].ID)
}

func TestListPrompts_QueryFilter(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/prompts?q=learning", nil)
	assert.Len(t, decode[[]prompt.Prompt](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/prompts?q=nomatch", nil)
	assert.Len(t, decode[[]prompt.Prompt](t, rec), 0)
}

func TestGetPrompt(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/prompts/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[prompt.Prompt](t, rec)
	assert.Equal(t, "Learning Explainer", got.Title)

	rec = ts.do(t, http.MethodGet, "/api/prompts/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePrompt_AppliesFallbacks(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/prompts", map[string]any{
		"template": "Summarize {article}",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[prompt.Prompt](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Untitled Prompt", created.Title)
	assert.Equal(t, "general", created.Category)
}

func TestUpdatePrompt(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/prompts/p1", map[string]any{
		"title":    "Renamed",
		"template": "Explain {topic}",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode[prompt.Prompt](t, rec).Title)

	rec = ts.do(t, http.MethodPut, "/api/prompts/missing", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePrompt(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/api/prompts/p1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/prompts/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUseAndLikeCounters(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusNoContent, ts.do(t, http.MethodPost, "/api/prompts/p1/use", nil).Code)
	require.Equal(t, http.StatusNoContent, ts.do(t, http.MethodPost, "/api/prompts/p1/like", nil).Code)

	got := decode[prompt.Prompt](t, ts.do(t, http.MethodGet, "/api/prompts/p1", nil))
	assert.Equal(t, 1, got.UsageCount)
	assert.Equal(t, 1, got.Likes)
}

func TestRenderPrompt(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/prompts/p1/render", map[string]any{
		"values": map[string]string{"topic": "recursion"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[renderResponse](t, rec)
	assert.Equal(t, "Explain recursion to a {audience}", resp.Rendered)
	assert.Equal(t, []string{"audience"}, resp.Missing)
}

func TestRenderPrompt_AllFilled(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/prompts/p1/render", map[string]any{
		"values": map[string]string{"topic": "recursion", "audience": "beginner"},
	})
	resp := decode[renderResponse](t, rec)
	assert.Equal(t, "Explain recursion to a beginner", resp.Rendered)
	assert.Empty(t, resp.Missing)
}

func TestRenderPrompt_SessionValues(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/sessions/sess-1/values", map[string]any{
		"values":    map[string]string{"topic": "go", "audience": "beginner"},
		"prompt_id": "p1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Session values fill the gaps; explicit request values win.
	rec = ts.do(t, http.MethodPost, "/api/prompts/p1/render", map[string]any{
		"values":     map[string]string{"topic": "recursion"},
		"session_id": "sess-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[renderResponse](t, rec)
	assert.Equal(t, "Explain recursion to a beginner", resp.Rendered)
	assert.Empty(t, resp.Missing)
}

func TestRenderPrompt_UnknownSessionContributesNothing(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/prompts/p1/render", map[string]any{
		"values":     map[string]string{"topic": "recursion"},
		"session_id": "never-created",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[renderResponse](t, rec)
	assert.Equal(t, "Explain recursion to a {audience}", resp.Rendered)
	assert.Equal(t, []string{"audience"}, resp.Missing)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// First PUT creates the session.
	rec := ts.do(t, http.MethodPut, "/api/sessions/sess-1/values", map[string]any{
		"values":    map[string]string{"topic": "go"},
		"prompt_id": "p1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Second PUT merges, later values winning.
	rec = ts.do(t, http.MethodPut, "/api/sessions/sess-1/values", map[string]any{
		"values": map[string]string{"topic": "rust", "audience": "beginner"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[statestore.Session](t, ts.do(t, http.MethodGet, "/api/sessions/sess-1", nil))
	assert.Equal(t, "rust", got.Values["topic"])
	assert.Equal(t, "beginner", got.Values["audience"])

	require.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/sessions/sess-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/sessions/sess-1", nil).Code)
}

func TestSessionEndpoints_WithoutStore(t *testing.T) {
	provider := mock.NewProvider("mock", "mock-model")
	registry := providers.NewRegistry()
	registry.Register(provider)
	srv := NewServer(promptmemory.NewStore(), generation.NewProxy(registry, "mock"))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestInvalidBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
