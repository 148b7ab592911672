package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/promptforge/promptforge/generation"
	"github.com/promptforge/promptforge/logger"
	"github.com/promptforge/promptforge/metrics/prometheus"
	"github.com/promptforge/promptforge/prompt"
	"github.com/promptforge/promptforge/providers"
	"github.com/promptforge/promptforge/statestore"
	"github.com/promptforge/promptforge/template"
	"github.com/promptforge/promptforge/variables"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeGenerationError maps a normalized generation error to its HTTP
// status, surfacing the provider's own message.
func writeGenerationError(w http.ResponseWriter, err error) {
	if genErr, ok := providers.AsError(err); ok {
		writeError(w, genErr.HTTPStatus(), genErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// writeStoreError maps store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prompt.ErrNotFound):
		writeError(w, http.StatusNotFound, "Prompt not found")
	case errors.Is(err, prompt.ErrInvalidPrompt):
		writeError(w, http.StatusBadRequest, "Invalid prompt")
	default:
		logger.Error("store operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// --- generation ---

type generateRequest struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
	Seq  uint64 `json:"seq,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		logger.Debug("generation request", "trace_id", sc.TraceID().String(), "model", req.Model)
	}

	result, err := s.proxy.Generate(r.Context(), generation.Request{
		PromptText: req.Prompt,
		Model:      req.Model,
		SessionID:  req.SessionID,
	})
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Text: result.Text, Seq: result.Seq})
}

// --- prompts ---

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	opts := prompt.ListOptions{
		Query:    r.URL.Query().Get("q"),
		AuthorID: r.URL.Query().Get("user"),
	}

	prompts, err := s.prompts.GetAll(r.Context(), opts)
	if err != nil {
		prometheus.RecordStoreOperation("list", "error")
		writeStoreError(w, err)
		return
	}
	prometheus.RecordStoreOperation("list", "success")

	if prompts == nil {
		prompts = []prompt.Prompt{}
	}
	writeJSON(w, http.StatusOK, prompts)
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.prompts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		prometheus.RecordStoreOperation("get", "error")
		writeStoreError(w, err)
		return
	}
	prometheus.RecordStoreOperation("get", "success")
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	var p prompt.Prompt
	if !decodeBody(w, r, &p) {
		return
	}

	if err := s.prompts.Create(r.Context(), &p); err != nil {
		prometheus.RecordStoreOperation("create", "error")
		writeStoreError(w, err)
		return
	}
	prometheus.RecordStoreOperation("create", "success")
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var p prompt.Prompt
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = r.PathValue("id")

	if err := s.prompts.Update(r.Context(), &p); err != nil {
		prometheus.RecordStoreOperation("update", "error")
		writeStoreError(w, err)
		return
	}
	prometheus.RecordStoreOperation("update", "success")
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.prompts.Delete(r.Context(), r.PathValue("id")); err != nil {
		prometheus.RecordStoreOperation("delete", "error")
		writeStoreError(w, err)
		return
	}
	prometheus.RecordStoreOperation("delete", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUsePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.prompts.IncrementUsage(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLikePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.prompts.Like(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- render preview ---

type renderRequest struct {
	Values map[string]string `json:"values"`

	// SessionID pulls in the values previously saved for that session.
	// Explicit request values win over session values.
	SessionID string `json:"session_id,omitempty"`
}

type renderResponse struct {
	Rendered string   `json:"rendered"`
	Missing  []string `json:"missing"`
}

// handleRenderPrompt renders a stored prompt's template with the given
// values. Unfilled placeholders stay in the output and are reported in
// the missing list so clients can highlight them.
func (s *Server) handleRenderPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.prompts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var req renderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	values := req.Values
	if req.SessionID != "" && s.sessions != nil {
		merged, err := variables.Chain(
			variables.NewSessionProvider(s.sessions, req.SessionID),
			variables.StaticProvider(req.Values),
		).Provide(r.Context())
		if err != nil {
			logger.Error("session variable lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		values = merged
	}

	rendered := s.renderer.Render(p.Template, values)
	missing := s.renderer.ExtractPlaceholderNames(rendered)
	prometheus.RecordRender(len(missing) == 0)

	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, renderResponse{Rendered: rendered, Missing: missing})
}

// --- sessions ---

type sessionValuesRequest struct {
	Values map[string]string `json:"values"`
	// PromptID ties a fresh session to the prompt being filled.
	PromptID string `json:"prompt_id,omitempty"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "Session storage is not configured")
		return
	}

	session, err := s.sessions.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handlePutSessionValues merges values into the session, creating it on
// first use.
func (s *Server) handlePutSessionValues(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "Session storage is not configured")
		return
	}

	var req sessionValuesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	session, err := s.sessions.Load(r.Context(), id)
	if errors.Is(err, statestore.ErrNotFound) {
		session = statestore.NewSession(id, req.PromptID)
		prometheus.RecordSessionCreated()
	} else if err != nil {
		writeSessionError(w, err)
		return
	}

	session.Values = template.MergeVars(session.Values, req.Values)
	if err := s.sessions.Save(r.Context(), session); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "Session storage is not configured")
		return
	}

	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeSessionError(w, err)
		return
	}
	prometheus.RecordSessionDeleted()
	w.WriteHeader(http.StatusNoContent)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, statestore.ErrNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, statestore.ErrInvalidID), errors.Is(err, statestore.ErrInvalidSession):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("session operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// --- health ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
