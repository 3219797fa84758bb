package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trendsurf-copilot/internal/config"
	"github.com/jonathan/trendsurf-copilot/internal/pipeline"
	"github.com/jonathan/trendsurf-copilot/internal/registry"
	"github.com/jonathan/trendsurf-copilot/internal/suggest"
	"github.com/jonathan/trendsurf-copilot/internal/types"
)

const testCardTemplate = `{
	"type": "AdaptiveCard",
	"version": "1.5",
	"body": [{"type": "TextBlock", "text": "${topic}"}]
}`

// newTestServer wires a server whose pipeline interpreter cannot be
// spawned, so background runs drain into fallback content immediately.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()

	tpl := filepath.Join(root, "card_template.json")
	require.NoError(t, os.WriteFile(tpl, []byte(testCardTemplate), 0644))

	cfg := &config.Config{
		Port:           8080,
		PipelineRoot:   root,
		PipelineScript: "main.py",
		PythonPath:     filepath.Join(root, "no-such-interpreter"),
		OutputDir:      "output",
		TimeoutSeconds: 10,
		CardTemplate:   tpl,
	}

	reg := registry.New(0)
	return &Server{
		registry:     reg,
		orchestrator: pipeline.New(cfg, reg),
		suggester:    suggest.New(""),
	}
}

func TestHandleCreateRun(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/runs", strings.NewReader(`{"topic": "AI Agents", "brand": "FinGuard Capital"}`))
	rec := httptest.NewRecorder()
	s.handleCreateRun(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp types.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "started", resp.Status)
	assert.Equal(t, "Pipeline execution started", resp.Message)

	run, _, ok := s.registry.Snapshot(resp.RunID)
	require.True(t, ok)
	assert.Equal(t, "AI Agents", run.Topic)
	assert.Equal(t, "FinGuard Capital", run.Brand)
}

func TestHandleCreateRunMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no topic", body: `{"brand": "FinGuard Capital"}`, want: "Missing required fields: topic"},
		{name: "no brand", body: `{"topic": "AI Agents"}`, want: "Missing required fields: brand"},
		{name: "empty body", body: `{}`, want: "Missing required fields: topic, brand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			req := httptest.NewRequest("POST", "/runs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.handleCreateRun(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp["error"])
		})
	}
}

func TestHandleCreateRunInvalidJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/runs", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handleCreateRun(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestHandleGetRun(t *testing.T) {
	s := newTestServer(t)
	s.registry.Create("run-1", "Topic", "Brand", "")

	req := httptest.NewRequest("GET", "/runs/run-1", nil)
	req.SetPathValue("runId", "run-1")
	rec := httptest.NewRecorder()
	s.handleGetRun(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var run types.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, types.StatusRunning, run.Status)
}

func TestHandleGetRunNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/runs/unknown", nil)
	req.SetPathValue("runId", "unknown")
	rec := httptest.NewRecorder()
	s.handleGetRun(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Run not found")
}

func TestHandleTopicSuggestionsUnconfigured(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/topic-suggestions", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.handleTopicSuggestions(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error       string   `json:"error"`
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to query topic suggestions", resp.Error)
	assert.Len(t, resp.Suggestions, 5)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	handler := s.withCORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight should not reach the next handler")
	}))

	req := httptest.NewRequest("OPTIONS", "/runs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestValidationErrorPassthrough(t *testing.T) {
	req := types.RunRequest{}
	err := req.Validate()
	require.Error(t, err)

	verr := validationError(err)
	assert.Equal(t, "Missing required fields: topic, brand", verr.Message)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(verr))
}
