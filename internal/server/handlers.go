package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/trendsurf-copilot/internal/suggest"
	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// handleCreateRun accepts a topic/brand pair and starts a pipeline run
// in the background.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req types.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		verr := validationError(err)
		s.errorResponse(w, HTTPStatus(verr), verr.Message)
		return
	}

	runID := s.orchestrator.Start(req.Topic, req.Brand, req.Mode)
	log.Printf("Starting pipeline run %s (topic %q)", runID, req.Topic)

	s.jsonResponse(w, http.StatusAccepted, types.RunResponse{
		RunID:   runID,
		Status:  "started",
		Message: "Pipeline execution started",
	})
}

// handleGetRun returns a point-in-time snapshot of a run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runId")
	if runID == "" {
		s.errorResponse(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	run, _, ok := s.registry.Snapshot(runID)
	if !ok {
		s.errorResponse(w, HTTPStatus(&ErrRunNotFound{RunID: runID}), "Run not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, run)
}

// handleTopicSuggestions spawns the suggestion CLI and returns up to
// five short topic strings parsed from its output.
func (s *Server) handleTopicSuggestions(w http.ResponseWriter, r *http.Request) {
	var req types.SuggestionRequest
	// Body is optional; a missing or malformed body falls back to the default question.
	_ = json.NewDecoder(r.Body).Decode(&req)

	question := req.Question
	if question == "" {
		question = suggest.DefaultQuestion
	}

	raw, err := s.suggester.Query(r.Context(), question)
	if err != nil {
		log.Printf("[suggest] %v", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"error":       "Failed to query topic suggestions",
			"details":     err.Error(),
			"suggestions": suggest.FallbackSuggestions(),
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, types.SuggestionResponse{
		Suggestions: suggest.ExtractSuggestions(raw),
		Raw:         raw,
	})
}

// validationError turns validator output into the client-facing
// validation error with the missing-fields message.
func validationError(err error) *ErrValidation {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		missing := ""
		for _, fe := range verrs {
			if missing != "" {
				missing += ", "
			}
			switch fe.Field() {
			case "Topic":
				missing += "topic"
			case "Brand":
				missing += "brand"
			default:
				missing += fe.Field()
			}
		}
		return &ErrValidation{Field: missing, Message: "Missing required fields: " + missing}
	}
	return &ErrValidation{Message: "Invalid request: " + err.Error()}
}
