package types

import (
	"github.com/go-playground/validator/v10"
)

// RunRequest represents the request body for POST /runs.
type RunRequest struct {
	Topic string `json:"topic" validate:"required,min=1"`
	Brand string `json:"brand" validate:"required,min=1"`
	Mode  string `json:"mode,omitempty"`
}

// RunResponse represents the response for POST /runs.
type RunResponse struct {
	RunID   string `json:"runId"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SuggestionRequest represents the request body for POST /topic-suggestions.
type SuggestionRequest struct {
	Question string `json:"question,omitempty"`
}

// SuggestionResponse represents the response for POST /topic-suggestions.
type SuggestionResponse struct {
	Suggestions []string `json:"suggestions"`
	Raw         string   `json:"raw"`
}

// Validate validates the RunRequest using the validator.
func (r *RunRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
