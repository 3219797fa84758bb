// Package card builds the adaptive card summary document by substituting
// run content into a static JSON template.
package card

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// previewLength is the fixed truncation applied to long-form previews.
const previewLength = 200

// Build loads the template at templatePath, substitutes every ${token}
// placeholder with a JSON-escaped value from the run content, and
// returns the parsed card. Template problems are unexpected internal
// failures and are returned as errors.
func Build(templatePath, topic string, outputs types.Outputs, sources []types.Source) (*types.AdaptiveCard, error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read card template %s: %w", templatePath, err)
	}

	doc := string(raw)
	doc = substitute(doc, "topic", topic)
	doc = substitute(doc, "linkedin_post", truncate(outputs.LinkedIn.Text, previewLength))
	doc = substitute(doc, "twitter_post", outputs.X.Text)
	doc = substitute(doc, "teams_post", truncate(outputs.Teams.Text, previewLength))
	doc = substitute(doc, "source_1", sourceTitle(sources, 0))
	doc = substitute(doc, "source_2", sourceTitle(sources, 1))
	doc = substitute(doc, "source_3", sourceTitle(sources, 2))
	doc = substitute(doc, "research_url", sourceURL(sources, 0))

	var parsed map[string]any
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return nil, fmt.Errorf("card template produced invalid JSON after substitution: %w", err)
	}
	return &types.AdaptiveCard{JSON: parsed}, nil
}

func substitute(doc, token, value string) string {
	return strings.ReplaceAll(doc, "${"+token+"}", jsonSafe(value))
}

// jsonSafe escapes value for inclusion inside a JSON string literal:
// marshal the string and strip the surrounding quotes.
func jsonSafe(value string) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded[1 : len(encoded)-1])
}

func sourceTitle(sources []types.Source, i int) string {
	if i < len(sources) && sources[i].Title != "" {
		return sources[i].Title
	}
	return "N/A"
}

func sourceURL(sources []types.Source, i int) string {
	if i < len(sources) && sources[i].URL != "" {
		return sources[i].URL
	}
	return "https://example.com"
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
