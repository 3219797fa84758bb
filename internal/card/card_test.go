package card

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trendsurf-copilot/internal/types"
)

const testTemplate = `{
  "type": "AdaptiveCard",
  "body": [
    {"type": "TextBlock", "text": "${topic}"},
    {"type": "TextBlock", "text": "${linkedin_post}"},
    {"type": "TextBlock", "text": "${twitter_post}"},
    {"type": "TextBlock", "text": "${teams_post}"},
    {"type": "TextBlock", "text": "${source_1} ${source_2} ${source_3}"}
  ],
  "actions": [{"type": "Action.OpenUrl", "url": "${research_url}"}]
}`

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.json")
	require.NoError(t, os.WriteFile(path, []byte(testTemplate), 0644))
	return path
}

func testOutputs(linkedin, x, teams string) types.Outputs {
	return types.Outputs{
		LinkedIn: types.ChannelOutput{Text: linkedin},
		X:        types.ChannelOutput{Text: x},
		Teams:    types.ChannelOutput{Text: teams},
	}
}

func TestBuildSubstitutesPlaceholders(t *testing.T) {
	sources := []types.Source{
		{Title: "First", URL: "https://first.example"},
		{Title: "Second", URL: "https://second.example"},
	}

	result, err := Build(writeTemplate(t), "AI Trends", testOutputs("li", "xx", "tm"), sources)
	require.NoError(t, err)
	require.NotNil(t, result)

	body := result.JSON["body"].([]any)
	assert.Equal(t, "AI Trends", body[0].(map[string]any)["text"])
	assert.Equal(t, "li", body[1].(map[string]any)["text"])
	assert.Equal(t, "First Second N/A", body[4].(map[string]any)["text"])

	actions := result.JSON["actions"].([]any)
	assert.Equal(t, "https://first.example", actions[0].(map[string]any)["url"])
}

func TestBuildEscapesQuotes(t *testing.T) {
	topic := `He said "hi"`

	result, err := Build(writeTemplate(t), topic, testOutputs("a \"quoted\" post\nwith newline", "x", "t"), nil)
	require.NoError(t, err)

	// Substitution survived JSON parsing and round-tripped the raw text.
	body := result.JSON["body"].([]any)
	assert.Equal(t, topic, body[0].(map[string]any)["text"])
	assert.Equal(t, "a \"quoted\" post\nwith newline", body[1].(map[string]any)["text"])
}

func TestBuildTruncatesPreviews(t *testing.T) {
	long := strings.Repeat("a", 500)

	result, err := Build(writeTemplate(t), "topic", testOutputs(long, long, long), nil)
	require.NoError(t, err)

	body := result.JSON["body"].([]any)
	assert.Len(t, body[1].(map[string]any)["text"], previewLength) // linkedin truncated
	assert.Len(t, body[2].(map[string]any)["text"], 500)           // x not truncated
	assert.Len(t, body[3].(map[string]any)["text"], previewLength) // teams truncated
}

func TestBuildMissingTemplate(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "missing.json"), "topic", types.Outputs{}, nil)
	assert.Error(t, err)
}

func TestBuildDefaultsWithoutSources(t *testing.T) {
	result, err := Build(writeTemplate(t), "topic", types.Outputs{}, nil)
	require.NoError(t, err)

	body := result.JSON["body"].([]any)
	assert.Equal(t, "N/A N/A N/A", body[4].(map[string]any)["text"])
	actions := result.JSON["actions"].([]any)
	assert.Equal(t, "https://example.com", actions[0].(map[string]any)["url"])
}

func TestRepoTemplateParses(t *testing.T) {
	path := filepath.Join("..", "..", "data", "adaptive_card_template.json")
	if _, err := os.Stat(path); err != nil {
		t.Skip("repo template not present")
	}

	result, err := Build(path, "topic", testOutputs("a", "b", "c"), []types.Source{{Title: "T", URL: "https://t.example"}})
	require.NoError(t, err)
	assert.Equal(t, "AdaptiveCard", result.JSON["type"])
}
