// Package suggest queries an external CLI for topic suggestions and
// parses its best-effort text output.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// DefaultQuestion is asked when the client does not supply one.
const DefaultQuestion = "Based on my recent meetings, emails, and Teams discussions from the past week, " +
	"what are the top 5 professional topics or themes I have been most involved with? " +
	"Return ONLY a JSON array of 5 short topic strings (each under 60 characters), " +
	"suitable as social media post topics for a Microsoft employee. " +
	`Example format: ["Topic one","Topic two","Topic three","Topic four","Topic five"]`

// QueryTimeout is the maximum time the suggestion CLI may run.
const QueryTimeout = 90 * time.Second

// maxSuggestions caps how many topics are returned.
const maxSuggestions = 5

// Line-itemization bounds: items shorter than minItemLength are noise,
// longer than maxItemLength are prose; fewer than minItemsNeeded means
// the strategy failed.
const (
	minItemLength  = 10
	maxItemLength  = 80
	minItemsNeeded = 3
)

var (
	arrayPattern = regexp.MustCompile(`\[[\s\S]*?\]`)
	bulletPrefix = regexp.MustCompile(`^[\s\-*•\d.]+`)
	boldMarkers  = strings.NewReplacer("**", "")
)

// Runner spawns the suggestion CLI. The command is split on whitespace;
// "ask -q <question>" is appended per invocation.
type Runner struct {
	command []string
	timeout time.Duration
}

// New creates a runner for the given command line, e.g.
// "npx -y @microsoft/workiq".
func New(command string) *Runner {
	return &Runner{
		command: strings.Fields(command),
		timeout: QueryTimeout,
	}
}

// Query spawns the CLI and returns its raw stdout. The CLI inherits the
// server's stdin: the tool refuses to produce output without a TTY.
func (r *Runner) Query(ctx context.Context, question string) (string, error) {
	if len(r.command) == 0 {
		return "", fmt.Errorf("suggestion command is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(append([]string(nil), r.command[1:]...), "ask", "-q", question)
	cmd := exec.CommandContext(ctx, r.command[0], args...)
	cmd.Stdin = os.Stdin

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("suggestion query timed out after %s", r.timeout)
	}

	raw := strings.TrimSpace(stdout.String())
	if raw != "" {
		return raw, nil
	}
	if err != nil {
		return "", fmt.Errorf("suggestion CLI failed: %w: %s", err, preview(stderr.String()))
	}
	return "", fmt.Errorf("suggestion CLI produced no output: %s", preview(stderr.String()))
}

// ExtractSuggestions parses up to five short topic strings from the CLI
// response. The underlying model may wrap the array in markdown fences
// or surrounding prose, so three strategies are tried in order: a JSON
// array anywhere in the text, cleaned bullet/numbered lines, and the
// static fallback list.
func ExtractSuggestions(text string) []string {
	if match := arrayPattern.FindString(text); match != "" {
		var parsed []string
		if err := json.Unmarshal([]byte(match), &parsed); err == nil && len(parsed) > 0 {
			if allStrings(parsed) {
				return clamp(parsed)
			}
		}
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		cleaned := strings.TrimSpace(boldMarkers.Replace(bulletPrefix.ReplaceAllString(line, "")))
		if len(cleaned) > minItemLength && len(cleaned) < maxItemLength && !strings.HasPrefix(cleaned, "##") {
			items = append(items, cleaned)
		}
		if len(items) >= maxSuggestions {
			break
		}
	}
	if len(items) >= minItemsNeeded {
		return clamp(items)
	}

	return FallbackSuggestions()
}

// FallbackSuggestions returns the static default topics.
func FallbackSuggestions() []string {
	return []string{
		"AI adoption challenges and change management",
		"Customer Zero initiative and use-case mapping",
		"Azure platform delivery and networking",
		"AI agent development and enablement",
		"Cloud-native infrastructure trends",
	}
}

func allStrings(items []string) bool {
	for _, s := range items {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

func clamp(items []string) []string {
	if len(items) > maxSuggestions {
		return items[:maxSuggestions]
	}
	return items
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 500 {
		return s[:500]
	}
	return s
}
