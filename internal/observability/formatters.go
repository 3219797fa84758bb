// Package observability provides formatted output utilities for the CLI front.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/trendsurf-copilot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewLength is how much channel text is shown per box
	previewLength = 160
)

// Printer handles formatted output for CLI runs
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintStageHistory outputs the run's stage transitions.
func (p *Printer) PrintStageHistory(stages []types.StageEvent) {
	var sb strings.Builder
	for _, ev := range stages {
		if ev.Status == types.StageSuccess {
			sb.WriteString(fmt.Sprintf("%-12s done  (%.1fs)\n", ev.Name, ev.Duration))
		} else {
			sb.WriteString(fmt.Sprintf("%-12s %s\n", ev.Name, ev.Status))
		}
	}
	p.printBox("Pipeline Stages", strings.TrimRight(sb.String(), "\n"))
}

// PrintRunResult outputs a human-readable summary of a completed run.
func (p *Printer) PrintRunResult(result *types.RunResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Topic:  %s\n", result.Topic))
	sb.WriteString(fmt.Sprintf("Brand:  %s\n", result.Brand))
	sb.WriteString("\n")
	sb.WriteString("LinkedIn:\n")
	sb.WriteString(preview(result.Outputs.LinkedIn.Text) + "\n\n")
	sb.WriteString("X/Twitter:\n")
	sb.WriteString(preview(result.Outputs.X.Text) + "\n\n")
	sb.WriteString("Teams:\n")
	sb.WriteString(preview(result.Outputs.Teams.Text))
	p.printBox("Generated Content", sb.String())

	sb.Reset()
	for _, item := range result.Compliance.Checklist {
		mark := "x"
		if item.Status == "pass" {
			mark = "+"
		}
		sb.WriteString(fmt.Sprintf("[%s] %-24s %s\n", mark, item.Item, item.Notes))
	}
	p.printBox("Compliance Checklist", strings.TrimRight(sb.String(), "\n"))

	sb.Reset()
	for _, src := range result.Sources {
		sb.WriteString(fmt.Sprintf("%s\n    %s\n", src.Title, src.URL))
	}
	p.printBox("Sources", strings.TrimRight(sb.String(), "\n"))
}

func preview(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return text
}
