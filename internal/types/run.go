// Package types provides type definitions for structured data used throughout the trendsurf-copilot system.
package types

import (
	"time"
)

// Run status values. A run starts as StatusRunning and transitions exactly
// once to StatusComplete or StatusError.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusError    = "error"
)

// Stage names for the four pipeline phases, in execution order.
const (
	StageResearch   = "research"
	StageBrandGuard = "brand_guard"
	StageCopywriter = "copywriter"
	StageReviewer   = "reviewer"
)

// Stage event status values.
const (
	StageRunning = "running"
	StageSuccess = "success"
)

// StageOrder returns the fixed ordered set of pipeline phases.
func StageOrder() []string {
	return []string{StageResearch, StageBrandGuard, StageCopywriter, StageReviewer}
}

// StageEvent is one lifecycle transition record for a pipeline phase.
// A completed phase contributes two events: a running entry and a
// later success entry.
type StageEvent struct {
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Duration  float64    `json:"duration,omitempty"` // seconds
	Summary   string     `json:"summary,omitempty"`
}

// Run represents one execution of the content pipeline.
type Run struct {
	ID        string       `json:"runId"`
	Topic     string       `json:"topic"`
	Brand     string       `json:"brand"`
	Mode      string       `json:"mode,omitempty"`
	Status    string       `json:"status"`
	Stages    []StageEvent `json:"stages"`
	Result    *RunResult   `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   *time.Time   `json:"endedAt,omitempty"`
}

// Terminal reports whether the run has reached a terminal status.
func (r *Run) Terminal() bool {
	return r.Status == StatusComplete || r.Status == StatusError
}

// ChannelOutput is the generated text for one publishing channel.
type ChannelOutput struct {
	Text      string `json:"text"`
	CharCount int    `json:"charCount,omitempty"`
}

// Outputs holds the per-channel generated content: a long-form post,
// a short-form post with character count, and an internal digest.
type Outputs struct {
	LinkedIn ChannelOutput `json:"linkedin"`
	X        ChannelOutput `json:"x"`
	Teams    ChannelOutput `json:"teams"`
}

// ChecklistItem is one row of the compliance checklist.
type ChecklistItem struct {
	Item   string `json:"item"`
	Status string `json:"status"` // "pass" or "fail"
	Notes  string `json:"notes"`
}

// Compliance is the ordered compliance checklist plus disclaimers.
type Compliance struct {
	Checklist   []ChecklistItem `json:"checklist"`
	Disclaimers []string        `json:"disclaimers"`
}

// Source is a single citation record.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AdaptiveCard wraps the substituted card document.
type AdaptiveCard struct {
	JSON map[string]any `json:"json"`
}

// RunResult is the terminal payload for a completed run.
type RunResult struct {
	RunID        string            `json:"runId"`
	Topic        string            `json:"topic"`
	Brand        string            `json:"brand"`
	Stages       []StageEvent      `json:"stages"`
	Outputs      Outputs           `json:"outputs"`
	Compliance   Compliance        `json:"compliance"`
	Sources      []Source          `json:"sources"`
	Artifacts    map[string]string `json:"artifacts"`
	AdaptiveCard *AdaptiveCard     `json:"adaptiveCard,omitempty"`
}
