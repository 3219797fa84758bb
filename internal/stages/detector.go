// Package stages maps pipeline log output to discrete stage lifecycle
// transitions.
//
// Two input formats are understood. Pipelines that emit a structured
// line protocol (one JSON object per line with "stage" and "status"
// fields) are parsed unambiguously. Older pipelines that only print
// human-readable "STEP n" markers are handled by substring matching.
package stages

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// markers maps the literal log substrings emitted by the pipeline to
// semantic stage names.
var markers = map[string]string{
	"STEP 1": types.StageResearch,
	"STEP 2": types.StageBrandGuard,
	"STEP 3": types.StageCopywriter,
	"STEP 4": types.StageReviewer,
}

// structuredLine is the line-protocol form: {"stage": "...", "status": "..."}.
type structuredLine struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
}

// Detector inspects a live sequence of output lines and emits stage
// transitions through its sink. It is driven by a single goroutine
// (the process runner's stdout reader) and is not safe for concurrent
// use.
type Detector struct {
	sink func(types.StageEvent)
	now  func() time.Time

	current   string // name of the open phase, "" if none
	openedAt  time.Time
	completed map[string]bool
}

// NewDetector creates a detector that appends transitions via sink.
func NewDetector(sink func(types.StageEvent)) *Detector {
	return &Detector{
		sink:      sink,
		now:       time.Now,
		completed: make(map[string]bool),
	}
}

// Feed inspects one line of pipeline output.
func (d *Detector) Feed(line string) {
	if stage, ok := d.parseStructured(line); ok {
		d.transition(stage)
		return
	}

	// Markers are matched in fixed phase order.
	for _, name := range types.StageOrder() {
		marker := markerFor(name)
		if strings.Contains(line, marker) {
			d.transition(name)
			return
		}
	}
}

// Finish closes the open phase and synthetically covers any phase that
// was never detected, so every run's stage sequence always contains a
// running/success pair for all four phases.
func (d *Detector) Finish() {
	if d.current != "" {
		d.closeCurrent()
	}
	for _, name := range types.StageOrder() {
		if !d.completed[name] {
			d.open(name)
			d.closeCurrent()
		}
	}
}

// transition closes the open phase (if any) and opens stage. Markers
// for phases that already completed are ignored so a re-printed marker
// cannot re-open a closed phase.
func (d *Detector) transition(stage string) {
	if stage == d.current || d.completed[stage] {
		return
	}
	if d.current != "" {
		d.closeCurrent()
	}
	d.open(stage)
}

func (d *Detector) open(stage string) {
	d.current = stage
	d.openedAt = d.now().UTC()
	d.sink(types.StageEvent{
		Name:      stage,
		Status:    types.StageRunning,
		StartedAt: d.openedAt,
	})
}

func (d *Detector) closeCurrent() {
	ended := d.now().UTC()
	d.sink(types.StageEvent{
		Name:      d.current,
		Status:    types.StageSuccess,
		StartedAt: d.openedAt,
		EndedAt:   &ended,
		Duration:  ended.Sub(d.openedAt).Seconds(),
		Summary:   d.current + " completed",
	})
	d.completed[d.current] = true
	d.current = ""
}

func (d *Detector) parseStructured(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var sl structuredLine
	if err := json.Unmarshal([]byte(trimmed), &sl); err != nil {
		return "", false
	}
	if sl.Stage == "" || !validStage(sl.Stage) {
		return "", false
	}
	// Only a running transition opens a stage; the detector closes the
	// previous phase itself, so explicit success lines are redundant.
	if sl.Status != "" && sl.Status != types.StageRunning {
		return "", false
	}
	return sl.Stage, true
}

func validStage(name string) bool {
	for _, s := range types.StageOrder() {
		if s == name {
			return true
		}
	}
	return false
}

func markerFor(stage string) string {
	for marker, name := range markers {
		if name == stage {
			return marker
		}
	}
	return ""
}
