package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/trendsurf-copilot/internal/types"
)

func collect(events *[]types.StageEvent) func(types.StageEvent) {
	return func(ev types.StageEvent) {
		*events = append(*events, ev)
	}
}

func TestDetectMarkersInOrder(t *testing.T) {
	var events []types.StageEvent
	d := NewDetector(collect(&events))

	d.Feed("📡 STEP 1: Research Agent — Searching for trends...")
	d.Feed("some intermediate output")
	d.Feed("🛡️  STEP 2: Brand Guard Agent — Checking compliance...")
	d.Feed("✍️  STEP 3: Copywriter Agent — Drafting posts...")
	d.Feed("🔍 STEP 4: Reviewer Agent — Final quality check...")
	d.Finish()

	// Every phase contributes one running and one success entry.
	require.Len(t, events, 8)
	wantOrder := []struct {
		name   string
		status string
	}{
		{types.StageResearch, types.StageRunning},
		{types.StageResearch, types.StageSuccess},
		{types.StageBrandGuard, types.StageRunning},
		{types.StageBrandGuard, types.StageSuccess},
		{types.StageCopywriter, types.StageRunning},
		{types.StageCopywriter, types.StageSuccess},
		{types.StageReviewer, types.StageRunning},
		{types.StageReviewer, types.StageSuccess},
	}
	for i, want := range wantOrder {
		assert.Equal(t, want.name, events[i].Name, "event %d", i)
		assert.Equal(t, want.status, events[i].Status, "event %d", i)
	}
}

func TestSuccessClosesWithTimestamps(t *testing.T) {
	var events []types.StageEvent
	d := NewDetector(collect(&events))

	d.Feed("STEP 1")
	d.Feed("STEP 2")

	require.Len(t, events, 3)
	closed := events[1]
	assert.Equal(t, types.StageSuccess, closed.Status)
	require.NotNil(t, closed.EndedAt)
	assert.False(t, closed.EndedAt.Before(closed.StartedAt))
	assert.Equal(t, "research completed", closed.Summary)
}

func TestRepeatedMarkerDoesNotReopen(t *testing.T) {
	var events []types.StageEvent
	d := NewDetector(collect(&events))

	d.Feed("STEP 1")
	d.Feed("STEP 2")
	d.Feed("STEP 1") // already completed; ignored
	d.Feed("STEP 2") // currently open; ignored
	d.Finish()

	running := map[string]int{}
	success := map[string]int{}
	for _, ev := range events {
		if ev.Status == types.StageRunning {
			running[ev.Name]++
		} else {
			success[ev.Name]++
		}
	}
	for _, name := range types.StageOrder() {
		assert.Equal(t, 1, running[name], "running count for %s", name)
		assert.Equal(t, 1, success[name], "success count for %s", name)
	}
}

func TestFinishCoversUndetectedStages(t *testing.T) {
	var events []types.StageEvent
	d := NewDetector(collect(&events))

	// No markers at all (e.g. the pipeline crashed before logging).
	d.Finish()

	require.Len(t, events, 8)
	seen := map[string]bool{}
	for _, ev := range events {
		seen[ev.Name+"/"+ev.Status] = true
	}
	for _, name := range types.StageOrder() {
		assert.True(t, seen[name+"/"+types.StageRunning], "missing running for %s", name)
		assert.True(t, seen[name+"/"+types.StageSuccess], "missing success for %s", name)
	}
}

func TestStructuredLineProtocol(t *testing.T) {
	var events []types.StageEvent
	d := NewDetector(collect(&events))

	d.Feed(`{"stage": "research", "status": "running"}`)
	d.Feed(`{"stage": "brand_guard", "status": "running"}`)

	require.Len(t, events, 3)
	assert.Equal(t, types.StageResearch, events[0].Name)
	assert.Equal(t, types.StageSuccess, events[1].Status)
	assert.Equal(t, types.StageBrandGuard, events[2].Name)
}

func TestStructuredLineIgnoresUnknownStage(t *testing.T) {
	var events []types.StageEvent
	d := NewDetector(collect(&events))

	d.Feed(`{"stage": "deployment", "status": "running"}`)
	d.Feed(`{"not": "a stage line"}`)

	assert.Empty(t, events)
}

func TestMixedProtocols(t *testing.T) {
	var events []types.StageEvent
	d := NewDetector(collect(&events))

	d.Feed(`{"stage": "research", "status": "running"}`)
	d.Feed("STEP 2: Brand Guard")
	d.Finish()

	require.Len(t, events, 8)
	assert.Equal(t, types.StageResearch, events[0].Name)
	assert.Equal(t, types.StageBrandGuard, events[2].Name)
}
