package server

import (
	"log"
	"net/http"

	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// stageEvent is the wire form of one stage transition.
type stageEvent struct {
	Type          string            `json:"type"`
	RunID         string            `json:"runId"`
	Stage         string            `json:"stage"`
	Status        string            `json:"status"`
	Summary       string            `json:"summary,omitempty"`
	Timestamps    stageTimestamps   `json:"timestamps"`
	ArtifactPaths map[string]string `json:"artifactPaths"`
	Input         map[string]any    `json:"input"`
	Output        map[string]any    `json:"output"`
	Artifacts     map[string]any    `json:"artifacts"`
	Citations     []types.Source    `json:"citations"`
}

type stageTimestamps struct {
	StartedAt string  `json:"startedAt"`
	EndedAt   string  `json:"endedAt,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

type completeEvent struct {
	Type   string           `json:"type"`
	RunID  string           `json:"runId"`
	Result *types.RunResult `json:"result"`
}

type errorEvent struct {
	Type    string `json:"type"`
	RunID   string `json:"runId,omitempty"`
	Message string `json:"message"`
}

// handleRunEvents streams a run's stage transitions and terminal result
// as server-sent events. Stage events are replayed from the beginning
// in append order, so late and repeated subscribers observe the same
// sequence. The loop blocks on registry change notification; there is
// no polling interval.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runId")

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, _, ok := s.registry.Snapshot(runID); !ok {
		sse.WriteError("", "Run not found")
		return
	}

	sent := 0
	for {
		run, version, ok := s.registry.Snapshot(runID)
		if !ok {
			// Evicted mid-stream.
			log.Printf("[sse] run %s evicted during streaming", runID)
			return
		}

		for _, ev := range run.Stages[sent:] {
			if err := sse.WriteData(newStageEvent(runID, ev)); err != nil {
				return
			}
		}
		sent = len(run.Stages)

		switch run.Status {
		case types.StatusComplete:
			sse.WriteData(completeEvent{Type: "complete", RunID: runID, Result: run.Result}) //nolint:errcheck
			return
		case types.StatusError:
			sse.WriteError(runID, run.Error)
			return
		}

		select {
		case <-s.registry.Changed(runID, version):
		case <-r.Context().Done():
			// Client disconnected; the pipeline keeps running.
			return
		}
	}
}

func newStageEvent(runID string, ev types.StageEvent) stageEvent {
	ts := stageTimestamps{
		StartedAt: ev.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		Duration:  ev.Duration,
	}
	if ev.EndedAt != nil {
		ts.EndedAt = ev.EndedAt.Format("2006-01-02T15:04:05.000Z07:00")
	}
	return stageEvent{
		Type:       "stage_event",
		RunID:      runID,
		Stage:      ev.Name,
		Status:     ev.Status,
		Summary:    ev.Summary,
		Timestamps: ts,
		ArtifactPaths: map[string]string{
			"output": "output/" + ev.Name + ".md",
		},
		Input:     map[string]any{},
		Output:    map[string]any{},
		Artifacts: map[string]any{},
		Citations: []types.Source{},
	}
}
