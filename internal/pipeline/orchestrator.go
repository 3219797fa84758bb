// Package pipeline provides the high-level orchestration for one content
// generation run: spawn the external pipeline, annotate the run with
// stage transitions as output arrives, resolve the result artifact and
// publish the terminal state to the registry.
package pipeline

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/trendsurf-copilot/internal/card"
	"github.com/jonathan/trendsurf-copilot/internal/config"
	"github.com/jonathan/trendsurf-copilot/internal/registry"
	"github.com/jonathan/trendsurf-copilot/internal/resolver"
	"github.com/jonathan/trendsurf-copilot/internal/runner"
	"github.com/jonathan/trendsurf-copilot/internal/schemas"
	"github.com/jonathan/trendsurf-copilot/internal/stages"
	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// stderrPreview caps how much captured stderr is logged on failure.
const stderrPreview = 500

// Orchestrator starts and drives pipeline runs. Each run owns exactly
// one external process and is the sole writer of its registry entry.
type Orchestrator struct {
	cfg *config.Config
	reg *registry.Registry

	// execute is swappable for tests.
	execute func(runID, topic, brand, mode string)
}

// New creates an orchestrator bound to a registry.
func New(cfg *config.Config, reg *registry.Registry) *Orchestrator {
	o := &Orchestrator{cfg: cfg, reg: reg}
	o.execute = o.run
	return o
}

// Start registers a new run and launches its pipeline in the background.
// It returns immediately with the run id.
func (o *Orchestrator) Start(topic, brand, mode string) string {
	runID := uuid.New().String()
	o.reg.Create(runID, topic, brand, mode)

	go o.execute(runID, topic, brand, mode)

	return runID
}

// Run executes one pipeline synchronously and returns the terminal run
// state. Used by the CLI front.
func (o *Orchestrator) Run(topic, brand, mode string) types.Run {
	runID := uuid.New().String()
	o.reg.Create(runID, topic, brand, mode)
	o.execute(runID, topic, brand, mode)
	run, _, _ := o.reg.Snapshot(runID)
	return run
}

// run drives one external process to completion and publishes the
// terminal state. Process and parse failures are absorbed into fallback
// content; only unexpected internal failures (e.g. a missing card
// template) mark the run as errored.
func (o *Orchestrator) run(runID, topic, brand, mode string) {
	detector := stages.NewDetector(func(ev types.StageEvent) {
		o.reg.AppendStage(runID, ev)
	})

	command := o.cfg.PythonPath
	if command == "" {
		command = runner.ResolvePython(o.cfg.Root())
	}

	log.Printf("[pipeline] spawning: %s -u %s %q (run %s)", command, o.cfg.ScriptPath(), topic, runID)

	res := runner.Run(context.Background(), runner.Spec{
		Command:  command,
		Args:     []string{"-u", o.cfg.ScriptPath(), topic},
		Dir:      o.cfg.Root(),
		EnvFile:  o.cfg.EnvFile(),
		Timeout:  o.cfg.Timeout(),
		OnOutput: detector.Feed,
	})

	// Every run covers all four phases even when the log format did
	// not match expectations.
	detector.Finish()

	switch {
	case res.TimedOut:
		log.Printf("[pipeline] run %s timed out after %s", runID, o.cfg.Timeout())
	case res.ExitCode != 0:
		log.Printf("[pipeline] run %s exited %d, stderr: %s", runID, res.ExitCode, preview(res.Stderr))
	default:
		log.Printf("[pipeline] run %s completed successfully", runID)
	}

	// The schema may live relative to wherever the server was started;
	// an unresolvable schema skips the gate rather than failing the run.
	schemaPath := ""
	if o.cfg.ResultSchema != "" {
		schemaPath = schemas.ResolveSchemaPath(o.cfg.ResultSchema)
	}

	resolution := resolver.Resolve(topic, res.ExitCode, o.cfg.ResultPath(), schemaPath)
	if resolution.Fallback {
		log.Printf("[pipeline] run %s using fallback content", runID)
	}

	adaptiveCard, err := card.Build(o.cfg.CardTemplate, topic, resolution.Outputs, resolution.Sources)
	if err != nil {
		log.Printf("[pipeline] run %s card build failed: %v", runID, err)
		o.reg.Fail(runID, err.Error())
		return
	}

	snapshot, _, ok := o.reg.Snapshot(runID)
	if !ok {
		// Evicted while the process was draining; nothing left to publish.
		return
	}

	o.reg.Complete(runID, &types.RunResult{
		RunID:        runID,
		Topic:        topic,
		Brand:        brand,
		Stages:       snapshot.Stages,
		Outputs:      resolution.Outputs,
		Compliance:   resolution.Compliance,
		Sources:      resolution.Sources,
		Artifacts:    resolution.Artifacts,
		AdaptiveCard: adaptiveCard,
	})
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrPreview {
		return s[:stderrPreview]
	}
	return s
}
