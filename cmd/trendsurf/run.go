package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/trendsurf-copilot/internal/observability"
	"github.com/jonathan/trendsurf-copilot/internal/pipeline"
	"github.com/jonathan/trendsurf-copilot/internal/registry"
	"github.com/jonathan/trendsurf-copilot/internal/types"
)

var (
	runBrand  string
	runMode   string
	runConfig string
)

var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Run the content pipeline once from the terminal",
	Long:  `Run the full pipeline for a topic synchronously and print the generated content, compliance checklist and sources.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runBrand, "brand", "FinGuard Capital", "Brand the content is generated for")
	runCmd.Flags().StringVar(&runMode, "mode", "", "Pipeline mode hint")
	runCmd.Flags().StringVar(&runConfig, "config", "", "Path to JSON config file")
	rootCmd.AddCommand(runCmd)
}

func runOnce(_ *cobra.Command, args []string) error {
	cfg, err := resolveConfig(runConfig)
	if err != nil {
		return err
	}

	reg := registry.New(0)
	defer reg.Stop()

	orch := pipeline.New(cfg, reg)
	run := orch.Run(args[0], runBrand, runMode)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintStageHistory(run.Stages)

	if run.Status == types.StatusError {
		return fmt.Errorf("run failed: %s", run.Error)
	}

	printer.PrintRunResult(run.Result)
	return nil
}
