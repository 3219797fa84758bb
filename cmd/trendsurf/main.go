// Package main provides the entry point for the TrendSurf Copilot server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trendsurf",
	Short: "TrendSurf Copilot content pipeline server",
	Long:  "TrendSurf Copilot orchestrates a multi-stage content-generation pipeline (research, brand guard, copywriter, reviewer) and streams run progress to clients over SSE.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
