// Package main provides the entry point for the Work Journal HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Work Journal HTTP API Server",
	Long:  "Work Journal captures day-to-day accomplishments, rewrites them into resume-ready bullets, and assembles tailored resumes for specific job postings via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
