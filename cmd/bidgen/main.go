// Package main provides the entry point for the bid response generator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bidgen",
	Short: "Tender bid response generator",
	Long:  "bidgen assembles tender bid response documents from a requirement list and a local knowledge base, generating missing sections with an LLM and compiling the result to PDF.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
