package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hejaii/BidGenerate/internal/config"
	"github.com/Hejaii/BidGenerate/internal/pipeline"
)

var buildCommand = &cobra.Command{
	Use:   "build",
	Short: "Run the full bid generation pipeline end-to-end",
	Long: `Orchestrates the entire bid generation process: requirement loading -> knowledge indexing -> generation -> assembly -> markup conversion -> PDF compilation.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runBuildCmd,
}

var (
	buildConfigPath   string
	buildRequirements string
	buildKnowledge    string
	buildOutput       string
	buildWorkDir      string
	buildTemplate     string
	buildEndpoints    []string
	buildTopK         int
	buildWorkers      int
	buildAPIKey       string
	buildVerbose      bool
)

func init() {
	// Config file flag (processed first)
	buildCommand.Flags().StringVar(&buildConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	buildCommand.Flags().StringVarP(&buildRequirements, "requirements", "r", "", "Path to requirement list (.json or .csv)")
	buildCommand.Flags().StringVarP(&buildKnowledge, "knowledge", "k", "", "Path to knowledge-base directory")
	buildCommand.Flags().StringVarP(&buildOutput, "output", "o", "", "Path for the compiled PDF")
	buildCommand.Flags().StringVar(&buildWorkDir, "work-dir", "", "Working directory for cache and intermediates")
	buildCommand.Flags().StringVarP(&buildTemplate, "template", "t", "", "LaTeX template tried before the built-in chain")
	buildCommand.Flags().StringSliceVar(&buildEndpoints, "endpoints", nil, "Ordered model endpoints tried on failure")
	buildCommand.Flags().IntVar(&buildTopK, "top-k", 0, "Knowledge-base passages retrieved per requirement")
	buildCommand.Flags().IntVar(&buildWorkers, "workers", 0, "Concurrent requirement resolutions")
	buildCommand.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	buildCommand.Flags().StringVar(&buildAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(buildCommand)
}

func runBuildCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Load config file if provided
	var cfg config.Config
	if buildConfigPath != "" {
		loadedCfg, err := config.LoadConfig(buildConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if buildVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", buildConfigPath)
		}
	}

	// Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("requirements") {
		cfg.Requirements = buildRequirements
	}
	if cmd.Flags().Changed("knowledge") {
		cfg.KnowledgeDir = buildKnowledge
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = buildOutput
	}
	if cmd.Flags().Changed("work-dir") {
		cfg.WorkDir = buildWorkDir
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = buildTemplate
	}
	if cmd.Flags().Changed("endpoints") {
		cfg.Endpoints = buildEndpoints
	}
	if cmd.Flags().Changed("top-k") {
		cfg.TopK = buildTopK
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = buildWorkers
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = buildAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = buildVerbose
	}

	// Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		Output:  "bid.pdf",
		TopK:    5,
		Workers: 4,
	})

	// Validate required fields
	if cfg.Requirements == "" {
		return fmt.Errorf("--requirements is required (via flag or config)")
	}
	if cfg.KnowledgeDir == "" {
		return fmt.Errorf("--knowledge is required (via flag or config)")
	}

	// API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	_, err := pipeline.Run(ctx, pipeline.RunOptions{
		RequirementsPath: cfg.Requirements,
		KnowledgeDir:     cfg.KnowledgeDir,
		OutputPath:       cfg.Output,
		WorkDir:          cfg.WorkDir,
		TemplatePath:     cfg.Template,
		APIKey:           cfg.APIKey,
		Endpoints:        cfg.Endpoints,
		TopK:             cfg.TopK,
		Workers:          cfg.Workers,
		Verbose:          cfg.Verbose,
	})
	return err
}
