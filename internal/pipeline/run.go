// Package pipeline provides the high-level orchestration for the bid response generation process.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Hejaii/BidGenerate/internal/artifact"
	"github.com/Hejaii/BidGenerate/internal/assembly"
	"github.com/Hejaii/BidGenerate/internal/cache"
	"github.com/Hejaii/BidGenerate/internal/knowledge"
	"github.com/Hejaii/BidGenerate/internal/llm"
	"github.com/Hejaii/BidGenerate/internal/markup"
	"github.com/Hejaii/BidGenerate/internal/observability"
	"github.com/Hejaii/BidGenerate/internal/requirements"
	"github.com/Hejaii/BidGenerate/internal/resolver"
	"github.com/Hejaii/BidGenerate/internal/types"
)

// Step identifiers used in progress events
const (
	StepRequirements = "requirements"
	StepKnowledge    = "knowledge_index"
	StepCache        = "response_cache"
	StepFragments    = "fragments"
	StepDocument     = "document"
	StepMarkup       = "markup"
	StepArtifact     = "artifact"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	RequirementsPath string
	KnowledgeDir     string
	OutputPath       string
	WorkDir          string
	TemplatePath     string
	APIKey           string
	Endpoints        []string
	TopK             int
	Workers          int
	Verbose          bool
	OnProgress       ProgressCallback

	// Generator and Compiler override the remote client and the LaTeX
	// toolchain. Nil selects the real implementations.
	Generator resolver.Generator
	Compiler  artifact.Compiler
}

// Result summarizes a completed pipeline run
type Result struct {
	RunID            string
	ArtifactPath     string
	TemplateName     string
	Fragments        []types.Fragment
	PlaceholderCount int
}

// defaultWorkers bounds concurrent requirement resolutions
const defaultWorkers = 4

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, runID, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:    step,
			Message: message,
			RunID:   runID,
			Content: content,
		})
	}
}

// runMeta is persisted alongside the intermediates for later inspection
type runMeta struct {
	RunID            string    `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Requirements     int       `json:"requirements"`
	IndexedDocuments int       `json:"indexed_documents"`
	Placeholders     int       `json:"placeholders"`
	Template         string    `json:"template"`
	Artifact         string    `json:"artifact"`
}

// Run orchestrates the full bid response generation pipeline
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	printer := observability.NewPrinter(os.Stdout)
	runID := uuid.New().String()
	startedAt := time.Now()

	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "bidgen")
	}
	runDir := filepath.Join(opts.WorkDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	// Step 1: Load and validate the requirement list
	fmt.Printf("Step 1/7: Loading requirements from %s...\n", opts.RequirementsPath)
	reqs, err := requirements.Load(opts.RequirementsPath)
	if err != nil {
		return nil, fmt.Errorf("loading requirements failed: %w", err)
	}
	if opts.Verbose {
		printer.PrintRequirements(reqs)
	}
	emitProgress(&opts, runID, StepRequirements,
		fmt.Sprintf("Loaded %d requirements", len(reqs)), nil)

	// Step 2: Scan the knowledge base
	fmt.Printf("Step 2/7: Indexing knowledge base at %s...\n", opts.KnowledgeDir)
	index, err := knowledge.Build(opts.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("knowledge base indexing failed: %w", err)
	}
	if opts.Verbose {
		printer.PrintKnowledgeIndex(index)
	}
	for _, w := range index.Warnings() {
		fmt.Printf("Warning: %s\n", w)
	}
	emitProgress(&opts, runID, StepKnowledge,
		fmt.Sprintf("Indexed %d documents", index.Len()), nil)

	// Step 3: Open the durable response cache
	fmt.Printf("Step 3/7: Opening response cache...\n")
	store, err := cache.Open(filepath.Join(opts.WorkDir, "cache"))
	if err != nil {
		return nil, fmt.Errorf("opening response cache failed: %w", err)
	}
	emitProgress(&opts, runID, StepCache, "Response cache ready", nil)

	// Wire the generator
	generator := opts.Generator
	if generator == nil {
		client, err := llm.NewGeminiClient(ctx, opts.APIKey)
		if err != nil {
			return nil, fmt.Errorf("initializing generation client failed: %w", err)
		}
		defer client.Close()

		generator = llm.NewOrchestrator(client, store, llm.OrchestratorConfig{
			Endpoints: opts.Endpoints,
			Warn: func(format string, args ...any) {
				fmt.Printf("Warning: "+format+"\n", args...)
			},
		})
	}

	// Step 4: Resolve every requirement into a fragment
	fmt.Printf("Step 4/7: Resolving %d requirements...\n", len(reqs))
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	res := resolver.New(index, generator, opts.TopK, llm.DefaultOptions())
	fragments, err := res.ResolveAll(ctx, reqs, workers)
	if err != nil {
		return nil, fmt.Errorf("resolving requirements failed: %w", err)
	}
	if opts.Verbose {
		printer.PrintFragments(fragments)
	}
	emitProgress(&opts, runID, StepFragments,
		fmt.Sprintf("Resolved %d fragments", len(fragments)), nil)

	// Step 5: Merge fragments into the ordered document body
	fmt.Printf("Step 5/7: Assembling document...\n")
	body, err := assembly.Assemble(fragments)
	if err != nil {
		return nil, fmt.Errorf("assembling document failed: %w", err)
	}
	if n := body.PlaceholderCount(); n > 0 {
		fmt.Printf("Warning: %d sections are pending and carry placeholder text\n", n)
	}
	mergedPath := filepath.Join(runDir, "merged.md")
	if err := os.WriteFile(mergedPath, []byte(body.Text), 0o644); err != nil {
		return nil, fmt.Errorf("writing merged document failed: %w", err)
	}
	emitProgress(&opts, runID, StepDocument,
		fmt.Sprintf("Assembled %d sections", len(body.Fragments)), nil)

	// Steps 6 and 7: Convert to LaTeX and compile through the template chain
	fmt.Printf("Step 6/7: Converting markup...\n")
	doc := markup.Convert(body.Text)
	bodyTexPath := filepath.Join(runDir, "body.tex")
	if err := os.WriteFile(bodyTexPath, []byte(doc), 0o644); err != nil {
		return nil, fmt.Errorf("writing converted markup failed: %w", err)
	}
	emitProgress(&opts, runID, StepMarkup, "Converted document to LaTeX", nil)

	fmt.Printf("Step 7/7: Compiling artifact...\n")
	compiler := opts.Compiler
	if compiler == nil {
		compiler = artifact.LatexmkCompiler{}
	}
	chain := artifact.DefaultChain()
	if opts.TemplatePath != "" {
		chain = append([]artifact.TemplateDescriptor{
			{Name: "custom", Priority: -1, Source: opts.TemplatePath},
		}, chain...)
	}
	builder := artifact.NewBuilder(compiler, filepath.Join(runDir, "build"))
	art, err := builder.Build(ctx, doc, chain, opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("building artifact failed: %w", err)
	}
	if opts.Verbose {
		printer.PrintArtifact(art)
	}
	emitProgress(&opts, runID, StepArtifact,
		fmt.Sprintf("Compiled %s with template %s", art.PDFPath, art.TemplateName), nil)

	meta := runMeta{
		RunID:            runID,
		StartedAt:        startedAt,
		FinishedAt:       time.Now(),
		Requirements:     len(reqs),
		IndexedDocuments: index.Len(),
		Placeholders:     body.PlaceholderCount(),
		Template:         art.TemplateName,
		Artifact:         art.PDFPath,
	}
	if data, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(runDir, "meta.json"), data, 0o644)
	}

	fmt.Printf("Done! Artifact written to %s\n", art.PDFPath)

	return &Result{
		RunID:            runID,
		ArtifactPath:     art.PDFPath,
		TemplateName:     art.TemplateName,
		Fragments:        fragments,
		PlaceholderCount: body.PlaceholderCount(),
	}, nil
}
