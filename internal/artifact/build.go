// Package artifact compiles converted markup into the final document,
// falling back across an ordered template chain until one compiles.
package artifact

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Hejaii/BidGenerate/internal/markup"
)

//go:embed templates/*.tex
var templateFiles embed.FS

// ContentMarker is the substitution point for the document body inside a
// template.
const ContentMarker = "%%CONTENT%%"

// TemplateDescriptor describes one candidate compilation template. Lower
// Priority is tried first.
type TemplateDescriptor struct {
	Name                 string
	Priority             int
	RequiredFontFeatures []string
	Source               string
}

// Artifact is a successfully compiled document
type Artifact struct {
	PDFPath      string
	TemplateName string
	Diagnostics  []TemplateFailure
}

// TemplateFailure records one template that failed to compile
type TemplateFailure struct {
	Template   string
	Diagnostic string
}

// BuildError is returned when every template in the chain failed. Every
// template's diagnostic is attached so the caller can fix the root cause.
type BuildError struct {
	Failures []TemplateFailure
}

func (e *BuildError) Error() string {
	var sb strings.Builder
	sb.WriteString("all templates failed")
	for _, f := range e.Failures {
		diag := f.Diagnostic
		if len(diag) > 200 {
			diag = diag[:200] + "..."
		}
		fmt.Fprintf(&sb, "; %s: %s", f.Template, diag)
	}
	return sb.String()
}

// DefaultChain returns the embedded template chain in priority order:
// full-featured CJK template, plain CJK template, minimal article fallback.
func DefaultChain() []TemplateDescriptor {
	return []TemplateDescriptor{
		{Name: "ctex-standard", Priority: 0, RequiredFontFeatures: []string{"cjk", "heiti"}, Source: "templates/ctex-standard.tex"},
		{Name: "ctex-plain", Priority: 1, RequiredFontFeatures: []string{"cjk"}, Source: "templates/ctex-plain.tex"},
		{Name: "minimal", Priority: 2, Source: "templates/minimal.tex"},
	}
}

// Builder produces the final artifact from converted markup
type Builder struct {
	compiler Compiler
	workDir  string
}

// NewBuilder creates a Builder compiling in workDir
func NewBuilder(compiler Compiler, workDir string) *Builder {
	return &Builder{compiler: compiler, workDir: workDir}
}

// Build tries each template in the chain in priority order: substitute the
// document body, compile, and return on the first success. Later templates are
// never tried after a success. Only when the whole chain is exhausted does
// Build fail, with every diagnostic attached.
func (b *Builder) Build(ctx context.Context, doc markup.Document, chain []TemplateDescriptor, outPath string) (*Artifact, error) {
	if len(chain) == 0 {
		chain = DefaultChain()
	}
	ordered := make([]TemplateDescriptor, len(chain))
	copy(ordered, chain)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	var failures []TemplateFailure

	for _, tmpl := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pdfPath, diag, err := b.tryTemplate(ctx, doc, &tmpl)
		if err != nil {
			failures = append(failures, TemplateFailure{Template: tmpl.Name, Diagnostic: diag})
			continue
		}

		if outPath != "" {
			if err := copyFile(pdfPath, outPath); err != nil {
				return nil, fmt.Errorf("failed to place artifact at %s: %w", outPath, err)
			}
			pdfPath = outPath
		}

		return &Artifact{PDFPath: pdfPath, TemplateName: tmpl.Name, Diagnostics: failures}, nil
	}

	return nil, &BuildError{Failures: failures}
}

// tryTemplate substitutes the body into one template and compiles it in a
// per-template subdirectory so failed attempts never contaminate later ones.
func (b *Builder) tryTemplate(ctx context.Context, doc markup.Document, tmpl *TemplateDescriptor) (string, string, error) {
	source, err := loadTemplate(tmpl)
	if err != nil {
		return "", err.Error(), err
	}
	if !strings.Contains(source, ContentMarker) {
		err := fmt.Errorf("template %s has no %s marker", tmpl.Name, ContentMarker)
		return "", err.Error(), err
	}

	workDir := filepath.Join(b.workDir, tmpl.Name)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", err.Error(), err
	}

	texPath := filepath.Join(workDir, "main.tex")
	filled := strings.Replace(source, ContentMarker, string(doc), 1)
	if err := os.WriteFile(texPath, []byte(filled), 0o644); err != nil {
		return "", err.Error(), err
	}

	pdfPath, logOutput, err := b.compiler.Compile(ctx, texPath, workDir)
	if err != nil {
		diag := logOutput
		if diag == "" {
			diag = err.Error()
		}
		return "", diag, err
	}
	return pdfPath, logOutput, nil
}

// loadTemplate reads a template from the embedded set or, for descriptors
// pointing outside it, from the file system.
func loadTemplate(tmpl *TemplateDescriptor) (string, error) {
	if data, err := templateFiles.ReadFile(tmpl.Source); err == nil {
		return string(data), nil
	}
	data, err := os.ReadFile(tmpl.Source)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", tmpl.Name, err)
	}
	return string(data), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
