package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hejaii/BidGenerate/internal/markup"
)

// scriptedCompiler fails for templates named in failing and succeeds otherwise
type scriptedCompiler struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   []string
}

func (s *scriptedCompiler) Compile(_ context.Context, texPath, workDir string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	template := filepath.Base(workDir)
	s.calls = append(s.calls, template)

	if s.failing[template] {
		return "", "! LaTeX Error: something broke in " + template, &CompilationError{
			Message:   "compilation produced no PDF",
			LogOutput: "! LaTeX Error: something broke in " + template,
		}
	}

	pdfPath := filepath.Join(workDir, "main.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		return "", "", err
	}
	_ = texPath
	return pdfPath, "Output written on main.pdf", nil
}

func testChain() []TemplateDescriptor {
	return []TemplateDescriptor{
		{Name: "ctex-standard", Priority: 0, Source: "templates/ctex-standard.tex"},
		{Name: "ctex-plain", Priority: 1, Source: "templates/ctex-plain.tex"},
		{Name: "minimal", Priority: 2, Source: "templates/minimal.tex"},
	}
}

func TestBuild_FirstTemplateSucceeds(t *testing.T) {
	compiler := &scriptedCompiler{}
	builder := NewBuilder(compiler, t.TempDir())

	artifact, err := builder.Build(context.Background(), markup.Document(`\section{A}`), testChain(), "")
	require.NoError(t, err)

	assert.Equal(t, "ctex-standard", artifact.TemplateName)
	assert.Empty(t, artifact.Diagnostics)
	assert.Equal(t, []string{"ctex-standard"}, compiler.calls, "later templates are never tried after a success")
}

func TestBuild_FallsBackThroughChain(t *testing.T) {
	compiler := &scriptedCompiler{failing: map[string]bool{"ctex-standard": true, "ctex-plain": true}}
	builder := NewBuilder(compiler, t.TempDir())

	artifact, err := builder.Build(context.Background(), markup.Document(`\section{A}`), testChain(), "")
	require.NoError(t, err)

	assert.Equal(t, "minimal", artifact.TemplateName)
	require.Len(t, artifact.Diagnostics, 2)
	assert.Equal(t, "ctex-standard", artifact.Diagnostics[0].Template)
	assert.Equal(t, "ctex-plain", artifact.Diagnostics[1].Template)
	assert.Contains(t, artifact.Diagnostics[0].Diagnostic, "LaTeX Error")
}

func TestBuild_AllTemplatesFailed(t *testing.T) {
	compiler := &scriptedCompiler{failing: map[string]bool{"ctex-standard": true, "ctex-plain": true, "minimal": true}}
	builder := NewBuilder(compiler, t.TempDir())

	_, err := builder.Build(context.Background(), markup.Document(`\section{A}`), testChain(), "")
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Len(t, buildErr.Failures, 3)
}

func TestBuild_SubstitutesContentIntoTemplate(t *testing.T) {
	compiler := &scriptedCompiler{}
	workDir := t.TempDir()
	builder := NewBuilder(compiler, workDir)

	_, err := builder.Build(context.Background(), markup.Document(`\section{Irrigation}`), testChain(), "")
	require.NoError(t, err)

	tex, err := os.ReadFile(filepath.Join(workDir, "ctex-standard", "main.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(tex), `\section{Irrigation}`)
	assert.NotContains(t, string(tex), ContentMarker)
	assert.Contains(t, string(tex), `\begin{document}`)
}

func TestBuild_CopiesArtifactToOutPath(t *testing.T) {
	compiler := &scriptedCompiler{}
	outPath := filepath.Join(t.TempDir(), "out", "bid.pdf")
	builder := NewBuilder(compiler, t.TempDir())

	artifact, err := builder.Build(context.Background(), markup.Document(`x`), testChain(), outPath)
	require.NoError(t, err)

	assert.Equal(t, outPath, artifact.PDFPath)
	_, statErr := os.Stat(outPath)
	assert.NoError(t, statErr)
}

func TestBuild_RespectsPriorityOverDeclarationOrder(t *testing.T) {
	compiler := &scriptedCompiler{}
	builder := NewBuilder(compiler, t.TempDir())

	chain := []TemplateDescriptor{
		{Name: "minimal", Priority: 2, Source: "templates/minimal.tex"},
		{Name: "ctex-plain", Priority: 0, Source: "templates/ctex-plain.tex"},
	}

	artifact, err := builder.Build(context.Background(), markup.Document(`x`), chain, "")
	require.NoError(t, err)
	assert.Equal(t, "ctex-plain", artifact.TemplateName)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder(&scriptedCompiler{}, t.TempDir())
	_, err := builder.Build(ctx, markup.Document(`x`), testChain(), "")
	assert.ErrorIs(t, err, context.Canceled)
}
