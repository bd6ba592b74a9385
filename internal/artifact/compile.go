package artifact

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// CompilationTimeout is the maximum time to wait for one LaTeX compile
	CompilationTimeout = 120 * time.Second
)

// Compiler is the external document-compilation capability
type Compiler interface {
	// Compile compiles the .tex file at texPath inside workDir and returns
	// the produced PDF path and the compiler log
	Compile(ctx context.Context, texPath, workDir string) (pdfPath string, logOutput string, err error)
}

// CompilationError represents a failed compile with its raw diagnostic
type CompilationError struct {
	Message   string
	LogOutput string
	Cause     error
}

func (e *CompilationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compilation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("compilation error: %s", e.Message)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// LatexmkCompiler compiles through latexmk with an xelatex engine, falling
// back to a bare xelatex run when latexmk is not installed.
type LatexmkCompiler struct{}

// Compile runs the LaTeX toolchain on texPath
func (LatexmkCompiler) Compile(ctx context.Context, texPath, workDir string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, CompilationTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if _, err := exec.LookPath("latexmk"); err == nil {
		cmd = exec.CommandContext(ctx, "latexmk", "-xelatex", "-interaction=nonstopmode", filepath.Base(texPath))
	} else if _, err := exec.LookPath("xelatex"); err == nil {
		cmd = exec.CommandContext(ctx, "xelatex", "-interaction=nonstopmode", filepath.Base(texPath))
	} else {
		return "", "", &CompilationError{
			Message: "neither latexmk nor xelatex found in PATH; install a TeX distribution (e.g. TeX Live)",
		}
	}
	cmd.Dir = workDir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	logOutput := stdout.String() + stderr.String()

	// The exit status alone is unreliable; LaTeX can fail noisily and still
	// produce a usable PDF. The artifact on disk decides.
	pdfPath := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(texPath), ".tex")+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", logOutput, &CompilationError{
			Message:   "compilation produced no PDF",
			LogOutput: logOutput,
			Cause:     runErr,
		}
	}

	return pdfPath, logOutput, nil
}
