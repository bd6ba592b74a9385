// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/Hejaii/BidGenerate/internal/artifact"
	"github.com/Hejaii/BidGenerate/internal/knowledge"
	"github.com/Hejaii/BidGenerate/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRequirements outputs a summary of the loaded requirement list.
func (p *Printer) PrintRequirements(reqs []types.Requirement) {
	if len(reqs) == 0 {
		return
	}

	generate := 0
	verbatim := 0
	for _, r := range reqs {
		if r.Classification == types.ClassificationCopyVerbatim {
			verbatim++
		} else {
			generate++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total:     %d\n", len(reqs)))
	sb.WriteString(fmt.Sprintf("Generate:  %d\n", generate))
	sb.WriteString(fmt.Sprintf("Verbatim:  %d\n", verbatim))
	sb.WriteString("\n")

	count := min(len(reqs), maxItemsToShow)
	for i := 0; i < count; i++ {
		title := reqs[i].Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("  %d. %s\n", reqs[i].OrderIndex, title))
	}
	if len(reqs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(reqs)-maxItemsToShow))
	}

	p.printBox("LOADED REQUIREMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintKnowledgeIndex outputs a summary of the built knowledge-base index.
func (p *Printer) PrintKnowledgeIndex(idx *knowledge.Index) {
	if idx == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Documents indexed: %d\n", idx.Len()))

	warnings := idx.Warnings()
	if len(warnings) > 0 {
		sb.WriteString(fmt.Sprintf("\nSkipped %d files:\n", len(warnings)))
		count := min(len(warnings), 3)
		for i := 0; i < count; i++ {
			w := warnings[i]
			if len(w) > 50 {
				w = w[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", w))
		}
		if len(warnings) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(warnings)-3))
		}
	}

	p.printBox("KNOWLEDGE BASE INDEX", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFragments outputs the resolved fragments with generation status.
func (p *Printer) PrintFragments(fragments []types.Fragment) {
	if len(fragments) == 0 {
		return
	}

	placeholders := 0
	for _, f := range fragments {
		if f.Placeholder {
			placeholders++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Resolved %d fragments", len(fragments)))
	if placeholders > 0 {
		sb.WriteString(fmt.Sprintf(" (%d pending)", placeholders))
	}
	sb.WriteString("\n\n")

	count := min(len(fragments), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := fragments[i]
		marker := "✓"
		switch {
		case f.Placeholder:
			marker = "⚠"
		case !f.Generated:
			marker = "≡"
		}
		title := f.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", marker, title))
		if len(f.Sources) > 0 {
			sb.WriteString(fmt.Sprintf("  sources: %d (top %.2f)\n", len(f.Sources), f.Sources[0].Score))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(fragments) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more fragments", len(fragments)-maxItemsToShow))
	}

	p.printBox("RESOLVED FRAGMENTS", sb.String())
}

// PrintArtifact outputs the final artifact path and any template fallbacks taken.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintArtifact(art *artifact.Artifact) {
	if art == nil {
		return
	}

	if len(art.Diagnostics) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("✅ COMPILED WITH %s", strings.ToUpper(art.TemplateName)))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Compiled with: %s\n\n", art.TemplateName))
	sb.WriteString(fmt.Sprintf("%d templates failed first:\n", len(art.Diagnostics)))
	for i, d := range art.Diagnostics {
		msg := d.Diagnostic
		if len(msg) > 45 {
			msg = msg[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", d.Template))
		sb.WriteString(fmt.Sprintf("  %s\n", msg))
		if i < len(art.Diagnostics)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("TEMPLATE FALLBACK", strings.TrimSuffix(sb.String(), "\n"))
}
