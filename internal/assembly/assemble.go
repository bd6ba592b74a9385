// Package assembly merges ordered per-requirement fragments into one
// paginated document body.
package assembly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Hejaii/BidGenerate/internal/types"
)

// PageBreakMarker separates page-hint groups in the assembled body. The
// markup stage passes it through to the typesetting backend untouched.
const PageBreakMarker = `\newpage`

// ContractViolationError indicates malformed assembler input. This is an
// upstream programming bug, surfaced to the caller rather than silently fixed.
type ContractViolationError struct {
	Message string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("assembly contract violation: %s", e.Message)
}

// DocumentBody is the merged, ordered document with explicit page-break
// markers between page groups.
type DocumentBody struct {
	Fragments []types.Fragment
	Text      string
}

// PlaceholderCount reports how many fragments are failure placeholders
func (b *DocumentBody) PlaceholderCount() int {
	count := 0
	for _, f := range b.Fragments {
		if f.Placeholder {
			count++
		}
	}
	return count
}

// Assemble merges fragments into a single document body. Fragments are
// re-sorted by OrderIndex (stable), so concurrent resolution order never
// leaks into the output. A duplicate OrderIndex fails the whole assembly.
func Assemble(fragments []types.Fragment) (*DocumentBody, error) {
	ordered := make([]types.Fragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	seen := make(map[int]string, len(ordered))
	for _, f := range ordered {
		if prev, dup := seen[f.OrderIndex]; dup {
			return nil, &ContractViolationError{
				Message: fmt.Sprintf("duplicate order_index %d (requirements %s and %s)", f.OrderIndex, prev, f.RequirementID),
			}
		}
		seen[f.OrderIndex] = f.RequirementID
	}

	var sb strings.Builder
	for i, f := range ordered {
		if i > 0 {
			if ordered[i-1].PageHint != f.PageHint {
				sb.WriteString(PageBreakMarker + "\n\n")
			} else {
				sb.WriteString("\n")
			}
		}
		sb.WriteString(renderSection(&f))
	}

	return &DocumentBody{Fragments: ordered, Text: sb.String()}, nil
}

// renderSection shapes one fragment as a markdown section headed by the
// requirement title.
func renderSection(f *types.Fragment) string {
	content := strings.TrimSpace(f.Content)
	if f.Title == "" {
		return content + "\n"
	}
	return fmt.Sprintf("# %s\n\n%s\n", f.Title, content)
}
