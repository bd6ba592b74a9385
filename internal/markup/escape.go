package markup

import "strings"

// Escape escapes LaTeX special characters in text and rewrites inline symbols
// outside the default font coverage (comparison operators and friends) into
// their math-mode escape form.
func Escape(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		switch r {
		case '\\':
			result.WriteString(`\textbackslash{}`)
		case '{':
			result.WriteString(`\{`)
		case '}':
			result.WriteString(`\}`)
		case '$':
			result.WriteString(`\$`)
		case '&':
			result.WriteString(`\&`)
		case '%':
			result.WriteString(`\%`)
		case '#':
			result.WriteString(`\#`)
		case '^':
			result.WriteString(`\textasciicircum{}`)
		case '_':
			result.WriteString(`\_`)
		case '~':
			result.WriteString(`\textasciitilde{}`)
		case '<':
			result.WriteString(`$<$`)
		case '>':
			result.WriteString(`$>$`)
		case '≤':
			result.WriteString(`$\leq$`)
		case '≥':
			result.WriteString(`$\geq$`)
		case '≠':
			result.WriteString(`$\neq$`)
		case '×':
			result.WriteString(`$\times$`)
		case '±':
			result.WriteString(`$\pm$`)
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}
