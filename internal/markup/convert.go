// Package markup converts loosely structured text into well-formed
// nested-block LaTeX. The defining property is structural balance: every
// emitted \begin has a matching \end regardless of how malformed the input is.
package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// Document is a structurally balanced LaTeX body
type Document string

var (
	enumeratedItem = regexp.MustCompile(`^\d+[.)]\s+`)
	beginEnv       = regexp.MustCompile(`\\begin\{([a-zA-Z*]+)\}`)
	endEnv         = regexp.MustCompile(`\\end\{([a-zA-Z*]+)\}`)
	beginLine      = regexp.MustCompile(`^\\begin\{([a-zA-Z*]+)\}$`)
	endLine        = regexp.MustCompile(`^\\end\{([a-zA-Z*]+)\}$`)
)

// converter is the single-pass state: the output lines and the stack of
// currently open block environments. The stack is local to one Convert call.
type converter struct {
	lines []string
	stack []string
}

// Convert transforms a markdown-shaped document body into balanced LaTeX.
// It never fails; the worst case is a degraded but structurally valid
// document.
func Convert(body string) Document {
	c := &converter{}

	for _, line := range strings.Split(body, "\n") {
		c.line(strings.TrimSpace(line))
	}
	c.closeAll()

	return Document(strings.Join(c.lines, "\n"))
}

func (c *converter) line(line string) {
	switch {
	case line == "":
		c.emit("")

	case strings.HasPrefix(line, "### "):
		c.closeAll()
		c.emit(`\subsubsection{` + inline(line[4:]) + `}`)

	case strings.HasPrefix(line, "## "):
		c.closeAll()
		c.emit(`\subsection{` + inline(line[3:]) + `}`)

	case strings.HasPrefix(line, "# "):
		c.closeAll()
		c.emit(`\section{` + inline(line[2:]) + `}`)

	case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
		c.open("itemize")
		c.emit(`\item ` + inline(line[2:]))

	case enumeratedItem.MatchString(line):
		marker := enumeratedItem.FindString(line)
		c.open("enumerate")
		c.emit(`\item ` + inline(line[len(marker):]))

	case line == "---":
		c.closeAll()
		c.emit(`\vspace{0.5em}`)
		c.emit(`\hrule`)
		c.emit(`\vspace{0.5em}`)

	case line == `\newpage`:
		// Page-break markers inserted by the assembler pass through at
		// paragraph level only.
		c.closeAll()
		c.emit(`\newpage`)

	case beginLine.MatchString(line):
		c.push(beginLine.FindStringSubmatch(line)[1])
		c.emit(line)

	case endLine.MatchString(line):
		// A close that does not match the innermost open block is dropped;
		// emitting it would unbalance the output.
		if env := endLine.FindStringSubmatch(line)[1]; len(c.stack) > 0 && c.stack[len(c.stack)-1] == env {
			c.pop()
			c.emit(line)
		}

	case strings.HasPrefix(line, `\item`):
		// Stray items self-heal by opening a list around them.
		if len(c.stack) == 0 {
			c.open("itemize")
		}
		c.emit(line)

	default:
		c.emit(inline(line))
	}
}

// open ensures the innermost block is env, closing incompatible blocks first
func (c *converter) open(env string) {
	if len(c.stack) > 0 && c.stack[len(c.stack)-1] == env {
		return
	}
	c.closeAll()
	c.push(env)
	c.emit(fmt.Sprintf(`\begin{%s}`, env))
}

// closeAll closes every open block in reverse-open order
func (c *converter) closeAll() {
	for len(c.stack) > 0 {
		env := c.pop()
		c.emit(fmt.Sprintf(`\end{%s}`, env))
	}
}

func (c *converter) push(env string) {
	c.stack = append(c.stack, env)
}

func (c *converter) pop() string {
	env := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return env
}

func (c *converter) emit(line string) {
	c.lines = append(c.lines, line)
}

// inline renders one line of inline content: **bold** and `code` spans with
// everything else escaped.
func inline(text string) string {
	var result strings.Builder

	for len(text) > 0 {
		if start := strings.Index(text, "**"); start >= 0 {
			if end := strings.Index(text[start+2:], "**"); end >= 0 {
				result.WriteString(escapeCode(text[:start]))
				result.WriteString(`\textbf{` + Escape(text[start+2:start+2+end]) + `}`)
				text = text[start+4+end:]
				continue
			}
		}
		result.WriteString(escapeCode(text))
		break
	}

	return result.String()
}

// escapeCode renders `code` spans within a bold-free segment
func escapeCode(text string) string {
	var result strings.Builder

	for len(text) > 0 {
		start := strings.IndexByte(text, '`')
		if start < 0 {
			result.WriteString(Escape(text))
			break
		}
		end := strings.IndexByte(text[start+1:], '`')
		if end < 0 {
			result.WriteString(Escape(text))
			break
		}
		result.WriteString(Escape(text[:start]))
		result.WriteString(`\texttt{` + Escape(text[start+1:start+1+end]) + `}`)
		text = text[start+2+end:]
	}

	return result.String()
}
