package markup

import (
	"fmt"
	"sort"
)

// CheckBalance verifies by stack simulation that every \begin{...} in doc has
// a matching \end{...} in proper nesting order. It returns nil for balanced
// documents.
func CheckBalance(doc Document) error {
	var stack []string

	text := string(doc)
	for _, m := range beginEndTokens(text) {
		if m.open {
			stack = append(stack, m.env)
			continue
		}
		if len(stack) == 0 {
			return fmt.Errorf("dangling \\end{%s}", m.env)
		}
		top := stack[len(stack)-1]
		if top != m.env {
			return fmt.Errorf("\\end{%s} closes \\begin{%s}", m.env, top)
		}
		stack = stack[:len(stack)-1]
	}

	if len(stack) > 0 {
		return fmt.Errorf("unclosed \\begin{%s}", stack[len(stack)-1])
	}
	return nil
}

type envToken struct {
	env  string
	open bool
	pos  int
}

// beginEndTokens extracts \begin/\end tokens in document order
func beginEndTokens(text string) []envToken {
	var tokens []envToken
	for _, m := range beginEnv.FindAllStringSubmatchIndex(text, -1) {
		tokens = append(tokens, envToken{env: text[m[2]:m[3]], open: true, pos: m[0]})
	}
	for _, m := range endEnv.FindAllStringSubmatchIndex(text, -1) {
		tokens = append(tokens, envToken{env: text[m[2]:m[3]], open: false, pos: m[0]})
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].pos < tokens[j].pos })
	return tokens
}
