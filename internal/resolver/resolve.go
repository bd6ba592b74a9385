// Package resolver turns tender requirements into response fragments by
// combining knowledge-base retrieval with orchestrated generation.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Hejaii/BidGenerate/internal/knowledge"
	"github.com/Hejaii/BidGenerate/internal/llm"
	"github.com/Hejaii/BidGenerate/internal/prompts"
	"github.com/Hejaii/BidGenerate/internal/types"
)

// PlaceholderPrefix marks fragments whose generation failed. The marker is
// kept in the final document so missing content is visible, never silent.
const PlaceholderPrefix = "[PENDING]"

// snippetLimit caps how much of each retrieved file is embedded in a prompt
const snippetLimit = 2000

// DefaultTopK is the retrieval depth used when the caller configures none
const DefaultTopK = 5

// Generator is the slice of the orchestrator the resolver needs
type Generator interface {
	Generate(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

// Resolver resolves requirements into fragments
type Resolver struct {
	index     *knowledge.Index
	generator Generator
	topK      int
	opts      llm.Options
}

// New creates a Resolver. topK <= 0 falls back to DefaultTopK.
func New(index *knowledge.Index, generator Generator, topK int, opts llm.Options) *Resolver {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Resolver{index: index, generator: generator, topK: topK, opts: opts}
}

// Resolve produces the fragment for one requirement. Generation failures
// degrade to a visibly marked placeholder fragment; Resolve itself only fails
// on context cancellation.
func (r *Resolver) Resolve(ctx context.Context, req *types.Requirement) (types.Fragment, error) {
	if req.Classification == types.ClassificationCopyVerbatim {
		return types.Fragment{
			RequirementID: req.ID,
			OrderIndex:    req.OrderIndex,
			PageHint:      req.PageHint,
			Title:         req.Title,
			Content:       req.BodyText,
		}, nil
	}

	matches := r.index.Query(req.QueryText(), r.topK)
	prompt := buildPrompt(req, matches)

	text, err := r.generator.Generate(ctx, prompt, r.opts)
	if err != nil {
		if ctx.Err() != nil {
			return types.Fragment{}, ctx.Err()
		}
		return placeholderFragment(req), nil
	}

	fragment := types.Fragment{
		RequirementID: req.ID,
		OrderIndex:    req.OrderIndex,
		PageHint:      req.PageHint,
		Title:         req.Title,
		Content:       text,
		Generated:     true,
	}
	for _, m := range matches {
		fragment.Sources = append(fragment.Sources, types.FragmentSource{Path: m.Record.Path, Score: m.Score})
	}
	return fragment, nil
}

// ResolveAll resolves requirements concurrently, bounded by workers, and
// returns fragments positionally aligned with the input slice. Completion
// order never affects output order.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []types.Requirement, workers int) ([]types.Fragment, error) {
	if workers <= 0 {
		workers = 1
	}

	fragments := make([]types.Fragment, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range reqs {
		i := i
		g.Go(func() error {
			fragment, err := r.Resolve(gCtx, &reqs[i])
			if err != nil {
				return fmt.Errorf("resolving requirement %s: %w", reqs[i].ID, err)
			}
			fragments[i] = fragment
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// buildPrompt embeds the requirement text and retrieved excerpts into the
// generation prompt templates.
func buildPrompt(req *types.Requirement, matches knowledge.Result) string {
	system := prompts.MustGet("generation.json", "response_system")

	var snippets []string
	for _, m := range matches {
		if m.Score <= 0 {
			continue
		}
		text := strings.TrimSpace(m.Record.Text)
		if len(text) > snippetLimit {
			cut := snippetLimit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		if text != "" {
			snippets = append(snippets, fmt.Sprintf("--- %s ---\n%s", m.Record.Path, text))
		}
	}

	data := map[string]string{
		"RequirementTitle": req.Title,
		"RequirementBody":  req.BodyText,
	}
	if len(snippets) == 0 {
		user := prompts.MustGet("generation.json", "response_user_no_context")
		return system + "\n\n" + prompts.Format(user, data)
	}

	data["Context"] = strings.Join(snippets, "\n\n")
	user := prompts.MustGet("generation.json", "response_user")
	return system + "\n\n" + prompts.Format(user, data)
}

func placeholderFragment(req *types.Requirement) types.Fragment {
	return types.Fragment{
		RequirementID: req.ID,
		OrderIndex:    req.OrderIndex,
		PageHint:      req.PageHint,
		Title:         req.Title,
		Content: fmt.Sprintf("%s Response for requirement %q could not be generated; all model endpoints were exhausted.",
			PlaceholderPrefix, req.Title),
		Placeholder: true,
	}
}
