// Package answer turns a question and its retrieved chunks into a grounded,
// cited response. The prompt confines the model to the supplied context;
// when retrieval came back empty the generator answers directly with a
// fixed no-information message and never calls the model.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/llm"
	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

// NoInformationAnswer is returned when retrieval produced nothing usable.
const NoInformationAnswer = "I don't have any relevant information to answer that question. " +
	"Try rephrasing it, or ask about a different topic."

// DefaultContextBudget bounds the total characters of chunk context packed
// into a prompt. Highest-similarity chunks are kept; the rest are dropped.
const DefaultContextBudget = 6000

// Reference points at a source document a generated answer drew from.
type Reference struct {
	Source string    `json:"source"`
	Role   rbac.Role `json:"role"`
}

// Answer is the generated text plus the ordered references behind it.
type Answer struct {
	Text       string      `json:"answer"`
	References []Reference `json:"references"`
}

// Config tunes the generator. Zero values fall back to the defaults.
type Config struct {
	ContextBudget int
}

// Generator builds grounded prompts and invokes the language model.
type Generator struct {
	client llm.Client
	budget int
	logger *zap.Logger
}

// NewGenerator creates a generator over the given language-model client.
func NewGenerator(client llm.Client, cfg Config, logger *zap.Logger) *Generator {
	budget := cfg.ContextBudget
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &Generator{
		client: client,
		budget: budget,
		logger: logger,
	}
}

// Generate answers the query from the retrieved chunks. Results must arrive
// ordered by descending score; the context budget drops the tail, never the
// head. A model failure or empty completion propagates as llm.ErrGeneration
// so the chat surface reports it instead of fabricating an answer.
func (g *Generator) Generate(ctx context.Context, query string, callerRole rbac.Role, results []vector.Result) (*Answer, error) {
	if len(results) == 0 {
		return &Answer{Text: NoInformationAnswer}, nil
	}

	used := g.fitToBudget(results)
	prompt := buildPrompt(query, callerRole, used)

	g.logger.Debug("generating answer",
		zap.String("role", string(callerRole)),
		zap.Int("chunks_retrieved", len(results)),
		zap.Int("chunks_used", len(used)),
		zap.Int("prompt_chars", len(prompt)),
	)

	text, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: model returned empty output", llm.ErrGeneration)
	}

	return &Answer{
		Text:       text,
		References: collectReferences(used),
	}, nil
}

// fitToBudget keeps the highest-similarity chunks whose combined text fits
// the context budget. At least one chunk is always kept so the model sees
// some grounding.
func (g *Generator) fitToBudget(results []vector.Result) []vector.Result {
	used := make([]vector.Result, 0, len(results))
	total := 0
	for _, res := range results {
		size := len(res.Payload.Text)
		if len(used) > 0 && total+size > g.budget {
			break
		}
		used = append(used, res)
		total += size
	}
	return used
}

// collectReferences lists each source document once, in the order its best
// chunk ranked.
func collectReferences(results []vector.Result) []Reference {
	seen := make(map[Reference]struct{}, len(results))
	refs := make([]Reference, 0, len(results))
	for _, res := range results {
		ref := Reference{Source: res.Payload.Source, Role: res.Role}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}
