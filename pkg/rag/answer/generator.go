// Package answer turns a grounded context and question into a final
// answer by walking an ordered fallback chain of model identities. The
// chain itself is the resilience mechanism: each model is tried once,
// with a short linear backoff smoothing transient 503-style errors
// between attempts. Exhausting the chain yields a fixed refusal string,
// never an error.
package answer

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ai-tutoring-be/pkg/llm"
	"ai-tutoring-be/pkg/rag/prompt"
)

// ErrGenerationUnavailable marks exhaustion of the whole fallback chain.
// It stays inside this package; callers only ever see the refusal text.
var ErrGenerationUnavailable = errors.New("all generation models unavailable")

// RefusalMessage is returned when every configured model fails.
const RefusalMessage = "I'm sorry, I can't answer that right now. Please try again in a moment."

// DefaultBaseDelay is the unit of the linear inter-attempt backoff
// (baseDelay × attemptIndex).
const DefaultBaseDelay = 500 * time.Millisecond

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeFatal
)

// attemptOutcome is the typed result of one model attempt. A fatal
// outcome (request deadline hit) stops the chain early; retryable moves
// on to the next model.
type attemptOutcome struct {
	kind outcomeKind
	text string
	err  error
}

// Generator invokes the generation backend through an ordered list of
// model identities of decreasing capability/cost.
type Generator struct {
	llmProvider llm.LLMProvider
	models      []string
	baseDelay   time.Duration
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, models []string, baseDelay time.Duration, logger *log.Logger) *Generator {
	if len(models) == 0 {
		models = []string{""} // provider default model
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Generator{
		llmProvider: llmProvider,
		models:      models,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// Generate builds the grounded prompt and walks the fallback chain
// strictly in order. It always returns a non-empty answer string; the
// second return reports whether a model actually produced it.
func (g *Generator) Generate(ctx context.Context, question, contextBlock string, gradeHint *int, languageHint string) (string, bool) {
	promptText := prompt.NewGroundedBuilder(question, contextBlock, gradeHint, languageHint).Build()

	for i, model := range g.models {
		outcome := g.attempt(ctx, promptText, model)

		switch outcome.kind {
		case outcomeSuccess:
			return outcome.text, true
		case outcomeFatal:
			g.logger.Printf("[ANSWER] aborting fallback chain at model %d: %v", i+1, outcome.err)
			return RefusalMessage, false
		}

		g.logger.Printf("[ANSWER] model %d/%d (%s) failed: %v", i+1, len(g.models), displayModel(model), outcome.err)

		if i == len(g.models)-1 {
			break
		}
		if !g.backoff(ctx, i+1) {
			return RefusalMessage, false
		}
	}

	g.logger.Printf("[ANSWER] %v", ErrGenerationUnavailable)
	return RefusalMessage, false
}

func (g *Generator) attempt(ctx context.Context, promptText, model string) attemptOutcome {
	opts := []llm.Option{llm.WithTemperature(0.3)}
	if model != "" {
		opts = append(opts, llm.WithModel(model))
	}

	text, err := g.llmProvider.Generate(ctx, promptText, opts...)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return attemptOutcome{kind: outcomeFatal, err: err}
	case err != nil:
		return attemptOutcome{kind: outcomeRetryable, err: err}
	case strings.TrimSpace(text) == "":
		return attemptOutcome{kind: outcomeRetryable, err: errors.New("model returned empty output")}
	default:
		return attemptOutcome{kind: outcomeSuccess, text: text}
	}
}

// backoff waits baseDelay × attemptIndex, honoring cancellation.
// Linear, not exponential: the chain is short and bounded.
func (g *Generator) backoff(ctx context.Context, attemptIndex int) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(g.baseDelay * time.Duration(attemptIndex)):
		return true
	}
}

func displayModel(model string) string {
	if model == "" {
		return "default"
	}
	return model
}
