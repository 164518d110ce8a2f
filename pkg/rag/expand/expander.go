// Package expand widens retrieval recall by asking a generation model
// for alternate phrasings of the student's question. Expansion is an
// optimization: any model failure degrades to the original question
// alone, never to a pipeline error.
package expand

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"ai-tutoring-be/pkg/llm"

	"github.com/patrickmn/go-cache"
)

// MaxVariants caps the number of model-produced rephrasings kept.
const MaxVariants = 3

// numberedMarker matches manual list markers like "1." or "12." at the
// start of a line, which some models emit despite instructions.
var numberedMarker = regexp.MustCompile(`^\d+\.\s*`)

// Expander produces an ordered set of query variants, original first.
type Expander struct {
	llmProvider llm.LLMProvider
	cache       *cache.Cache
	logger      *log.Logger
}

func NewExpander(llmProvider llm.LLMProvider, logger *log.Logger) *Expander {
	return &Expander{
		llmProvider: llmProvider,
		cache:       cache.New(30*time.Minute, 10*time.Minute),
		logger:      logger,
	}
}

// Expand returns [original, variant_1, ...] with length 1..MaxVariants+1.
// The original question is always element 0, regardless of what the
// model returns.
func (e *Expander) Expand(ctx context.Context, question string, gradeHint *int) []string {
	question = strings.TrimSpace(question)

	key := expandCacheKey(question, gradeHint)
	if x, found := e.cache.Get(key); found {
		return x.([]string)
	}

	variants, err := e.requestVariants(ctx, question, gradeHint)
	if err != nil {
		e.logger.Printf("[EXPAND] expansion failed, using original question only: %v", err)
		return []string{question}
	}

	result := append([]string{question}, variants...)
	e.cache.Set(key, result, cache.DefaultExpiration)
	return result
}

func (e *Expander) requestVariants(ctx context.Context, question string, gradeHint *int) ([]string, error) {
	prompt := buildExpansionPrompt(question, gradeHint)

	raw, err := e.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.4))
	if err != nil {
		return nil, err
	}

	variants := ParseVariants(raw, question)
	e.logger.Printf("[EXPAND] %d variant(s) for question %q", len(variants), question)
	return variants, nil
}

// ParseVariants extracts up to MaxVariants rephrasings from the model's
// raw output: split on newlines, trim, drop empty lines, numbered-list
// markers, and echoes of the original question.
func ParseVariants(raw string, original string) []string {
	var variants []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = numberedMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, strings.TrimSpace(original)) {
			continue
		}
		variants = append(variants, line)
		if len(variants) == MaxVariants {
			break
		}
	}
	return variants
}

func buildExpansionPrompt(question string, gradeHint *int) string {
	var prompt strings.Builder

	prompt.WriteString("Rewrite the student question below as 2-3 alternate search queries.\n")
	prompt.WriteString("Use proper curriculum terminology for the topic.\n")
	if gradeHint != nil {
		prompt.WriteString(fmt.Sprintf("Phrase them at a grade %d level.\n", *gradeHint))
	}
	prompt.WriteString("Output one query per line. No numbering, no commentary.\n\n")
	prompt.WriteString("Question: ")
	prompt.WriteString(question)

	return prompt.String()
}

func expandCacheKey(question string, gradeHint *int) string {
	if gradeHint == nil {
		return "g0|" + strings.ToLower(question)
	}
	return fmt.Sprintf("g%d|%s", *gradeHint, strings.ToLower(question))
}
