// Package pipeline sequences the ask-to-answer flow: expansion,
// retrieval, context assembly, generation. Each request runs the state
// machine exactly once; there is no outer retry loop.
package pipeline

import (
	"context"
	"log"
	"time"

	"ai-tutoring-be/pkg/rag/prompt"
	"ai-tutoring-be/pkg/store"
)

// State names the pipeline stages. Ungrounded is terminal: the answer
// generator is never invoked without retrieved context, which avoids
// both hallucination and a wasted model call.
type State string

const (
	StateExpanding  State = "EXPANDING"
	StateRetrieving State = "RETRIEVING"
	StateGrounded   State = "GROUNDED"
	StateUngrounded State = "UNGROUNDED"
	StateGenerating State = "GENERATING"
	StateAnswered   State = "ANSWERED"
)

// UngroundedMessage is the fixed refusal returned when retrieval finds
// no grounding at all.
const UngroundedMessage = "I don't have enough curriculum material to answer that yet. " +
	"Try rephrasing your question or asking about a topic from your grade's subjects."

// QueryExpander produces query variants, original question first.
type QueryExpander interface {
	Expand(ctx context.Context, question string, gradeHint *int) []string
}

// Retriever aggregates retrieval across all query variants.
type Retriever interface {
	Retrieve(ctx context.Context, queries []string, base store.Query, filter store.Filter) store.RetrievalResult
}

// AnswerGenerator produces the final answer text from grounded context.
// The boolean reports whether a model produced the text (false means the
// built-in refusal).
type AnswerGenerator interface {
	Generate(ctx context.Context, question, contextBlock string, gradeHint *int, languageHint string) (string, bool)
}

// Result pairs the answer with the retrieval that grounded it, so the
// caller can display provenance.
type Result struct {
	Answer          string
	Generated       bool
	Grounding       store.RetrievalResult
	ExpandedQueries []string
	FinalState      State
}

// Config bounds each network-facing stage. Expansion gets its own
// short bound so a slow expansion model cannot eat into the retrieval
// window; generation gets the longest one because it spans the whole
// fallback chain.
type Config struct {
	MaxContextChars   int
	ExpansionTimeout  time.Duration
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxContextChars:   prompt.DefaultMaxContextChars,
		ExpansionTimeout:  3 * time.Second,
		RetrievalTimeout:  5 * time.Second,
		GenerationTimeout: 20 * time.Second,
	}
}

type Pipeline struct {
	expander  QueryExpander
	retriever Retriever
	generator AnswerGenerator
	config    Config
	logger    *log.Logger
}

func NewPipeline(expander QueryExpander, retriever Retriever, generator AnswerGenerator, config Config, logger *log.Logger) *Pipeline {
	if config.MaxContextChars <= 0 {
		config.MaxContextChars = prompt.DefaultMaxContextChars
	}
	if config.ExpansionTimeout <= 0 {
		config.ExpansionTimeout = 3 * time.Second
	}
	if config.RetrievalTimeout <= 0 {
		config.RetrievalTimeout = 5 * time.Second
	}
	if config.GenerationTimeout <= 0 {
		config.GenerationTimeout = 20 * time.Second
	}
	return &Pipeline{
		expander:  expander,
		retriever: retriever,
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Ask runs the full flow for one validated question and filter.
func (p *Pipeline) Ask(ctx context.Context, query store.Query, filter store.Filter) *Result {
	// EXPANDING: never fails the pipeline; worst case is [original].
	// The bound is separate from retrieval's so a stalled expansion
	// model leaves the retrieval window untouched.
	expansionCtx, cancelExpansion := context.WithTimeout(ctx, p.config.ExpansionTimeout)
	queries := p.expander.Expand(expansionCtx, query.Text, query.GradeHint)
	cancelExpansion()

	// RETRIEVING
	retrievalCtx, cancelRetrieval := context.WithTimeout(ctx, p.config.RetrievalTimeout)
	defer cancelRetrieval()

	grounding := p.retriever.Retrieve(retrievalCtx, queries, query, filter)

	if grounding.Empty() {
		p.logger.Printf("[PIPELINE] ungrounded question %q, refusing without generation", query.Text)
		return &Result{
			Answer:          UngroundedMessage,
			Grounding:       grounding,
			ExpandedQueries: queries,
			FinalState:      StateUngrounded,
		}
	}

	// GROUNDED -> GENERATING
	contextBlock := prompt.BuildContext(grounding, p.config.MaxContextChars)

	generationCtx, cancelGeneration := context.WithTimeout(ctx, p.config.GenerationTimeout)
	defer cancelGeneration()

	answerText, generated := p.generator.Generate(generationCtx, query.Text, contextBlock, query.GradeHint, query.LanguageHint)

	return &Result{
		Answer:          answerText,
		Generated:       generated,
		Grounding:       grounding,
		ExpandedQueries: queries,
		FinalState:      StateAnswered,
	}
}
