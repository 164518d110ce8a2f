package pipeline

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"ai-tutoring-be/pkg/store"
)

type fakeExpander struct {
	queries []string
}

func (f *fakeExpander) Expand(ctx context.Context, question string, gradeHint *int) []string {
	if f.queries != nil {
		return f.queries
	}
	return []string{question}
}

type fakeRetriever struct {
	result      store.RetrievalResult
	seenQueries []string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, queries []string, base store.Query, filter store.Filter) store.RetrievalResult {
	f.seenQueries = queries
	return f.result
}

type fakeGenerator struct {
	answer      string
	ok          bool
	calls       int
	seenContext string
}

func (f *fakeGenerator) Generate(ctx context.Context, question, contextBlock string, gradeHint *int, languageHint string) (string, bool) {
	f.calls++
	f.seenContext = contextBlock
	return f.answer, f.ok
}

func pipelineLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func grounded(texts ...string) store.RetrievalResult {
	chunks := make([]store.ScoredChunk, len(texts))
	for i, txt := range texts {
		chunks[i] = store.ScoredChunk{Chunk: store.Chunk{ID: txt, Text: txt}, Score: 0.9}
	}
	return store.RetrievalResult{Chunks: chunks, Method: store.ScoreCosine}
}

func TestAskGroundedFlow(t *testing.T) {
	expander := &fakeExpander{queries: []string{"q", "variant one", "variant two"}}
	retriever := &fakeRetriever{result: grounded("Inertia resists motion change.")}
	generator := &fakeGenerator{answer: "Inertia is the tendency to resist changes in motion.", ok: true}

	p := NewPipeline(expander, retriever, generator, DefaultConfig(), pipelineLogger())
	res := p.Ask(context.Background(), store.Query{Text: "q"}, store.Filter{})

	if res.FinalState != StateAnswered {
		t.Errorf("FinalState = %s, want %s", res.FinalState, StateAnswered)
	}
	if !res.Generated {
		t.Error("Generated = false, want true")
	}
	if res.Answer != "Inertia is the tendency to resist changes in motion." {
		t.Errorf("Answer = %q", res.Answer)
	}
	if len(res.ExpandedQueries) != 3 {
		t.Errorf("ExpandedQueries = %v, want all three variants recorded", res.ExpandedQueries)
	}
	if len(retriever.seenQueries) != 3 {
		t.Errorf("retriever saw %v, want all expanded variants", retriever.seenQueries)
	}
	if generator.calls != 1 {
		t.Errorf("generator called %d times, want 1", generator.calls)
	}
}

func TestAskUngroundedNeverCallsGenerator(t *testing.T) {
	retriever := &fakeRetriever{result: store.RetrievalResult{Method: store.ScoreCosine}}
	generator := &fakeGenerator{answer: "should never appear", ok: true}

	p := NewPipeline(&fakeExpander{}, retriever, generator, DefaultConfig(), pipelineLogger())
	res := p.Ask(context.Background(), store.Query{Text: "q"}, store.Filter{})

	if generator.calls != 0 {
		t.Errorf("generator called %d times on an ungrounded question, want 0", generator.calls)
	}
	if res.FinalState != StateUngrounded {
		t.Errorf("FinalState = %s, want %s", res.FinalState, StateUngrounded)
	}
	if res.Answer != UngroundedMessage {
		t.Errorf("Answer = %q, want the fixed ungrounded message", res.Answer)
	}
	if res.Generated {
		t.Error("Generated = true for an ungrounded refusal")
	}
}

func TestAskGenerationFailureStillAnswers(t *testing.T) {
	retriever := &fakeRetriever{result: grounded("some context")}
	generator := &fakeGenerator{answer: "refusal text", ok: false}

	p := NewPipeline(&fakeExpander{}, retriever, generator, DefaultConfig(), pipelineLogger())
	res := p.Ask(context.Background(), store.Query{Text: "q"}, store.Filter{})

	if res.FinalState != StateAnswered {
		t.Errorf("FinalState = %s, want %s", res.FinalState, StateAnswered)
	}
	if res.Generated {
		t.Error("Generated = true after the generator gave up")
	}
	if res.Answer != "refusal text" {
		t.Errorf("Answer = %q", res.Answer)
	}
}

func TestAskContextIsBounded(t *testing.T) {
	retriever := &fakeRetriever{result: grounded(strings.Repeat("a", 300), strings.Repeat("b", 300))}
	generator := &fakeGenerator{answer: "ok", ok: true}

	cfg := DefaultConfig()
	cfg.MaxContextChars = 100
	p := NewPipeline(&fakeExpander{}, retriever, generator, cfg, pipelineLogger())
	p.Ask(context.Background(), store.Query{Text: "q"}, store.Filter{})

	if len(generator.seenContext) != 100 {
		t.Errorf("context length = %d, want hard cut at 100", len(generator.seenContext))
	}
}

func TestAskGroundingProvenanceReturned(t *testing.T) {
	result := grounded("phy-1 text", "phy-2 text")
	retriever := &fakeRetriever{result: result}
	generator := &fakeGenerator{answer: "ok", ok: true}

	p := NewPipeline(&fakeExpander{}, retriever, generator, DefaultConfig(), pipelineLogger())
	res := p.Ask(context.Background(), store.Query{Text: "q"}, store.Filter{})

	if len(res.Grounding.Chunks) != 2 {
		t.Fatalf("Grounding carries %d chunks, want 2", len(res.Grounding.Chunks))
	}
	if res.Grounding.Method != store.ScoreCosine {
		t.Errorf("Grounding.Method = %s, want %s", res.Grounding.Method, store.ScoreCosine)
	}
}

type stalledExpander struct{}

// Expand blocks until its context expires, then degrades to the
// original question, like the LLM expander does on a dead backend.
func (stalledExpander) Expand(ctx context.Context, question string, gradeHint *int) []string {
	<-ctx.Done()
	return []string{question}
}

type deadlineRetriever struct {
	result   store.RetrievalResult
	ctxAlive bool
}

func (d *deadlineRetriever) Retrieve(ctx context.Context, queries []string, base store.Query, filter store.Filter) store.RetrievalResult {
	d.ctxAlive = ctx.Err() == nil
	return d.result
}

// A stalled expansion model must not spend the retrieval window:
// expansion runs under its own short bound and retrieval starts with a
// fresh one.
func TestAskStalledExpansionLeavesRetrievalWindow(t *testing.T) {
	retriever := &deadlineRetriever{result: grounded("ctx")}
	generator := &fakeGenerator{answer: "ok", ok: true}

	cfg := DefaultConfig()
	cfg.ExpansionTimeout = 10 * time.Millisecond
	cfg.RetrievalTimeout = 5 * time.Second

	p := NewPipeline(stalledExpander{}, retriever, generator, cfg, pipelineLogger())

	start := time.Now()
	res := p.Ask(context.Background(), store.Query{Text: "q"}, store.Filter{})

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("ask took %v, expansion should have been cut off at 10ms", elapsed)
	}
	if !retriever.ctxAlive {
		t.Error("retriever context already expired, want a fresh retrieval deadline")
	}
	if res.FinalState != StateAnswered {
		t.Errorf("FinalState = %s, want %s", res.FinalState, StateAnswered)
	}
}

// Expansion failure degrades to the original question alone; the
// pipeline must still retrieve and answer.
func TestAskSingleQueryDegradedExpansion(t *testing.T) {
	retriever := &fakeRetriever{result: grounded("ctx")}
	generator := &fakeGenerator{answer: "ok", ok: true}

	p := NewPipeline(&fakeExpander{queries: []string{"original only"}}, retriever, generator, DefaultConfig(), pipelineLogger())
	res := p.Ask(context.Background(), store.Query{Text: "original only"}, store.Filter{})

	if res.FinalState != StateAnswered {
		t.Errorf("FinalState = %s, want %s", res.FinalState, StateAnswered)
	}
	if len(retriever.seenQueries) != 1 || retriever.seenQueries[0] != "original only" {
		t.Errorf("retriever saw %v, want just the original question", retriever.seenQueries)
	}
}
