package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-tutoring-be/pkg/store"
)

// stubSearcher returns a canned result per query text and counts calls.
type stubSearcher struct {
	mu      sync.Mutex
	results map[string]store.RetrievalResult
	err     error
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, query store.Query, filter store.Filter, topK int) (store.RetrievalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return store.RetrievalResult{}, s.err
	}
	res, ok := s.results[query.Text]
	if !ok {
		return store.RetrievalResult{Method: store.ScoreCosine}, nil
	}
	return res, nil
}

func cosineResult(pairs ...store.ScoredChunk) store.RetrievalResult {
	return store.RetrievalResult{Chunks: pairs, Method: store.ScoreCosine}
}

func scored(id string, score float64) store.ScoredChunk {
	return store.ScoredChunk{Chunk: store.Chunk{ID: id, Text: id}, Score: score}
}

func TestRetrieverDedupesByMaxScore(t *testing.T) {
	memory := &stubSearcher{results: map[string]store.RetrievalResult{
		"q1": cosineResult(scored("a", 0.4), scored("b", 0.9)),
		"q2": cosineResult(scored("a", 0.8), scored("c", 0.5)),
	}}
	r := NewRetriever(nil, memory, 3, 5, testLogger())

	res := r.Retrieve(context.Background(), []string{"q1", "q2"}, store.Query{}, store.Filter{})

	if len(res.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %v", len(res.Chunks), res.IDs())
	}
	byID := map[string]float64{}
	for _, sc := range res.Chunks {
		byID[sc.Chunk.ID] = sc.Score
	}
	if byID["a"] != 0.8 {
		t.Errorf("chunk a score = %v, want max score 0.8, never a sum", byID["a"])
	}
	if res.Chunks[0].Chunk.ID != "b" {
		t.Errorf("top chunk = %s, want b (0.9)", res.Chunks[0].Chunk.ID)
	}
}

func TestRetrieverTruncatesToFinalTopK(t *testing.T) {
	memory := &stubSearcher{results: map[string]store.RetrievalResult{
		"q1": cosineResult(scored("a", 0.9), scored("b", 0.8), scored("c", 0.7)),
		"q2": cosineResult(scored("d", 0.6), scored("e", 0.5)),
	}}
	r := NewRetriever(nil, memory, 3, 2, testLogger())

	res := r.Retrieve(context.Background(), []string{"q1", "q2"}, store.Query{}, store.Filter{})

	if len(res.Chunks) != 2 {
		t.Fatalf("got %d chunks, want finalTopK=2", len(res.Chunks))
	}
	if res.Chunks[0].Chunk.ID != "a" || res.Chunks[1].Chunk.ID != "b" {
		t.Errorf("kept %v, want [a b]", res.IDs())
	}
}

func TestRetrieverNeverMixesScoreMethods(t *testing.T) {
	memory := &stubSearcher{results: map[string]store.RetrievalResult{
		"q1": {Chunks: []store.ScoredChunk{scored("lex", 1.0)}, Method: store.ScoreLexical},
		"q2": cosineResult(scored("cos", 0.2)),
	}}
	r := NewRetriever(nil, memory, 3, 5, testLogger())

	res := r.Retrieve(context.Background(), []string{"q1", "q2"}, store.Query{}, store.Filter{})

	if res.Method != store.ScoreCosine {
		t.Errorf("Method = %s, want cosine preferred over lexical", res.Method)
	}
	for _, sc := range res.Chunks {
		if sc.Chunk.ID == "lex" {
			t.Errorf("lexically-scored chunk mixed into cosine ranking: %v", res.IDs())
		}
	}
}

func TestRetrieverLexicalOnlyResult(t *testing.T) {
	memory := &stubSearcher{results: map[string]store.RetrievalResult{
		"q1": {Chunks: []store.ScoredChunk{scored("lex", 0.5)}, Method: store.ScoreLexical},
	}}
	r := NewRetriever(nil, memory, 3, 5, testLogger())

	res := r.Retrieve(context.Background(), []string{"q1"}, store.Query{}, store.Filter{})

	if res.Method != store.ScoreLexical {
		t.Errorf("Method = %s, want %s", res.Method, store.ScoreLexical)
	}
	if len(res.Chunks) != 1 {
		t.Errorf("got %v, want the lexical chunk kept", res.IDs())
	}
}

func TestRetrieverRemoteFallsBackToMemory(t *testing.T) {
	remote := &stubSearcher{err: errors.New("connection refused")}
	memory := &stubSearcher{results: map[string]store.RetrievalResult{
		"q1": cosineResult(scored("a", 0.9)),
	}}
	r := NewRetriever(remote, memory, 3, 5, testLogger())

	res := r.Retrieve(context.Background(), []string{"q1"}, store.Query{}, store.Filter{})

	if remote.calls != 1 {
		t.Errorf("remote called %d times, want 1", remote.calls)
	}
	if memory.calls != 1 {
		t.Errorf("memory called %d times, want 1 (fallback)", memory.calls)
	}
	if len(res.Chunks) != 1 || res.Chunks[0].Chunk.ID != "a" {
		t.Errorf("fallback result = %v, want [a]", res.IDs())
	}
}

func TestRetrieverRemoteEmptyIsNotFallback(t *testing.T) {
	remote := &stubSearcher{results: map[string]store.RetrievalResult{}}
	memory := &stubSearcher{results: map[string]store.RetrievalResult{
		"q1": cosineResult(scored("a", 0.9)),
	}}
	r := NewRetriever(remote, memory, 3, 5, testLogger())

	res := r.Retrieve(context.Background(), []string{"q1"}, store.Query{}, store.Filter{})

	if memory.calls != 0 {
		t.Errorf("memory called %d times on a valid empty remote result, want 0", memory.calls)
	}
	if !res.Empty() {
		t.Errorf("expected empty result, got %v", res.IDs())
	}
}

func TestRetrieverAllVariantsEmpty(t *testing.T) {
	memory := &stubSearcher{results: map[string]store.RetrievalResult{}}
	r := NewRetriever(nil, memory, 3, 5, testLogger())

	res := r.Retrieve(context.Background(), []string{"q1", "q2", "q3"}, store.Query{}, store.Filter{})

	if !res.Empty() {
		t.Errorf("expected empty aggregate, got %v", res.IDs())
	}
	if memory.calls != 3 {
		t.Errorf("memory called %d times, want one per variant", memory.calls)
	}
}

func TestRetrieverTieKeepsFirstSeen(t *testing.T) {
	first := scored("a", 0.5)
	first.Chunk.Text = "from q1"
	second := scored("a", 0.5)
	second.Chunk.Text = "from q2"

	deduped := dedupeMax([]store.ScoredChunk{first, second})

	if len(deduped) != 1 {
		t.Fatalf("got %d entries, want 1", len(deduped))
	}
	if deduped[0].Chunk.Text != "from q1" {
		t.Errorf("tie kept %q, want first-seen entry", deduped[0].Chunk.Text)
	}
}
