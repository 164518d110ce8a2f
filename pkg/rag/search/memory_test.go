package search

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/store"
)

// fakeEmbedder maps exact text to a fixed vector and counts calls.
// Texts without a mapping produce an error wrapping ErrUnavailable.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	fail    bool
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("%w: forced failure", embedding.ErrUnavailable)
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("%w: no vector for %q", embedding.ErrUnavailable, text)
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: vec},
	}, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testChunks() []store.Chunk {
	return []store.Chunk{
		{
			ID:       "phy-1",
			Text:     "Inertia is the resistance of a body to changes in its motion.",
			Metadata: map[string]interface{}{"subject": "physics", "grade": 9},
		},
		{
			ID:       "bio-1",
			Text:     "Photosynthesis converts light energy into chemical energy.",
			Metadata: map[string]interface{}{"subject": "biology", "grade": 9},
		},
		{
			ID:       "mat-1",
			Text:     "A linear equation describes a straight line.",
			Metadata: map[string]interface{}{"subject": "math", "grade": 7},
		},
	}
}

func testEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"Inertia is the resistance of a body to changes in its motion.": {1, 0, 0},
		"Photosynthesis converts light energy into chemical energy.":    {0, 1, 0},
		"A linear equation describes a straight line.":                  {0, 0, 1},
		"what is inertia":                                               {0.9, 0.1, 0},
		"what happens to light":                                         {0.1, 0.9, 0},
	}}
}

func TestMemoryCorpusCosineRanking(t *testing.T) {
	m := NewMemoryCorpus(testChunks(), testEmbedder(), testLogger())

	res, err := m.Search(context.Background(), store.Query{Text: "what is inertia"}, store.Filter{}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if res.Method != store.ScoreCosine {
		t.Errorf("Method = %s, want %s", res.Method, store.ScoreCosine)
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(res.Chunks))
	}
	if res.Chunks[0].Chunk.ID != "phy-1" {
		t.Errorf("top chunk = %s, want phy-1", res.Chunks[0].Chunk.ID)
	}
	if res.Chunks[0].Score <= res.Chunks[1].Score {
		t.Errorf("results not in descending score order: %v", res.Chunks)
	}
}

func TestMemoryCorpusMetadataFilter(t *testing.T) {
	m := NewMemoryCorpus(testChunks(), testEmbedder(), testLogger())
	grade := 7

	res, err := m.Search(context.Background(), store.Query{Text: "what is inertia"}, store.Filter{Grade: &grade}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	for _, sc := range res.Chunks {
		if sc.Chunk.Metadata["grade"] != 7 {
			t.Errorf("chunk %s leaked through grade filter", sc.Chunk.ID)
		}
	}
}

func TestMemoryCorpusFilterMismatchIsEmptyNotError(t *testing.T) {
	m := NewMemoryCorpus(testChunks(), testEmbedder(), testLogger())
	grade := 3

	res, err := m.Search(context.Background(), store.Query{Text: "what is inertia"}, store.Filter{Grade: &grade}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !res.Empty() {
		t.Errorf("expected empty result for unmatched grade, got %v", res.IDs())
	}
}

func TestMemoryCorpusLexicalFallback(t *testing.T) {
	emb := testEmbedder()
	emb.fail = true
	m := NewMemoryCorpus(testChunks(), emb, testLogger())

	res, err := m.Search(context.Background(), store.Query{Text: "inertia motion"}, store.Filter{}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if res.Method != store.ScoreLexical {
		t.Errorf("Method = %s, want %s", res.Method, store.ScoreLexical)
	}
	if len(res.Chunks) != 1 || res.Chunks[0].Chunk.ID != "phy-1" {
		t.Errorf("lexical result = %v, want just phy-1", res.IDs())
	}
	for _, sc := range res.Chunks {
		if sc.Score <= 0 || sc.Score > 1 {
			t.Errorf("lexical score %v outside (0, 1]", sc.Score)
		}
	}
}

func TestMemoryCorpusEmptyCorpus(t *testing.T) {
	m := NewMemoryCorpus(nil, testEmbedder(), testLogger())

	res, err := m.Search(context.Background(), store.Query{Text: "anything"}, store.Filter{}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !res.Empty() {
		t.Errorf("expected empty result from empty corpus, got %v", res.IDs())
	}
}

func TestMemoryCorpusEmbedsCorpusOnce(t *testing.T) {
	emb := testEmbedder()
	m := NewMemoryCorpus(testChunks(), emb, testLogger())

	ctx := context.Background()
	m.Search(ctx, store.Query{Text: "what is inertia"}, store.Filter{}, 5)
	m.Search(ctx, store.Query{Text: "what happens to light"}, store.Filter{}, 5)

	// 3 corpus chunks embedded once, plus one call per query.
	if got := emb.callCount(); got != 5 {
		t.Errorf("embedder called %d times, want 5", got)
	}
}

func TestMemoryCorpusConcurrentPopulationIsShared(t *testing.T) {
	emb := testEmbedder()
	m := NewMemoryCorpus(testChunks(), emb, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Search(context.Background(), store.Query{Text: "what is inertia"}, store.Filter{}, 5)
		}()
	}
	wg.Wait()

	// 3 corpus embeddings shared across callers, 8 query embeddings.
	if got := emb.callCount(); got != 11 {
		t.Errorf("embedder called %d times, want 11", got)
	}
}

func TestMemoryCorpusTrustsPresetEmbeddings(t *testing.T) {
	chunks := testChunks()
	for i := range chunks {
		chunks[i].Embedding = []float32{float32(i + 1), 0, 0}
	}
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"query": {1, 0, 0},
	}}
	m := NewMemoryCorpus(chunks, emb, testLogger())

	res, err := m.Search(context.Background(), store.Query{Text: "query"}, store.Filter{}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Method != store.ScoreCosine {
		t.Errorf("Method = %s, want %s", res.Method, store.ScoreCosine)
	}
	// Only the query itself should have been embedded.
	if got := emb.callCount(); got != 1 {
		t.Errorf("embedder called %d times, want 1", got)
	}
}
