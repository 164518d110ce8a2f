package search

import (
	"context"
	"log"
	"sort"
	"sync"

	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/rag/similarity"
	"ai-tutoring-be/pkg/store"

	"golang.org/x/sync/singleflight"
)

// MemoryCorpus holds a small fixed set of chunks and scores them locally.
// Chunk embeddings are computed once per process, lazily, behind a
// single-flight guard so concurrent first requests don't issue duplicate
// embedding calls. If embedding is unavailable, scoring degrades to
// lexical overlap over the same metadata-filtered candidates.
type MemoryCorpus struct {
	chunks            []store.Chunk
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	vectors map[string][]float32
}

var _ Searcher = &MemoryCorpus{}

func NewMemoryCorpus(chunks []store.Chunk, embeddingProvider embedding.EmbeddingProvider, logger *log.Logger) *MemoryCorpus {
	m := &MemoryCorpus{
		chunks:            chunks,
		embeddingProvider: embeddingProvider,
		logger:            logger,
		vectors:           make(map[string][]float32, len(chunks)),
	}
	// Pre-computed embeddings on ingested chunks are trusted as-is.
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			m.vectors[c.ID] = c.Embedding
		}
	}
	return m
}

// Search filters by metadata first, then ranks the survivors. It never
// returns an error: an empty corpus or unreachable embedding backend
// produces an empty or lexically-scored result instead.
func (m *MemoryCorpus) Search(ctx context.Context, query store.Query, filter store.Filter, topK int) (store.RetrievalResult, error) {
	candidates := m.filtered(filter)
	if len(candidates) == 0 {
		return store.RetrievalResult{Method: store.ScoreCosine}, nil
	}

	if queryVec, ok := m.queryVector(ctx, query.Text); ok {
		return m.rankCosine(candidates, queryVec, topK), nil
	}

	return m.rankLexical(candidates, query.Text, topK), nil
}

func (m *MemoryCorpus) filtered(filter store.Filter) []store.Chunk {
	if filter.IsZero() {
		return m.chunks
	}
	var out []store.Chunk
	for _, c := range m.chunks {
		if filter.Matches(c.Metadata) {
			out = append(out, c)
		}
	}
	return out
}

// queryVector embeds the query text, first making sure the corpus
// vectors are populated. Any failure flips the whole call to lexical
// mode so cosine and lexical scores never mix.
func (m *MemoryCorpus) queryVector(ctx context.Context, text string) ([]float32, bool) {
	if err := m.ensureEmbeddings(ctx); err != nil {
		m.logger.Printf("[MEMORY] corpus embedding unavailable, degrading to lexical: %v", err)
		return nil, false
	}

	res, err := m.embeddingProvider.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		m.logger.Printf("[MEMORY] query embedding unavailable, degrading to lexical: %v", err)
		return nil, false
	}
	return res.Embedding.Values, true
}

// ensureEmbeddings populates the corpus vector table at most once per
// process. A failed population leaves the completed entries in place and
// is retried on the next request; concurrent callers share one attempt.
func (m *MemoryCorpus) ensureEmbeddings(ctx context.Context) error {
	m.mu.RLock()
	done := len(m.vectors) == len(m.chunks)
	m.mu.RUnlock()
	if done {
		return nil
	}

	_, err, _ := m.group.Do("populate", func() (interface{}, error) {
		for _, c := range m.chunks {
			m.mu.RLock()
			_, have := m.vectors[c.ID]
			m.mu.RUnlock()
			if have {
				continue
			}

			res, err := m.embeddingProvider.Generate(ctx, c.Text, embedding.TaskRetrievalDocument)
			if err != nil {
				return nil, err
			}

			m.mu.Lock()
			m.vectors[c.ID] = res.Embedding.Values
			m.mu.Unlock()
		}
		return nil, nil
	})
	return err
}

func (m *MemoryCorpus) rankCosine(candidates []store.Chunk, queryVec []float32, topK int) store.RetrievalResult {
	scored := make([]store.ScoredChunk, 0, len(candidates))
	m.mu.RLock()
	for _, c := range candidates {
		vec, ok := m.vectors[c.ID]
		if !ok {
			continue
		}
		scored = append(scored, store.ScoredChunk{
			Chunk: c,
			Score: similarity.Cosine(queryVec, vec),
		})
	}
	m.mu.RUnlock()

	return store.RetrievalResult{
		Chunks: rank(scored, topK),
		Method: store.ScoreCosine,
	}
}

func (m *MemoryCorpus) rankLexical(candidates []store.Chunk, queryText string, topK int) store.RetrievalResult {
	var scored []store.ScoredChunk
	for _, c := range candidates {
		score := similarity.LexicalOverlap(queryText, c.Text)
		if score <= 0 {
			continue
		}
		scored = append(scored, store.ScoredChunk{Chunk: c, Score: score})
	}

	return store.RetrievalResult{
		Chunks: rank(scored, topK),
		Method: store.ScoreLexical,
	}
}

// rank sorts descending by score with chunk id as the deterministic
// tie-break, then truncates to topK.
func rank(scored []store.ScoredChunk, topK int) []store.ScoredChunk {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
