package search

import (
	"context"
	"log"
	"sync"

	"ai-tutoring-be/pkg/store"
)

const (
	// DefaultPerQueryTopK bounds each expanded query's contribution.
	DefaultPerQueryTopK = 3
	// DefaultFinalTopK bounds the merged result handed to generation.
	DefaultFinalTopK = 5
)

// Retriever fans one search out per expanded query, merges the results,
// deduplicates by chunk id keeping the highest score, and returns a
// final ranked top-K. Per-query searches run concurrently; the merge is
// commutative, so parallelism changes latency, never the result.
//
// Backend fallback is three-tier: remote vector search, then the local
// corpus with vector scoring, then the local corpus with lexical
// scoring. The memory corpus handles the last step internally.
type Retriever struct {
	remote       Searcher // nil when no remote index is configured
	memory       Searcher
	perQueryTopK int
	finalTopK    int
	logger       *log.Logger
}

func NewRetriever(remote, memory Searcher, perQueryTopK, finalTopK int, logger *log.Logger) *Retriever {
	if perQueryTopK <= 0 {
		perQueryTopK = DefaultPerQueryTopK
	}
	if finalTopK <= 0 {
		finalTopK = DefaultFinalTopK
	}
	return &Retriever{
		remote:       remote,
		memory:       memory,
		perQueryTopK: perQueryTopK,
		finalTopK:    finalTopK,
		logger:       logger,
	}
}

// Retrieve runs every query variant and aggregates. An all-empty outcome
// is valid and signals insufficient grounding to the orchestrator.
func (r *Retriever) Retrieve(ctx context.Context, queries []string, base store.Query, filter store.Filter) store.RetrievalResult {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		buckets = map[store.ScoreMethod][]store.ScoredChunk{}
	)

	for _, q := range queries {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()

			query := base
			query.Text = text
			res := r.searchOne(ctx, query, filter)

			mu.Lock()
			buckets[res.Method] = append(buckets[res.Method], res.Chunks...)
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	// One ranking never mixes scoring methods. If any variant produced
	// cosine scores, lexically-scored stragglers are discarded.
	method := store.ScoreCosine
	working := buckets[store.ScoreCosine]
	if len(working) == 0 && len(buckets[store.ScoreLexical]) > 0 {
		method = store.ScoreLexical
		working = buckets[store.ScoreLexical]
	}

	deduped := dedupeMax(working)
	ranked := rank(deduped, r.finalTopK)

	r.logger.Printf("[RETRIEVE] %d variant(s) -> %d candidate(s) -> %d kept (%s)",
		len(queries), len(working), len(ranked), method)

	return store.RetrievalResult{Chunks: ranked, Method: method}
}

// searchOne applies the backend fallback chain for a single query.
func (r *Retriever) searchOne(ctx context.Context, query store.Query, filter store.Filter) store.RetrievalResult {
	if r.remote != nil {
		res, err := r.remote.Search(ctx, query, filter, r.perQueryTopK)
		if err == nil {
			return res
		}
		r.logger.Printf("[RETRIEVE] remote index failed for %q, falling back to local corpus: %v", query.Text, err)
	}

	res, err := r.memory.Search(ctx, query, filter, r.perQueryTopK)
	if err != nil {
		// The memory corpus contract is error-free; treat a violation as
		// an empty result rather than surfacing it.
		r.logger.Printf("[RETRIEVE] local corpus failed for %q: %v", query.Text, err)
		return store.RetrievalResult{Method: store.ScoreCosine}
	}
	return res
}

// dedupeMax collapses duplicate chunk ids, keeping the entry with the
// strictly greater score. Ties keep the first-seen entry, which never
// rewards a chunk for being found by several query variants.
func dedupeMax(chunks []store.ScoredChunk) []store.ScoredChunk {
	best := make(map[string]store.ScoredChunk, len(chunks))
	order := make([]string, 0, len(chunks))

	for _, sc := range chunks {
		id := sc.Chunk.ID
		existing, seen := best[id]
		if !seen {
			best[id] = sc
			order = append(order, id)
			continue
		}
		if sc.Score > existing.Score {
			best[id] = sc
		}
	}

	out := make([]store.ScoredChunk, 0, len(best))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}
