// Package search implements similarity retrieval over curriculum chunks:
// a remote pgvector-backed index, an in-memory demo corpus, and the
// multi-query aggregator that fans out over expanded queries and merges
// the results into one ranked, deduplicated set.
package search

import (
	"context"

	"ai-tutoring-be/pkg/store"
)

// Searcher is the single capability every retrieval backend exposes.
// Implementations return at most topK chunks ranked by descending score.
// An empty result is a valid outcome, not an error.
type Searcher interface {
	Search(ctx context.Context, query store.Query, filter store.Filter, topK int) (store.RetrievalResult, error)
}
