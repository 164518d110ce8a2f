package search

import (
	"context"
	"fmt"
	"log"

	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/store"
)

// RemoteIndex retrieves from the external pgvector index: it embeds the
// query, issues a similarity search with the metadata filter pushed down
// to SQL, and maps rows back to scored chunks. Errors propagate to the
// Retriever, which falls back to the in-memory corpus.
type RemoteIndex struct {
	chunkRepo         contract.ChunkRepository
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

var _ Searcher = &RemoteIndex{}

func NewRemoteIndex(chunkRepo contract.ChunkRepository, embeddingProvider embedding.EmbeddingProvider, logger *log.Logger) *RemoteIndex {
	return &RemoteIndex{
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (r *RemoteIndex) Search(ctx context.Context, query store.Query, filter store.Filter, topK int) (store.RetrievalResult, error) {
	embeddingRes, err := r.embeddingProvider.Generate(ctx, query.Text, embedding.TaskRetrievalQuery)
	if err != nil {
		return store.RetrievalResult{}, fmt.Errorf("embedding generation failed: %w", err)
	}

	rows, err := r.chunkRepo.SearchSimilarWithScore(ctx, embeddingRes.Embedding.Values, topK, filter)
	if err != nil {
		return store.RetrievalResult{}, fmt.Errorf("vector search failed: %w", err)
	}

	scored := make([]store.ScoredChunk, 0, len(rows))
	for _, row := range rows {
		if row.Chunk == nil {
			continue
		}
		scored = append(scored, store.ScoredChunk{
			Chunk: store.Chunk{
				ID:       row.Chunk.Id.String(),
				Text:     row.Chunk.Text,
				Metadata: row.Chunk.Metadata,
			},
			Score: row.Similarity,
		})
	}

	r.logger.Printf("[REMOTE] %d row(s) for query %q", len(scored), query.Text)

	// Zero matches without an error is a valid empty result; fallback to
	// the local corpus is reserved for failures.
	return store.RetrievalResult{
		Chunks: scored,
		Method: store.ScoreCosine,
	}, nil
}
