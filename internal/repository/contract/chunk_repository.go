package contract

import (
	"context"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/specification"
	"ai-tutoring-be/pkg/store"

	"github.com/google/uuid"
)

// ScoredChunk wraps a chunk with its cosine similarity score
type ScoredChunk struct {
	Chunk      *entity.Chunk
	Similarity float64 // -1.0 to 1.0 (1.0 = identical direction)
}

type ChunkRepository interface {
	Create(ctx context.Context, chunk *entity.Chunk) error
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	Update(ctx context.Context, chunk *entity.Chunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SetEmbedding stores a computed vector for a chunk in one write.
	SetEmbedding(ctx context.Context, id uuid.UUID, vec []float32) error
	// SearchSimilarWithScore runs a pgvector cosine search with the
	// metadata filter pushed down to SQL. Results are ranked descending.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, filter store.Filter) ([]*ScoredChunk, error)
}
