package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable wraps any failure to produce a vector from the remote
// backend (network error, non-200, malformed body). Callers treat it as
// a signal to degrade to lexical scoring, never as a hard failure.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Task types understood by the Gemini embedding API. Ollama ignores them
// but the hint is kept on the interface so providers stay swappable.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// Implementations must be idempotent for the same text and model.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}
