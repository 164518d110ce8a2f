package store

// Chunk represents a retrievable unit of curriculum content for the RAG system
type Chunk struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata"`
	Embedding []float32              `json:"embedding,omitempty"` // nil until computed
}

// ScoreMethod identifies how the scores in a result set were produced.
// A single RetrievalResult never mixes methods.
type ScoreMethod string

const (
	ScoreCosine  ScoreMethod = "COSINE"
	ScoreLexical ScoreMethod = "LEXICAL"
)

// ScoredChunk pairs a chunk with its relevance score.
// Cosine scores live in [-1, 1], lexical scores in [0, 1].
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult is a ranked, deduplicated, truncated set of scored chunks.
type RetrievalResult struct {
	Chunks []ScoredChunk `json:"chunks"`
	Method ScoreMethod   `json:"method"`
}

// Empty reports whether retrieval produced no grounding at all.
// This is a valid outcome, not an error.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// IDs returns the chunk ids in rank order.
func (r RetrievalResult) IDs() []string {
	ids := make([]string, len(r.Chunks))
	for i, sc := range r.Chunks {
		ids[i] = sc.Chunk.ID
	}
	return ids
}
