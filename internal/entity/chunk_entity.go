package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is a unit of retrievable curriculum content. Metadata is an open
// bag (subject, grade, chapter, tags, difficulty) used only for
// filtering. The embedding is set once by the ingestion consumer;
// re-embedding overwrites it whole, never partially.
type Chunk struct {
	Id         uuid.UUID
	Text       string
	Metadata   map[string]interface{}
	Embedding  []float32
	EmbeddedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

// HasEmbedding reports whether the chunk's vector has been computed.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
