package specification

import "gorm.io/gorm"

// ByGrade filters chunks by the grade key in their JSONB metadata.
type ByGrade struct {
	Grade int
}

func (s ByGrade) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(metadata->>'grade')::int = ?", s.Grade)
}

// BySubject filters chunks by subject metadata (case-insensitive).
type BySubject struct {
	Subject string
}

func (s BySubject) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("metadata->>'subject' ILIKE ?", s.Subject)
}

// MissingEmbedding selects chunks whose vector has not been computed,
// used by the backfill path of the embedding consumer.
type MissingEmbedding struct{}

func (s MissingEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedded_at IS NULL")
}
