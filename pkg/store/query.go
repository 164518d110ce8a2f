package store

// Query carries the student's question plus optional hints.
// GradeHint is a hard retrieval filter; LanguageHint only shapes
// the phrasing of the generated answer.
type Query struct {
	Text         string `json:"text"`
	GradeHint    *int   `json:"grade_hint,omitempty"`
	LanguageHint string `json:"language_hint,omitempty"`
}
