package dto

type AskRequest struct {
	Question     string `json:"question" validate:"required,min=3"`
	GradeHint    *int   `json:"grade_hint" validate:"omitempty,min=1,max=12"`
	LanguageHint string `json:"language_hint" validate:"omitempty,max=8"`
	Subject      string `json:"subject" validate:"omitempty,max=64"`
}

type GroundedChunkResponse struct {
	Id    string  `json:"id"`
	Score float64 `json:"score"`
}

type AskResponse struct {
	Answer          string                  `json:"answer"`
	GroundedChunks  []GroundedChunkResponse `json:"grounded_chunks"`
	ExpandedQueries []string                `json:"expanded_queries"`
	Cached          bool                    `json:"cached,omitempty"`
}
