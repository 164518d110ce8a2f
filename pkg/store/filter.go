package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter marks a malformed caller-supplied filter (bad grade,
// unknown key). It is the only retrieval error that should surface to the
// API caller as a bad request.
var ErrInvalidFilter = errors.New("invalid retrieval filter")

const (
	MetaKeyGrade   = "grade"
	MetaKeySubject = "subject"

	MinGrade = 1
	MaxGrade = 12
)

// Filter is an equality filter over chunk metadata. Metadata is used for
// filtering only, never for scoring. The zero value matches everything.
type Filter struct {
	Grade   *int
	Subject string
}

// NewFilter validates the caller-supplied hints at the construction
// boundary, so scoring code never has to.
func NewFilter(gradeHint *int, subject string) (Filter, error) {
	if gradeHint != nil && (*gradeHint < MinGrade || *gradeHint > MaxGrade) {
		return Filter{}, fmt.Errorf("%w: grade %d outside %d..%d", ErrInvalidFilter, *gradeHint, MinGrade, MaxGrade)
	}
	return Filter{Grade: gradeHint, Subject: subject}, nil
}

// IsZero reports whether the filter matches all chunks.
func (f Filter) IsZero() bool {
	return f.Grade == nil && f.Subject == ""
}

// Matches checks a chunk's open metadata bag against the filter.
// Content is externally authored, so values arrive as whatever the
// store handed back (int from Go literals, float64 from JSONB).
func (f Filter) Matches(metadata map[string]interface{}) bool {
	if f.Grade != nil {
		grade, ok := metaInt(metadata[MetaKeyGrade])
		if !ok || grade != *f.Grade {
			return false
		}
	}
	if f.Subject != "" {
		subject, _ := metadata[MetaKeySubject].(string)
		if !strings.EqualFold(subject, f.Subject) {
			return false
		}
	}
	return true
}

func metaInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
