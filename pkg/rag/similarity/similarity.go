// Package similarity provides the two scoring methods used by retrieval:
// cosine similarity over embedding vectors and, as a degraded fallback,
// lexical overlap over raw strings. The two are never blended into one
// ranking.
package similarity

import (
	"math"
	"strings"
	"unicode"
)

// Cosine computes the cosine similarity between two vectors, in [-1, 1].
// Returns 0 for mismatched lengths or when either vector is all-zero,
// avoiding a division by zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// minLexicalTokenLen filters out stopword-length query tokens ("is",
// "the", "of") that would match almost any passage.
const minLexicalTokenLen = 4

// LexicalOverlap scores a chunk by the fraction of significant query
// tokens that appear as a substring of some chunk token. Tokenization is
// whitespace splitting with case folding. Scores live in [0, 1].
func LexicalOverlap(queryText, chunkText string) float64 {
	queryTokens := tokenize(queryText)
	chunkTokens := tokenize(chunkText)

	var significant, matched int
	for _, qt := range queryTokens {
		if len(qt) < minLexicalTokenLen {
			continue
		}
		significant++
		for _, ct := range chunkTokens {
			if strings.Contains(ct, qt) {
				matched++
				break
			}
		}
	}

	if significant == 0 {
		return 0
	}
	return float64(matched) / float64(significant)
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		// Question marks and commas stick to words after whitespace
		// splitting; strip them so "inertia?" matches "inertia".
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
