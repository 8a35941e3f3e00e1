package matching

import (
	"errors"
	"fmt"
	"math"

	"resume-ranker/internal/keywords"
)

const DefaultKeywordTopN = 30

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// has zero norm.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// KeywordOverlap is the share of the n most frequent job description tokens
// that also occur in the resume text. n <= 0 means 30.
func KeywordOverlap(jdText, resumeText string, n int) float64 {
	if n <= 0 {
		n = DefaultKeywordTopN
	}
	top := keywords.Top(jdText, n)
	if len(top) == 0 {
		return 0
	}
	return overlap(top, keywords.Set(resumeText))
}

func overlap(top []string, set map[string]bool) float64 {
	if len(top) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range top {
		if set[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(top))
}
