// Package scoring implements label similarity scoring for taxonomy reconciliation
package scoring

import (
	"math"
	"strings"
)

// Scorer compares two label strings and produces a 0-100 confidence that they
// denote the same concept. Scoring is pure and commutative.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns a 0-100 confidence that a and b denote the same concept:
// 100 for a case-insensitive exact match, 90 when one contains the other,
// otherwise the normalized edit distance scaled to 0-100.
func (s *Scorer) Score(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 100
	}

	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return 90
	}

	ra := []rune(a)
	rb := []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 100
	}

	distance := s.LevenshteinDistance(ra, rb)
	return int(math.Round(100 * float64(maxLen-distance) / float64(maxLen)))
}

// LevenshteinDistance calculates the edit distance between two rune slices
func (s *Scorer) LevenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
