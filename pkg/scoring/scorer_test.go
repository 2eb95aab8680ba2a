package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{
			name:     "exact match",
			a:        "Egyptian",
			b:        "Egyptian",
			expected: 100,
		},
		{
			name:     "exact match ignores case",
			a:        "EGYPTIAN",
			b:        "egyptian",
			expected: 100,
		},
		{
			name:     "exact match ignores surrounding whitespace",
			a:        "  Egyptian  ",
			b:        "Egyptian",
			expected: 100,
		},
		{
			name:     "containment",
			a:        "Saudi",
			b:        "Saudi Arabian",
			expected: 90,
		},
		{
			name:     "containment ignores case",
			a:        "SAUDI ARABIAN",
			b:        "saudi",
			expected: 90,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 100,
		},
		{
			name:     "whitespace only counts as empty",
			a:        "   ",
			b:        "",
			expected: 100,
		},
		{
			name:     "one empty",
			a:        "Egyptian",
			b:        "",
			expected: 0,
		},
		{
			name:     "single substitution",
			a:        "Egyptien",
			b:        "Egyptian",
			expected: 88, // 1 edit over 8 runes
		},
		{
			name:     "completely different",
			a:        "abc",
			b:        "xyz",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.Score(tt.a, tt.b))
		})
	}
}

func TestScoreIsCommutative(t *testing.T) {
	scorer := NewScorer()

	pairs := [][2]string{
		{"Egyptian", "Egypt"},
		{"Saudi Arabian", "Saudi"},
		{"Kuwait", "Kuwaiti"},
		{"abc", "xyz"},
		{"", "Qatar"},
	}

	for _, pair := range pairs {
		assert.Equal(t, scorer.Score(pair[0], pair[1]), scorer.Score(pair[1], pair[0]),
			"score of %q and %q should not depend on argument order", pair[0], pair[1])
	}
}

func TestLevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{name: "identical", a: "egypt", b: "egypt", expected: 0},
		{name: "empty against value", a: "", b: "egypt", expected: 5},
		{name: "single substitution", a: "egypt", b: "egypo", expected: 1},
		{name: "insertion", a: "egypt", b: "egypts", expected: 1},
		{name: "kitten sitting", a: "kitten", b: "sitting", expected: 3},
		{name: "unicode runes", a: "héllo", b: "hello", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.LevenshteinDistance([]rune(tt.a), []rune(tt.b)))
		})
	}
}
