package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases and trims", input: "  Egyptian ", expected: "egyptian"},
		{name: "strips punctuation", input: "U.A.E.", expected: "uae"},
		{name: "collapses internal whitespace", input: "Saudi   Arabian", expected: "saudi arabian"},
		{name: "mixed punctuation and spacing", input: " Korea,  Republic of ", expected: "korea republic of"},
		{name: "empty", input: "", expected: ""},
		{name: "punctuation only", input: "---", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLabel(tt.input))
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "uppercases", input: "eg", expected: "EG"},
		{name: "strips separators", input: "eg-01", expected: "EG01"},
		{name: "strips whitespace", input: " E G ", expected: "EG"},
		{name: "empty", input: "", expected: ""},
		{name: "symbols only", input: "**", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCode(tt.input))
		})
	}
}

func TestApplyChain(t *testing.T) {
	result := ApplyChain("  Hello World!  ", "trim", "lowercase", "remove_punctuation")
	assert.Equal(t, "hello world", result)
}

func TestApplyUnknownNormalizerIsIdentity(t *testing.T) {
	assert.Equal(t, "value", Apply("value", "does_not_exist"))
}

func TestGet(t *testing.T) {
	fn, ok := Get("uppercase")
	assert.True(t, ok)
	assert.Equal(t, "ABC", fn("abc"))

	_, ok = Get("missing")
	assert.False(t, ok)
}
