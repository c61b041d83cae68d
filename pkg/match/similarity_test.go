package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreName_ExactMatch(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ScoreName("Jane Doe", "Jane Doe"))
	assert.Equal(t, ConfidenceHigh, ScoreName("jane doe", "JANE DOE"))
	assert.Equal(t, ConfidenceHigh, ScoreName("  Jane Doe  ", "Jane Doe"))
}

func TestScoreName_Containment(t *testing.T) {
	// Middle name present in only one source.
	assert.Equal(t, ConfidenceHigh, ScoreName("Jane Doe", "Jane Marie Doe"))
	assert.Equal(t, ConfidenceHigh, ScoreName("Jane Marie Doe", "Jane Doe"))
}

func TestScoreName_TokenOverlap(t *testing.T) {
	// 1 of 2 tokens overlap → ratio 0.5 → medium.
	assert.Equal(t, ConfidenceMedium, ScoreName("Jane Doe", "Doe Smithers"))
	// Token substring match counts either direction.
	assert.Equal(t, ConfidenceMedium, ScoreName("Janet Doe", "Smith Jane"))
}

func TestScoreName_Disjoint(t *testing.T) {
	assert.Equal(t, ConfidenceLow, ScoreName("Jane Doe", "Bob Wilson"))
	assert.Equal(t, ConfidenceLow, ScoreName("", "Bob Wilson"))
	assert.Equal(t, ConfidenceLow, ScoreName("Jane Doe", ""))
}

func TestSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("alice", "alice"))
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("alice", ""))
	assert.Equal(t, 0.0, Similarity("", "alice"))
}

func TestSimilarity_Containment(t *testing.T) {
	assert.Equal(t, 0.8, Similarity("jane", "jane doe"))
	assert.Equal(t, 0.8, Similarity("jane doe", "jane"))
}

func TestSimilarity_Levenshtein(t *testing.T) {
	// "smith" vs "smyth": one substitution over length 5 → 0.8.
	assert.InDelta(t, 0.8, Similarity("smith", "smyth"), 0.0001)
	// "brown" vs "dement": disjoint strings score low.
	assert.Less(t, Similarity("brown", "dement"), 0.4)
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, levenshteinDistance(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}
