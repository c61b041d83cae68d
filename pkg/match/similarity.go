package match

import "strings"

// Confidence is a coarse classification of how well an extracted name
// matches a directory candidate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Tier thresholds for the token-overlap ratio.
const (
	highRatioThreshold   = 0.8
	mediumRatioThreshold = 0.5
)

// ScoreName computes a confidence tier between an extracted name and a
// directory candidate's display name. Rules apply in order, first hit wins:
//
//  1. Case-insensitive exact match after trimming → high.
//  2. One string contains the other → high.
//  3. Token overlap: tokens of the extracted name that substring-match
//     (either direction) some candidate token, divided by the larger token
//     count. ≥0.8 → high, ≥0.5 → medium, else low.
//
// Substring and token heuristics tolerate the common cases: nicknames,
// middle names present in only one source, minor spelling variants.
func ScoreName(extracted, candidate string) Confidence {
	a := strings.ToLower(strings.TrimSpace(extracted))
	b := strings.ToLower(strings.TrimSpace(candidate))

	if a == b {
		return ConfidenceHigh
	}
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return ConfidenceHigh
	}

	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return ConfidenceLow
	}

	matches := 0
	for _, ta := range tokensA {
		for _, tb := range tokensB {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				matches++
				break
			}
		}
	}

	ratio := float64(matches) / float64(max(len(tokensA), len(tokensB)))
	switch {
	case ratio >= highRatioThreshold:
		return ConfidenceHigh
	case ratio >= mediumRatioThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Similarity calculates a continuous similarity score between two strings
// (0.0 to 1.0). Identical strings score 1.0, an empty string scores 0.0,
// and containment short-circuits to 0.8 before falling back to normalized
// Levenshtein distance.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	distance := levenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(max(len(a), len(b)))
}

// levenshteinDistance calculates the Levenshtein distance between two
// strings using the standard dynamic-programming table.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
