// Package match provides name normalization and similarity scoring for
// resolving extracted participant mentions against directory candidates.
package match

import "strings"

// NormalizeDisplayName converts a directory-style "Surname, Given[ Middle]"
// token into display order:
//   - "Doe, Jane" → "Jane Doe"
//   - "Doe, Jane Marie" → "Jane Marie Doe"
//
// The transform only applies when the input contains a single comma
// separating exactly two non-empty segments; anything else is returned
// unchanged.
func NormalizeDisplayName(name string) string {
	if strings.Count(name, ",") != 1 {
		return name
	}

	parts := strings.SplitN(name, ",", 2)
	last := strings.TrimSpace(parts[0])
	first := strings.TrimSpace(parts[1])
	if first == "" || last == "" {
		return name
	}

	return first + " " + last
}
