package extract

import "strings"

// Deduplicate collapses identities to at most one entry per unique key,
// preserving first-seen order. The key is the lowercased email when
// present, else the lowercased normalized name. Identities with neither
// are retained unconditionally. Runs once per extraction pass, before any
// directory lookups, to avoid wasted API calls.
func Deduplicate(identities []Identity) []Identity {
	seen := make(map[string]bool, len(identities))
	result := make([]Identity, 0, len(identities))

	for _, id := range identities {
		key := dedupeKey(id)
		if key == "" {
			result = append(result, id)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, id)
	}

	return result
}

func dedupeKey(id Identity) string {
	if id.Email != "" {
		return "email:" + strings.ToLower(id.Email)
	}
	if id.Name != "" {
		return "name:" + strings.ToLower(id.Name)
	}
	return ""
}
