// Package extract pulls candidate participant identities out of raw
// transcript text. It recognizes directory-export name lines and email
// addresses, classifies emails as internal or external, and deduplicates
// results before any directory lookups are issued.
package extract

import (
	"regexp"
	"strings"
)

// Origin indicates which pattern produced an identity.
type Origin string

const (
	OriginName  Origin = "name-pattern"
	OriginEmail Origin = "email-pattern"
)

// Identity is a candidate mention pulled from text. Immutable once created.
type Identity struct {
	// RawText is the text the pattern matched.
	RawText string

	// Name is the normalized display name, set for name-pattern matches.
	Name string

	// Email is the lowercased address, set for email-pattern matches.
	Email string

	// Origin records which extraction pass produced this identity.
	Origin Origin

	// External is true when Email does not belong to an internal domain.
	// Meaningless for name-pattern identities.
	External bool
}

// Extraction patterns.
var (
	// Directory export convention: "Surname, GivenName[ MiddleName] (ABC-DEF)"
	// anchored at line start. The site code suffix is required but not part
	// of the captured name.
	namePattern = regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z.'-]*(?: [A-Za-z][A-Za-z.'-]*)*, [A-Za-z][A-Za-z.'-]*(?: [A-Za-z][A-Za-z.'-]*)*?)\s*\([A-Z]{3}-[A-Z]{3}\)`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// Normalizer converts a captured "Surname, Given" token into display form.
// Wired to match.NormalizeDisplayName by the composition root; declared as a
// function type so extract does not import the scoring package.
type Normalizer func(string) string

// Extractor extracts participant identities from transcript text.
type Extractor struct {
	classifier *Classifier
	normalize  Normalizer
}

// NewExtractor creates an extractor using the given internal-domain
// classifier and name normalizer.
func NewExtractor(classifier *Classifier, normalize Normalizer) *Extractor {
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	return &Extractor{classifier: classifier, normalize: normalize}
}

// Extract returns all identities found in text: one pass for names, one
// for emails, concatenated. Duplicates within a pass are suppressed, first
// occurrence wins. Empty or whitespace-only input yields an empty slice.
func (e *Extractor) Extract(text string) []Identity {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var identities []Identity

	seenNames := make(map[string]bool)
	for _, m := range namePattern.FindAllStringSubmatch(text, -1) {
		raw := strings.TrimSpace(m[1])
		if seenNames[raw] {
			continue
		}
		seenNames[raw] = true
		identities = append(identities, Identity{
			RawText: raw,
			Name:    e.normalize(raw),
			Origin:  OriginName,
		})
	}

	seenEmails := make(map[string]bool)
	for _, m := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(m)
		if seenEmails[email] {
			continue
		}
		seenEmails[email] = true
		identities = append(identities, Identity{
			RawText:  m,
			Email:    email,
			Origin:   OriginEmail,
			External: e.classifier.IsExternal(email),
		})
	}

	return identities
}
