package extract

import "strings"

// Classifier decides whether an email address belongs to one of the
// configured internal domains. An entry of the form "*.example.com" matches
// any sub-domain of example.com; all other entries match the domain exactly.
type Classifier struct {
	exact    map[string]bool
	suffixes []string
}

// NewClassifier creates a classifier from a list of internal domain
// patterns. Patterns are matched case-insensitively.
func NewClassifier(domains []string) *Classifier {
	c := &Classifier{exact: make(map[string]bool)}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(d, "*."); ok {
			c.suffixes = append(c.suffixes, "."+rest)
			continue
		}
		c.exact[d] = true
	}
	return c
}

// IsExternal reports whether the email's domain matches none of the
// internal patterns. Malformed addresses classify as external.
func (c *Classifier) IsExternal(email string) bool {
	return !c.IsInternal(email)
}

// IsInternal reports whether the email belongs to an internal domain.
func (c *Classifier) IsInternal(email string) bool {
	domain := extractDomain(email)
	if domain == "" {
		return false
	}
	if c.exact[domain] {
		return true
	}
	for _, suffix := range c.suffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

// extractDomain returns the lowercased domain of an email address, or ""
// when the address is malformed.
func extractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return strings.ToLower(parts[1])
}

// LocalPart returns the part of an email address before the @, or the
// whole string when no @ is present. Used to synthesize display names for
// external contacts.
func LocalPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
