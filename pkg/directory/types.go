// Package directory defines the contracts for the external identity
// directory this engine depends on: search-by-name, search-by-email, and
// live presence lookup. An HTTP adapter implementation is provided; the
// engine itself only depends on the interfaces.
package directory

import "context"

// Candidate is a directory search result. Carried transiently through a
// matching operation; never persisted beyond it.
type Candidate struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
	JobTitle       string `json:"job_title,omitempty"`
	Department     string `json:"department,omitempty"`
	Company        string `json:"company,omitempty"`
	OfficeLocation string `json:"office_location,omitempty"`
	PhotoURL       string `json:"photo_url,omitempty"`
}

// Availability is the coarse presence state of a directory identity.
type Availability string

const (
	AvailabilityAvailable    Availability = "available"
	AvailabilityBusy         Availability = "busy"
	AvailabilityAway         Availability = "away"
	AvailabilityDoNotDisturb Availability = "do_not_disturb"
	AvailabilityOffline      Availability = "offline"
	AvailabilityUnknown      Availability = "unknown"
)

// Presence is the live status of a directory identity.
type Presence struct {
	Availability Availability `json:"availability"`
	Activity     string       `json:"activity,omitempty"`
}

// Client looks up people in the directory. Ranking of search results is
// applied by the service; callers treat index 0 as best.
type Client interface {
	// Search returns an ordered list of candidates for a free-text query.
	Search(ctx context.Context, query string) ([]Candidate, error)

	// LookupByEmail returns the single candidate holding the exact email,
	// or an error wrapping errors.ErrNotFound when no one does.
	LookupByEmail(ctx context.Context, email string) (*Candidate, error)
}

// PresenceProvider fetches live presence for directory identities.
type PresenceProvider interface {
	// GetPresence returns presence for a single identity.
	GetPresence(ctx context.Context, id string) (*Presence, error)

	// GetPresenceBatch returns presence for up to BatchLimit identities in
	// one request. The result map may be partial: identities the caller is
	// not authorized to observe are omitted, not errors.
	GetPresenceBatch(ctx context.Context, ids []string) (map[string]Presence, error)
}

// BatchLimit is the presence service's batch-request ceiling.
const BatchLimit = 20
