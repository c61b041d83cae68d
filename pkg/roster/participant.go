// Package roster holds the in-memory participant roster and the match
// orchestration that resolves extracted identities against the directory
// service. All state is transient, scoped to one editing session.
package roster

import (
	"time"

	"github.com/lumahq/roster/pkg/directory"
	"github.com/lumahq/roster/pkg/match"
)

// Source tags where a participant came from.
type Source string

const (
	SourceTranscript Source = "transcript"
	SourceManual     Source = "manual"
	SourceCSV        Source = "csv"
	SourceEmailList  Source = "emailList"
	SourceMeeting    Source = "meeting"
)

// State is the match state of a participant. Exactly one of the four
// implementations holds at any time, so a "matched" participant always
// carries either a resolved directory identity or an external marking.
type State interface {
	isState()
}

// Searching means a directory lookup is in flight.
type Searching struct{}

// Unmatched means no directory identity is attached. Err records the last
// lookup failure, empty when the participant simply has not matched yet.
type Unmatched struct {
	Err string
}

// MatchedInternal carries a resolved directory profile and the confidence
// tier of the match. The tier is informational for the consumer's risk
// display; it never gates acceptance.
type MatchedInternal struct {
	Profile    directory.Candidate
	Confidence match.Confidence
}

// MatchedExternal marks a participant outside the directory, identified
// only by email and a synthesized display name.
type MatchedExternal struct {
	Email       string
	DisplayName string
}

func (Searching) isState()       {}
func (Unmatched) isState()       {}
func (MatchedInternal) isState() {}
func (MatchedExternal) isState() {}

// Schedule is optional scheduling metadata carried from meeting imports.
type Schedule struct {
	AttendanceType   string
	ResponseStatus   string
	Attended         bool
	AttendedDuration time.Duration
	Spoke            bool
}

// Participant is the durable unit of the roster.
type Participant struct {
	// ID is the stable identifier, assigned at creation.
	ID string

	// RawText is the original extracted or entered text, preserved across
	// rematch.
	RawText string

	// Source tags the participant's provenance.
	Source Source

	// State is the current match state.
	State State

	// Presence is the last presence snapshot, best-effort.
	Presence *directory.Presence

	// Schedule is optional scheduling metadata.
	Schedule *Schedule
}

// IsSearching reports whether a lookup is in flight.
func (p *Participant) IsSearching() bool {
	_, ok := p.State.(Searching)
	return ok
}

// IsMatched reports whether the participant resolved to an internal or
// external identity.
func (p *Participant) IsMatched() bool {
	switch p.State.(type) {
	case MatchedInternal, MatchedExternal:
		return true
	}
	return false
}

// IsExternal reports whether the participant is matched as external.
func (p *Participant) IsExternal() bool {
	_, ok := p.State.(MatchedExternal)
	return ok
}

// MatchError returns the recorded lookup error, if any.
func (p *Participant) MatchError() string {
	if s, ok := p.State.(Unmatched); ok {
		return s.Err
	}
	return ""
}

// Email returns the participant's resolved email, or "".
func (p *Participant) Email() string {
	switch s := p.State.(type) {
	case MatchedInternal:
		return s.Profile.Email
	case MatchedExternal:
		return s.Email
	}
	return ""
}

// DisplayName returns the best display name for the participant, falling
// back to the raw text when unresolved.
func (p *Participant) DisplayName() string {
	switch s := p.State.(type) {
	case MatchedInternal:
		return s.Profile.DisplayName
	case MatchedExternal:
		return s.DisplayName
	}
	return p.RawText
}

// DirectoryID returns the resolved directory identifier, or "".
func (p *Participant) DirectoryID() string {
	if s, ok := p.State.(MatchedInternal); ok {
		return s.Profile.ID
	}
	return ""
}

// Contact is an externally-parsed contact record consumed by BatchAdd.
// Upstream parsers (CSV attendance exports, pasted email lists) produce
// these; the reconciler treats them as opaque input.
type Contact struct {
	Name           string
	Email          string
	AttendanceType string
	ResponseStatus string
}

// BatchAddResult aggregates the counters of one batch reconciliation.
// Added == MatchedInternal + External, and Added + SkippedDuplicate equals
// the number of distinct-by-email input contacts.
type BatchAddResult struct {
	Added            int
	MatchedInternal  int
	External         int
	SkippedDuplicate int
}

// BatchProgress reports the contact about to be processed.
type BatchProgress struct {
	Current int // 1-based position in the input list
	Total   int
	Email   string
}

// ProgressFunc observes batch progress. Called before each contact is
// processed, never for skipped duplicates.
type ProgressFunc func(BatchProgress)
