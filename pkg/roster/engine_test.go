package roster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumahq/roster/pkg/directory"
	rosterrors "github.com/lumahq/roster/pkg/errors"
	"github.com/lumahq/roster/pkg/match"
	"github.com/lumahq/roster/pkg/presence"
)

// fakeDirectory serves canned candidates and records calls. Safe for the
// engine's concurrent fan-out.
type fakeDirectory struct {
	mu          sync.Mutex
	byEmail     map[string]directory.Candidate
	bySearch    map[string][]directory.Candidate
	emailErr    map[string]error
	searchErr   map[string]error
	emailCalls  []string
	searchCalls []string
	blockSearch chan struct{}
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		byEmail:   make(map[string]directory.Candidate),
		bySearch:  make(map[string][]directory.Candidate),
		emailErr:  make(map[string]error),
		searchErr: make(map[string]error),
	}
}

func (f *fakeDirectory) Search(_ context.Context, query string) ([]directory.Candidate, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	block := f.blockSearch
	err := f.searchErr[query]
	results := f.bySearch[query]
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (f *fakeDirectory) LookupByEmail(_ context.Context, email string) (*directory.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailCalls = append(f.emailCalls, email)
	if err := f.emailErr[email]; err != nil {
		return nil, err
	}
	if c, ok := f.byEmail[email]; ok {
		return &c, nil
	}
	return nil, rosterrors.ErrNotFound
}

// fakePresence implements directory.PresenceProvider for cache wiring.
type fakePresence struct {
	mu         sync.Mutex
	presences  map[string]directory.Presence
	batchCalls int
}

func newFakePresence() *fakePresence {
	return &fakePresence{presences: make(map[string]directory.Presence)}
}

func (f *fakePresence) GetPresence(_ context.Context, id string) (*directory.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.presences[id]; ok {
		return &p, nil
	}
	return nil, rosterrors.ErrNotFound
}

func (f *fakePresence) GetPresenceBatch(_ context.Context, ids []string) (map[string]directory.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	results := make(map[string]directory.Presence)
	for _, id := range ids {
		if p, ok := f.presences[id]; ok {
			results[id] = p
		}
	}
	return results, nil
}

func newTestEngine(dir directory.Client, prov directory.PresenceProvider) *Engine {
	opts := Options{
		Directory:       dir,
		InternalDomains: []string{"example.com"},
	}
	if prov != nil {
		opts.Presence = presence.NewCache(prov, presence.Options{})
	}
	return NewEngine(opts)
}

func findByRawText(t *testing.T, participants []Participant, raw string) Participant {
	t.Helper()
	for _, p := range participants {
		if p.RawText == raw {
			return p
		}
	}
	t.Fatalf("no participant with raw text %q", raw)
	return Participant{}
}

func TestExtractAndMatch_MixedIdentities(t *testing.T) {
	dir := newFakeDirectory()
	dir.bySearch["Luis Bustos"] = []directory.Candidate{
		{ID: "u1", DisplayName: "Luis Bustos", Email: "luis.bustos@example.com"},
	}
	dir.byEmail["jane@example.com"] = directory.Candidate{
		ID: "u2", DisplayName: "Jane Doe", Email: "jane@example.com",
	}
	prov := newFakePresence()
	prov.presences["u1"] = directory.Presence{Availability: directory.AvailabilityAvailable}
	prov.presences["u2"] = directory.Presence{Availability: directory.AvailabilityBusy}

	e := newTestEngine(dir, prov)

	text := "Bustos, Luis (LDN-MOM)   10:17\njane@example.com\nvendor@outside.org\n"
	require.NoError(t, e.ExtractAndMatch(context.Background(), text))

	participants := e.Participants()
	require.Len(t, participants, 3)

	name := findByRawText(t, participants, "Bustos, Luis")
	state, ok := name.State.(MatchedInternal)
	require.True(t, ok)
	assert.Equal(t, "u1", state.Profile.ID)
	assert.Equal(t, match.ConfidenceHigh, state.Confidence)
	require.NotNil(t, name.Presence)
	assert.Equal(t, directory.AvailabilityAvailable, name.Presence.Availability)

	jane := findByRawText(t, participants, "jane@example.com")
	janeState, ok := jane.State.(MatchedInternal)
	require.True(t, ok)
	assert.Equal(t, "u2", janeState.Profile.ID)
	require.NotNil(t, jane.Presence)

	vendor := findByRawText(t, participants, "vendor@outside.org")
	vendorState, ok := vendor.State.(MatchedExternal)
	require.True(t, ok)
	assert.Equal(t, "vendor@outside.org", vendorState.Email)
	assert.Equal(t, "vendor", vendorState.DisplayName)
	assert.Nil(t, vendor.Presence)

	// External emails never reach the directory.
	assert.NotContains(t, dir.emailCalls, "vendor@outside.org")
	// Presence for both internal identities fetched in one batch.
	assert.Equal(t, 1, prov.batchCalls)
	assert.False(t, e.IsExtracting())
}

func TestExtractAndMatch_ErrorIsolation(t *testing.T) {
	dir := newFakeDirectory()
	dir.byEmail["good@example.com"] = directory.Candidate{ID: "u1", Email: "good@example.com"}
	dir.emailErr["bad@example.com"] = errors.New("directory unreachable")

	e := newTestEngine(dir, nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "good@example.com bad@example.com"))

	participants := e.Participants()
	require.Len(t, participants, 2)

	good := findByRawText(t, participants, "good@example.com")
	assert.True(t, good.IsMatched())

	bad := findByRawText(t, participants, "bad@example.com")
	assert.False(t, bad.IsMatched())
	assert.Contains(t, bad.MatchError(), "directory unreachable")
}

func TestExtractAndMatch_NoCandidates(t *testing.T) {
	dir := newFakeDirectory()

	e := newTestEngine(dir, nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "Nowhere, Nancy (ZZZ-ZZZ)"))

	participants := e.Participants()
	require.Len(t, participants, 1)
	assert.False(t, participants[0].IsMatched())
	assert.Contains(t, participants[0].MatchError(), "no directory matches")
}

func TestExtractAndMatch_NotConfigured(t *testing.T) {
	e := NewEngine(Options{})
	err := e.ExtractAndMatch(context.Background(), "jane@example.com")
	assert.True(t, rosterrors.IsNotConfigured(err))
}

func TestExtractAndMatch_EmptyText(t *testing.T) {
	e := newTestEngine(newFakeDirectory(), nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "   \n "))
	assert.Empty(t, e.Participants())
}

func TestExtractAndMatch_RejectsConcurrentPass(t *testing.T) {
	dir := newFakeDirectory()
	dir.blockSearch = make(chan struct{})

	e := newTestEngine(dir, nil)

	done := make(chan error, 1)
	go func() {
		done <- e.ExtractAndMatch(context.Background(), "Nowhere, Nancy (ZZZ-ZZZ)")
	}()

	require.Eventually(t, e.IsExtracting, time.Second, time.Millisecond)

	err := e.ExtractAndMatch(context.Background(), "jane@example.com")
	assert.True(t, rosterrors.IsInvalidState(err))

	close(dir.blockSearch)
	require.NoError(t, <-done)
	assert.False(t, e.IsExtracting())
}

func TestAddParticipant(t *testing.T) {
	e := newTestEngine(newFakeDirectory(), nil)

	candidate := directory.Candidate{ID: "u1", DisplayName: "Jane Doe", Email: "jane@example.com"}
	p, err := e.AddParticipant(context.Background(), candidate)
	require.NoError(t, err)
	assert.Equal(t, SourceManual, p.Source)
	assert.True(t, p.IsMatched())

	// Same email again is a no-op.
	_, err = e.AddParticipant(context.Background(), candidate)
	assert.True(t, rosterrors.IsAlreadyExists(err))
	assert.Len(t, e.Participants(), 1)
}

func TestSearchAndMatch_ShortQueryIssuesNoCall(t *testing.T) {
	dir := newFakeDirectory()
	e := newTestEngine(dir, nil)

	p, err := e.AddParticipant(context.Background(), directory.Candidate{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	candidates, err := e.SearchAndMatch(context.Background(), p.ID, " x ")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Empty(t, dir.searchCalls)
}

func TestSearchAndMatch_ReturnsCandidatesWithoutMutating(t *testing.T) {
	dir := newFakeDirectory()
	dir.bySearch["jane"] = []directory.Candidate{
		{ID: "u1", DisplayName: "Jane Doe"},
		{ID: "u2", DisplayName: "Jane Smith"},
	}
	dir.emailErr["stale@example.com"] = errors.New("boom")

	e := newTestEngine(dir, nil)
	// Seed an unmatched participant with a recorded error.
	require.NoError(t, e.ExtractAndMatch(context.Background(), "stale@example.com"))
	id := e.Participants()[0].ID

	candidates, err := e.SearchAndMatch(context.Background(), id, "jane")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "u1", candidates[0].ID)

	// Still unmatched, but the prior error is cleared.
	p := e.Participants()[0]
	assert.False(t, p.IsMatched())
	assert.Empty(t, p.MatchError())
}

func TestSearchAndMatch_SearchErrorRecorded(t *testing.T) {
	dir := newFakeDirectory()
	dir.searchErr["jane"] = errors.New("directory unreachable")

	e := newTestEngine(dir, nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "unknown@example.com"))
	id := e.Participants()[0].ID

	_, err := e.SearchAndMatch(context.Background(), id, "jane")
	require.Error(t, err)
	assert.Contains(t, e.Participants()[0].MatchError(), "directory unreachable")
}

func TestSearchAndMatch_FailureLeavesMatchIntact(t *testing.T) {
	dir := newFakeDirectory()
	dir.searchErr["someone else"] = errors.New("directory unreachable")

	e := newTestEngine(dir, nil)
	candidate := directory.Candidate{ID: "u1", DisplayName: "Jane Doe", Email: "jane@example.com"}
	p, err := e.AddParticipant(context.Background(), candidate)
	require.NoError(t, err)
	require.True(t, p.IsMatched())

	_, err = e.SearchAndMatch(context.Background(), p.ID, "someone else")
	require.Error(t, err)

	after := e.Participants()[0]
	state, ok := after.State.(MatchedInternal)
	require.True(t, ok, "failed search must not demote a matched participant")
	assert.Equal(t, "u1", state.Profile.ID)
	assert.Empty(t, after.MatchError())
}

func TestSearchAndMatch_UnknownParticipant(t *testing.T) {
	e := newTestEngine(newFakeDirectory(), nil)
	_, err := e.SearchAndMatch(context.Background(), "missing", "jane doe")
	assert.True(t, rosterrors.IsNotFound(err))
}

func TestConfirmMatch(t *testing.T) {
	dir := newFakeDirectory()
	dir.emailErr["x@example.com"] = errors.New("boom")
	prov := newFakePresence()
	prov.presences["u7"] = directory.Presence{Availability: directory.AvailabilityAway}

	e := newTestEngine(dir, prov)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "x@example.com"))
	id := e.Participants()[0].ID

	candidate := directory.Candidate{ID: "u7", DisplayName: "Xavier Xu", Email: "x@example.com"}
	require.NoError(t, e.ConfirmMatch(context.Background(), id, candidate))

	p := e.Participants()[0]
	state, ok := p.State.(MatchedInternal)
	require.True(t, ok)
	assert.Equal(t, "u7", state.Profile.ID)
	assert.Equal(t, match.ConfidenceHigh, state.Confidence)
	require.NotNil(t, p.Presence)
	assert.Equal(t, directory.AvailabilityAway, p.Presence.Availability)
}

func TestMarkAsExternal(t *testing.T) {
	e := newTestEngine(newFakeDirectory(), nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "unknown@example.com"))
	id := e.Participants()[0].ID

	require.NoError(t, e.MarkAsExternal(id, "vendor@external.com"))

	p := e.Participants()[0]
	state, ok := p.State.(MatchedExternal)
	require.True(t, ok)
	assert.Equal(t, "vendor@external.com", state.Email)
	assert.Equal(t, "vendor", state.DisplayName)
}

func TestRematch_ResetsPreservingIdentity(t *testing.T) {
	dir := newFakeDirectory()
	dir.byEmail["jane@example.com"] = directory.Candidate{ID: "u1", Email: "jane@example.com"}

	e := newTestEngine(dir, nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "jane@example.com"))

	before := e.Participants()[0]
	require.True(t, before.IsMatched())

	require.NoError(t, e.Rematch(before.ID))

	after := e.Participants()[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.RawText, after.RawText)
	assert.False(t, after.IsMatched())
	assert.False(t, after.IsSearching())
	assert.Empty(t, after.MatchError())
	assert.Nil(t, after.Presence)
}

func TestRematch_DiscardsInFlightResult(t *testing.T) {
	dir := newFakeDirectory()
	dir.bySearch["Nancy Nowhere"] = []directory.Candidate{{ID: "u1", DisplayName: "Nancy Nowhere"}}
	dir.blockSearch = make(chan struct{})

	e := newTestEngine(dir, nil)

	done := make(chan error, 1)
	go func() {
		done <- e.ExtractAndMatch(context.Background(), "Nowhere, Nancy (ZZZ-ZZZ)")
	}()

	// Wait for the searching participant to appear, then reset it while
	// the lookup is still in flight.
	require.Eventually(t, func() bool {
		return len(e.Participants()) == 1
	}, time.Second, time.Millisecond)
	id := e.Participants()[0].ID
	require.NoError(t, e.Rematch(id))

	close(dir.blockSearch)
	require.NoError(t, <-done)

	// The stale result must not resurrect the match.
	p := e.Participants()[0]
	assert.False(t, p.IsMatched())
}

func TestRemove(t *testing.T) {
	dir := newFakeDirectory()
	dir.byEmail["jane@example.com"] = directory.Candidate{ID: "u1", Email: "jane@example.com"}

	e := newTestEngine(dir, nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "jane@example.com"))
	id := e.Participants()[0].ID

	require.NoError(t, e.Remove(id))
	assert.Empty(t, e.Participants())
	assert.True(t, rosterrors.IsNotFound(e.Remove(id)))
}

func TestClear(t *testing.T) {
	dir := newFakeDirectory()
	dir.byEmail["jane@example.com"] = directory.Candidate{ID: "u1", Email: "jane@example.com"}

	e := newTestEngine(dir, newFakePresence())
	require.NoError(t, e.ExtractAndMatch(context.Background(), "jane@example.com"))
	require.NotEmpty(t, e.Participants())

	require.NoError(t, e.Clear(context.Background()))
	assert.Empty(t, e.Participants())
}

func TestParticipants_SnapshotIsolation(t *testing.T) {
	dir := newFakeDirectory()
	dir.byEmail["jane@example.com"] = directory.Candidate{ID: "u1", Email: "jane@example.com"}

	e := newTestEngine(dir, nil)
	require.NoError(t, e.ExtractAndMatch(context.Background(), "jane@example.com"))

	snapshot := e.Participants()
	snapshot[0].RawText = "mutated"
	assert.NotEqual(t, "mutated", e.Participants()[0].RawText)
}
