package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumahq/roster/pkg/directory"
	rosterrors "github.com/lumahq/roster/pkg/errors"
	"github.com/lumahq/roster/pkg/extract"
	"github.com/lumahq/roster/pkg/logging"
	"github.com/lumahq/roster/pkg/match"
	"github.com/lumahq/roster/pkg/observability"
	"github.com/lumahq/roster/pkg/presence"
)

// minSearchQueryLen is the shortest manual search query that triggers a
// directory call.
const minSearchQueryLen = 2

// Options configures an Engine.
type Options struct {
	// Directory resolves identities. Required for any matching operation.
	Directory directory.Client

	// Presence enriches matched participants with live status. Optional;
	// without it presence is simply never attached.
	Presence *presence.Cache

	// InternalDomains are the email domain patterns classified as internal
	// (exact domains plus "*."-prefixed wildcard families).
	InternalDomains []string

	// Logger defaults to a nop logger.
	Logger logging.Logger

	// Metrics is optional.
	Metrics *observability.Metrics

	// Tracer defaults to a fresh tracer (no-op without an SDK installed).
	Tracer *observability.Tracer
}

// Engine owns the roster for one editing session and orchestrates
// extraction, matching, manual correction, and presence enrichment.
// Safe for concurrent use; roster mutations from asynchronous lookups are
// applied under lock and guarded by per-participant generations so a late
// result for a removed or rematched participant is discarded.
type Engine struct {
	mu           sync.Mutex
	participants []*Participant
	index        map[string]*Participant
	generations  map[string]uint64
	extracting   bool

	directory  directory.Client
	presence   *presence.Cache
	classifier *extract.Classifier
	extractor  *extract.Extractor
	logger     logging.Logger
	metrics    *observability.Metrics
	tracer     *observability.Tracer
}

// NewEngine creates an engine with an empty roster.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NewTracer()
	}

	classifier := extract.NewClassifier(opts.InternalDomains)
	return &Engine{
		index:       make(map[string]*Participant),
		generations: make(map[string]uint64),
		directory:   opts.Directory,
		presence:    opts.Presence,
		classifier:  classifier,
		extractor:   extract.NewExtractor(classifier, match.NormalizeDisplayName),
		logger:      logger.With(logging.F("component", "roster_engine")),
		metrics:     opts.Metrics,
		tracer:      tracer,
	}
}

// ExtractAndMatch extracts identities from transcript text, seeds the
// roster with searching participants, and resolves each concurrently.
// All resolutions are dispatched together and joined before returning;
// one identity's failure leaves the others untouched. Presence is then
// fetched in one batch for every identity that resolved internally.
// Only one pass may run at a time; a second call while extracting is
// rejected.
func (e *Engine) ExtractAndMatch(ctx context.Context, text string) error {
	if e.directory == nil {
		return fmt.Errorf("extract and match: %w", rosterrors.ErrNotConfigured)
	}

	identities := extract.Deduplicate(e.extractor.Extract(text))
	if e.metrics != nil {
		for _, identity := range identities {
			e.metrics.IdentitiesExtractedTotal.WithLabelValues(string(identity.Origin)).Inc()
		}
	}

	ctx, span := e.tracer.StartExtractSpan(ctx, len(identities))
	defer span.End()

	type resolveTask struct {
		participantID string
		gen           uint64
		identity      extract.Identity
	}

	e.mu.Lock()
	if e.extracting {
		e.mu.Unlock()
		return fmt.Errorf("extraction already in progress: %w", rosterrors.ErrInvalidState)
	}
	e.extracting = true
	tasks := make([]resolveTask, 0, len(identities))
	for _, identity := range identities {
		p := &Participant{
			ID:      uuid.NewString(),
			RawText: identity.RawText,
			Source:  SourceTranscript,
			State:   Searching{},
		}
		e.participants = append(e.participants, p)
		e.index[p.ID] = p
		tasks = append(tasks, resolveTask{
			participantID: p.ID,
			gen:           e.generations[p.ID],
			identity:      identity,
		})
	}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.extracting = false
		e.mu.Unlock()
	}()

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task resolveTask) {
			defer wg.Done()
			resolveCtx, resolveSpan := e.tracer.StartResolveSpan(ctx, task.participantID)
			state := e.resolveIdentity(resolveCtx, task.identity)
			switch s := state.(type) {
			case Unmatched:
				if s.Err != "" {
					observability.RecordError(resolveSpan, errors.New(s.Err))
				}
			case MatchedInternal:
				observability.RecordConfidence(resolveSpan, string(s.Confidence))
			}
			resolveSpan.End()
			e.applyState(task.participantID, task.gen, state)
		}(task)
	}
	wg.Wait()

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.participantID)
	}
	e.refreshPresence(ctx, ids)

	e.logger.Info("extraction pass complete", logging.F("identities", len(identities)))
	return nil
}

// resolveIdentity resolves one deduplicated identity to a match state.
// Failures are folded into the state, never propagated: each identity is
// its own failure domain.
func (e *Engine) resolveIdentity(ctx context.Context, identity extract.Identity) State {
	// External emails need no directory call.
	if identity.Email != "" && identity.External {
		return MatchedExternal{
			Email:       identity.Email,
			DisplayName: extract.LocalPart(identity.Email),
		}
	}

	if identity.Email != "" {
		candidate, err := e.lookupByEmail(ctx, identity.Email)
		if err != nil {
			e.logger.Warn("email lookup failed",
				logging.Err(err), logging.F("email", identity.Email))
			return Unmatched{Err: err.Error()}
		}
		e.recordMatch(match.ConfidenceHigh)
		return MatchedInternal{Profile: *candidate, Confidence: match.ConfidenceHigh}
	}

	candidates, err := e.search(ctx, identity.Name)
	if err != nil {
		e.logger.Warn("name search failed",
			logging.Err(err), logging.F("name", identity.Name))
		return Unmatched{Err: err.Error()}
	}
	if len(candidates) == 0 {
		return Unmatched{Err: "no directory matches for " + identity.Name}
	}

	// The service ranks results; the top candidate is always accepted,
	// with the confidence tier attached for the consumer's risk display.
	top := candidates[0]
	confidence := match.ScoreName(identity.Name, top.DisplayName)
	e.recordMatch(confidence)
	return MatchedInternal{Profile: top, Confidence: confidence}
}

// AddParticipant manually attaches a fully-resolved directory candidate as
// a new matched participant. A candidate whose email is already on the
// roster is rejected.
func (e *Engine) AddParticipant(ctx context.Context, candidate directory.Candidate) (Participant, error) {
	e.mu.Lock()
	for _, existing := range e.participants {
		if existing.Email() != "" && strings.EqualFold(existing.Email(), candidate.Email) {
			e.mu.Unlock()
			e.logger.Warn("participant already on roster", logging.F("email", candidate.Email))
			return Participant{}, fmt.Errorf("adding %s: %w", candidate.Email, rosterrors.ErrAlreadyExists)
		}
	}

	p := &Participant{
		ID:      uuid.NewString(),
		RawText: candidate.DisplayName,
		Source:  SourceManual,
		State:   MatchedInternal{Profile: candidate, Confidence: match.ConfidenceHigh},
	}
	e.participants = append(e.participants, p)
	e.index[p.ID] = p
	gen := e.generations[p.ID]
	e.mu.Unlock()

	e.recordMatch(match.ConfidenceHigh)
	e.attachPresence(ctx, p.ID, gen, candidate.ID)

	return e.snapshot(p.ID), nil
}

// SearchAndMatch issues a free-text directory search for manual
// correction. The participant is marked searching for the duration and
// any prior error is cleared; the candidate list is returned without
// mutating the match itself. Queries shorter than 2 characters return an
// empty result without calling the directory service.
func (e *Engine) SearchAndMatch(ctx context.Context, participantID, query string) ([]directory.Candidate, error) {
	if e.directory == nil {
		return nil, fmt.Errorf("search and match: %w", rosterrors.ErrNotConfigured)
	}
	if len(strings.TrimSpace(query)) < minSearchQueryLen {
		return nil, nil
	}

	e.mu.Lock()
	p, ok := e.index[participantID]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("participant %s: %w", participantID, rosterrors.ErrNotFound)
	}
	prior := p.State
	gen := e.generations[participantID]
	p.State = Searching{}
	e.mu.Unlock()

	candidates, err := e.search(ctx, query)

	// Restore the pre-search state; the match itself is never mutated
	// here. Only an unmatched participant has its recorded error touched:
	// a failed search records it, a successful one clears it.
	restored := prior
	if _, wasUnmatched := prior.(Unmatched); wasUnmatched {
		if err != nil {
			restored = Unmatched{Err: err.Error()}
		} else {
			restored = Unmatched{}
		}
	}
	e.applyState(participantID, gen, restored)

	if err != nil {
		e.logger.Warn("manual search failed",
			logging.Err(err), logging.F("query", query))
		return nil, fmt.Errorf("searching for %q: %w", query, err)
	}
	return candidates, nil
}

// ConfirmMatch commits a chosen candidate onto an existing participant,
// then refreshes presence for the affected identity.
func (e *Engine) ConfirmMatch(ctx context.Context, participantID string, candidate directory.Candidate) error {
	e.mu.Lock()
	p, ok := e.index[participantID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("participant %s: %w", participantID, rosterrors.ErrNotFound)
	}
	p.State = MatchedInternal{Profile: candidate, Confidence: match.ConfidenceHigh}
	p.Presence = nil
	gen := e.generations[participantID]
	e.mu.Unlock()

	e.recordMatch(match.ConfidenceHigh)
	e.attachPresence(ctx, participantID, gen, candidate.ID)
	return nil
}

// MarkAsExternal commits external status with a display name synthesized
// from the email's local part.
func (e *Engine) MarkAsExternal(participantID, email string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.index[participantID]
	if !ok {
		return fmt.Errorf("participant %s: %w", participantID, rosterrors.ErrNotFound)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	p.State = MatchedExternal{Email: email, DisplayName: extract.LocalPart(email)}
	p.Presence = nil
	return nil
}

// Rematch resets a participant to its pristine unmatched state, keeping
// its identifier and raw text. The generation bump discards any lookup
// result still in flight for the old state.
func (e *Engine) Rematch(participantID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.index[participantID]
	if !ok {
		return fmt.Errorf("participant %s: %w", participantID, rosterrors.ErrNotFound)
	}
	p.State = Unmatched{}
	p.Presence = nil
	e.generations[participantID]++
	return nil
}

// Remove deletes a participant from the roster. Its cached presence entry
// is left in place for reuse.
func (e *Engine) Remove(participantID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[participantID]; !ok {
		return fmt.Errorf("participant %s: %w", participantID, rosterrors.ErrNotFound)
	}
	delete(e.index, participantID)
	delete(e.generations, participantID)
	for i, p := range e.participants {
		if p.ID == participantID {
			e.participants = append(e.participants[:i], e.participants[i+1:]...)
			break
		}
	}
	return nil
}

// Clear empties the roster and the presence cache. Session teardown hook.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	e.participants = nil
	e.index = make(map[string]*Participant)
	e.generations = make(map[string]uint64)
	e.mu.Unlock()

	if e.presence != nil {
		return e.presence.Clear(ctx)
	}
	return nil
}

// Participants returns a snapshot of the current roster in insertion order.
func (e *Engine) Participants() []Participant {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Participant, len(e.participants))
	for i, p := range e.participants {
		out[i] = *p
	}
	return out
}

// IsExtracting reports whether an extraction pass is in progress.
func (e *Engine) IsExtracting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.extracting
}

// snapshot returns a copy of the participant, or a zero value if removed.
func (e *Engine) snapshot(participantID string) Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.index[participantID]; ok {
		return *p
	}
	return Participant{}
}

// applyState applies an asynchronously-produced state if the participant
// still exists and has not been rematched since the lookup was dispatched.
func (e *Engine) applyState(participantID string, gen uint64, state State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.index[participantID]
	if !ok {
		e.logger.Debug("discarding result for removed participant",
			logging.F("participant_id", participantID))
		return
	}
	if e.generations[participantID] != gen {
		e.logger.Debug("discarding stale lookup result",
			logging.F("participant_id", participantID))
		return
	}
	p.State = state
}

// attachPresence fetches and attaches presence for one directory
// identity, best-effort.
func (e *Engine) attachPresence(ctx context.Context, participantID string, gen uint64, directoryID string) {
	if e.presence == nil {
		return
	}
	snapshot, err := e.presence.Get(ctx, directoryID)
	if err != nil {
		e.logger.Debug("presence fetch failed",
			logging.Err(err), logging.F("directory_id", directoryID))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.index[participantID]
	if !ok || e.generations[participantID] != gen {
		return
	}
	p.Presence = snapshot
}

// refreshPresence batch-fetches presence for the given participants'
// resolved internal identities and attaches the snapshots.
func (e *Engine) refreshPresence(ctx context.Context, participantIDs []string) {
	if e.presence == nil {
		return
	}

	e.mu.Lock()
	directoryIDs := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		if p, ok := e.index[id]; ok {
			if dirID := p.DirectoryID(); dirID != "" {
				directoryIDs = append(directoryIDs, dirID)
			}
		}
	}
	e.mu.Unlock()

	if len(directoryIDs) == 0 {
		return
	}

	ctx, span := e.tracer.StartPresenceSpan(ctx, len(directoryIDs))
	defer span.End()

	results, err := e.presence.GetBatch(ctx, directoryIDs)
	if err != nil {
		e.logger.Warn("presence batch failed", logging.Err(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range participantIDs {
		p, ok := e.index[id]
		if !ok {
			continue
		}
		if snapshot, found := results[p.DirectoryID()]; found {
			s := snapshot
			p.Presence = &s
		}
	}
}

// lookupByEmail wraps the directory call with metrics.
func (e *Engine) lookupByEmail(ctx context.Context, email string) (*directory.Candidate, error) {
	start := time.Now()
	candidate, err := e.directory.LookupByEmail(ctx, email)
	e.observeLookup("email", start, err)
	return candidate, err
}

// search wraps the directory call with metrics.
func (e *Engine) search(ctx context.Context, query string) ([]directory.Candidate, error) {
	start := time.Now()
	candidates, err := e.directory.Search(ctx, query)
	e.observeLookup("search", start, err)
	return candidates, err
}

func (e *Engine) observeLookup(operation string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case rosterrors.IsNotFound(err):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	e.metrics.LookupsTotal.WithLabelValues(operation, outcome).Inc()
	e.metrics.LookupSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (e *Engine) recordMatch(confidence match.Confidence) {
	if e.metrics != nil {
		e.metrics.MatchesTotal.WithLabelValues(string(confidence)).Inc()
	}
}
