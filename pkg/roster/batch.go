package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	rosterrors "github.com/lumahq/roster/pkg/errors"
	"github.com/lumahq/roster/pkg/extract"
	"github.com/lumahq/roster/pkg/logging"
	"github.com/lumahq/roster/pkg/match"
)

// BatchAdd merges an externally-parsed contact list into the roster.
//
// Processing is strictly sequential: directory calls are rate-sensitive
// and progress must reflect one-at-a-time completion. Batches in this
// domain are small (tens, not thousands), so the throughput loss is
// acceptable. Per-contact lookup failures degrade the contact to an
// external match rather than failing the batch; only a missing directory
// client aborts the operation.
func (e *Engine) BatchAdd(ctx context.Context, contacts []Contact, source Source, onProgress ProgressFunc) (*BatchAddResult, error) {
	if e.directory == nil {
		return nil, fmt.Errorf("batch add: %w", rosterrors.ErrNotConfigured)
	}

	ctx, span := e.tracer.StartBatchSpan(ctx, string(source), len(contacts))
	defer span.End()

	// Seed the duplicate set from the current roster, then track emails
	// added during this batch.
	seen := make(map[string]bool)
	e.mu.Lock()
	for _, p := range e.participants {
		if email := p.Email(); email != "" {
			seen[strings.ToLower(email)] = true
		}
	}
	e.mu.Unlock()

	result := &BatchAddResult{}
	var newInternal []string // participant IDs needing presence

	for i, contact := range contacts {
		email := strings.ToLower(strings.TrimSpace(contact.Email))
		if email == "" || seen[email] {
			result.SkippedDuplicate++
			e.recordBatchContact("skipped")
			continue
		}

		if onProgress != nil {
			onProgress(BatchProgress{Current: i + 1, Total: len(contacts), Email: email})
		}

		p := &Participant{
			ID:       uuid.NewString(),
			RawText:  contactRawText(contact, email),
			Source:   source,
			State:    Searching{},
			Schedule: contactSchedule(contact),
		}

		if e.classifier.IsExternal(email) {
			p.State = externalState(contact, email)
			result.External++
			e.recordBatchContact("external")
		} else if candidate, err := e.lookupByEmail(ctx, email); err == nil {
			p.State = MatchedInternal{Profile: *candidate, Confidence: match.ConfidenceHigh}
			newInternal = append(newInternal, p.ID)
			result.MatchedInternal++
			e.recordBatchContact("internal")
			e.recordMatch(match.ConfidenceHigh)
		} else {
			// A failed or absent internal match degrades to external
			// rather than leaving the contact unmatched.
			if !rosterrors.IsNotFound(err) {
				e.logger.Warn("batch lookup failed, treating contact as external",
					logging.Err(err), logging.F("email", email))
			}
			p.State = externalState(contact, email)
			result.External++
			e.recordBatchContact("external")
		}

		e.mu.Lock()
		e.participants = append(e.participants, p)
		e.index[p.ID] = p
		e.mu.Unlock()

		seen[email] = true
		result.Added++
	}

	e.refreshPresence(ctx, newInternal)

	e.logger.Info("batch reconciliation complete",
		logging.F("source", string(source)),
		logging.F("added", result.Added),
		logging.F("internal", result.MatchedInternal),
		logging.F("external", result.External),
		logging.F("skipped", result.SkippedDuplicate))
	return result, nil
}

// externalState builds the external match state for a contact, preferring
// the parsed name over the synthesized local part.
func externalState(contact Contact, email string) MatchedExternal {
	name := strings.TrimSpace(contact.Name)
	if name == "" {
		name = extract.LocalPart(email)
	}
	return MatchedExternal{Email: email, DisplayName: name}
}

func contactRawText(contact Contact, email string) string {
	if name := strings.TrimSpace(contact.Name); name != "" {
		return name
	}
	return email
}

// contactSchedule carries optional scheduling metadata, nil when absent.
func contactSchedule(contact Contact) *Schedule {
	if contact.AttendanceType == "" && contact.ResponseStatus == "" {
		return nil
	}
	return &Schedule{
		AttendanceType: contact.AttendanceType,
		ResponseStatus: contact.ResponseStatus,
	}
}

func (e *Engine) recordBatchContact(result string) {
	if e.metrics != nil {
		e.metrics.BatchContactsTotal.WithLabelValues(result).Inc()
	}
}
