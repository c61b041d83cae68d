package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for roster operations.
const TracerName = "roster"

// Span attribute keys
const (
	AttrParticipantID = "participant_id"
	AttrIdentities    = "identities"
	AttrContacts      = "contacts"
	AttrSource        = "source"
	AttrConfidence    = "confidence"
)

// Span names
const (
	SpanExtractAndMatch = "roster.extract_and_match"
	SpanResolveIdentity = "roster.resolve_identity"
	SpanBatchAdd        = "roster.batch_add"
	SpanPresenceBatch   = "roster.presence_batch"
)

// Tracer provides distributed tracing for roster operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new roster tracer.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartExtractSpan starts a root span for an extract-and-match pass.
func (t *Tracer) StartExtractSpan(ctx context.Context, identityCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanExtractAndMatch,
		trace.WithAttributes(attribute.Int(AttrIdentities, identityCount)),
	)
}

// StartResolveSpan starts a span for resolving one identity.
func (t *Tracer) StartResolveSpan(ctx context.Context, participantID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanResolveIdentity,
		trace.WithAttributes(attribute.String(AttrParticipantID, participantID)),
	)
}

// StartBatchSpan starts a root span for a batch reconciliation.
func (t *Tracer) StartBatchSpan(ctx context.Context, source string, contactCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanBatchAdd,
		trace.WithAttributes(
			attribute.String(AttrSource, source),
			attribute.Int(AttrContacts, contactCount),
		),
	)
}

// StartPresenceSpan starts a span for a batched presence fetch.
func (t *Tracer) StartPresenceSpan(ctx context.Context, idCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanPresenceBatch,
		trace.WithAttributes(attribute.Int(AttrIdentities, idCount)),
	)
}

// RecordError records an error on the span and marks it failed.
func RecordError(span trace.Span, err error) {
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

// RecordConfidence annotates a resolve span with the match confidence tier.
func RecordConfidence(span trace.Span, confidence string) {
	span.SetAttributes(attribute.String(AttrConfidence, confidence))
}
