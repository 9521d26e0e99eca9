package observability

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/yungbote/mysteryparty-backend"

// Span attribute keys shared by the generation services.
const (
	AttrConversationID = attribute.Key("conversation_id")
	AttrGenStatus      = attribute.Key("generation.status")
	AttrGenPath        = attribute.Key("generation.path")
	AttrTriggerOutcome = attribute.Key("generation.trigger_outcome")
	AttrEmailKind      = attribute.Key("email.kind")
)

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartConversationSpan starts a span tagged with the conversation it serves.
func StartConversationSpan(ctx context.Context, name string, conversationID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, AttrConversationID.String(conversationID.String()))
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err, if any, as the span's status and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
