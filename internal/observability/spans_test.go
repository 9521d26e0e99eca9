package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConversationSpanRecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	id := uuid.New()
	_, span := StartConversationSpan(context.Background(), "GenerationTrigger.StartOrResume", id, AttrTriggerOutcome.String("failed"))
	EndSpan(span, errors.New("webhook down"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GenerationTrigger.StartOrResume", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, id.String(), attrs["conversation_id"])
	assert.Equal(t, "failed", attrs["generation.trigger_outcome"])
}
