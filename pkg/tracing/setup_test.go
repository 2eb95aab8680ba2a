package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/tracing/exporters"
)

func TestSetupInstallsTracer(t *testing.T) {
	t.Cleanup(func() { SetTracer(nil) })

	shutdown, err := Setup(context.Background(), Config{ServiceName: "laurel-test", Version: "test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), "test.Operation")
	defer span.End()

	// spans must be recording, not the ambient no-op
	assert.True(t, span.SpanContext().IsValid())
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	assert.NotEmpty(t, GetTraceParent(ctx))
}

func TestSetupRejectsUnknownOTLPProtocol(t *testing.T) {
	otlpCfg := exporters.DefaultOTLPConfig()
	otlpCfg.Protocol = "carrier-pigeon"

	_, err := Setup(context.Background(), Config{ServiceName: "laurel-test", OTLP: &otlpCfg})
	assert.Error(t, err)
}
