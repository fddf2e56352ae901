package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsPipelineMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("triage-test", WithRegisterer(reg), WithoutGlobal())
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordPipelineProcessed(ctx, "completed")
	obs.RecordPipelineDuration(ctx, 120*time.Millisecond, "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "triage_pipeline_processed")
	assert.Contains(t, joined, "triage_pipeline_duration")
}

func TestObservability_TracerRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := New("triage-test", WithRegisterer(promclient.NewRegistry()), WithSpanProcessor(recorder), WithoutGlobal())
	defer obs.Shutdown()

	_, span := obs.Tracer().Start(context.Background(), "stage.initial-analysis")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "stage.initial-analysis", ended[0].Name())
}

func TestObservability_NilReceiverIsSafe(t *testing.T) {
	var obs *Observability
	assert.NotNil(t, obs.Tracer())
	obs.RecordPipelineProcessed(context.Background(), "fallback")
	obs.Shutdown()
}
