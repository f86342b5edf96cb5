package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordInvocation(OutcomeSuccess)
	m.RecordInvocation(OutcomeSuccess)
	m.RecordInvocation("BAKE_FAILED")
	m.AddFrames(10)
	m.AddFrames(-1)
	m.ObserveBake(20 * time.Millisecond)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.Invocations.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Invocations.WithLabelValues("BAKE_FAILED")))
	assert.Equal(t, 10.0, promtest.ToFloat64(m.FramesBaked))
	assert.Equal(t, 1, promtest.CollectAndCount(m.BakeDuration))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordInvocation(OutcomeSuccess)
	m.AddFrames(3)
	m.ObserveBake(time.Second)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddFrames(4)

	path := filepath.Join(t.TempDir(), "rotbake.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "rotbake_frames_baked_total 4"), string(data))
}

func TestEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tracer := Tracer(provider)
	_, ok := tracer.Start(context.Background(), "ok")
	EndSpan(ok, nil)
	_, failed := tracer.Start(context.Background(), "failed")
	failed.SetAttributes(RebakeAttributes("Rig", 180, 10)...)
	EndSpan(failed, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
	assert.Contains(t, spans[1].Attributes(), attribute.String("rotbake.object", "Rig"))
	require.Len(t, spans[1].Events(), 1, "error recorded as span event")
}

func TestTracerDefaultsToGlobal(t *testing.T) {
	assert.NotNil(t, Tracer(nil))
}
