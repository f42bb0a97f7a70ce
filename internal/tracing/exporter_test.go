package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T, fn func(tracer trace.Tracer)) []sdktrace.ReadOnlySpan {
	t.Helper()
	mem := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(mem))
	fn(tp.Tracer("test"))
	require.NoError(t, tp.Shutdown(context.Background()))
	return mem.GetSpans().Snapshots()
}

func TestNewFileExporter_CreatesParentDirectories(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "nested", "dir", "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	_, err = os.Stat(tracePath)
	require.NoError(t, err, "trace file should be created with parent dirs")
	require.NoError(t, exporter.Shutdown(context.Background()))
}

func TestFileExporter_WritesOneLinePerSpan(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	spans := recordSpans(t, func(tracer trace.Tracer) {
		ctx, run := tracer.Start(context.Background(), SpanRun)
		_, task := tracer.Start(ctx, SpanTask, trace.WithAttributes(
			attribute.String(AttrTaskName, "git"),
			attribute.Int(AttrWorkerID, 1),
		))
		task.AddEvent(EventTaskDispatched)
		task.SetStatus(codes.Error, "boom")
		task.End()
		run.End()
	})
	require.NoError(t, exporter.ExportSpans(context.Background(), spans))
	require.NoError(t, exporter.Shutdown(context.Background()))

	f, err := os.Open(tracePath)
	require.NoError(t, err)
	defer f.Close()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)

	task, run := records[0], records[1]
	require.Equal(t, SpanTask, task.Name)
	require.Equal(t, SpanRun, run.Name)
	require.Equal(t, run.SpanID, task.ParentSpanID)
	require.Equal(t, run.TraceID, task.TraceID)
	require.Empty(t, run.ParentSpanID)
	require.Equal(t, "ERROR", task.Status)
	require.Equal(t, "boom", task.StatusMsg)
	require.Equal(t, "git", task.Attributes[AttrTaskName])
	require.Len(t, task.Events, 1)
	require.Equal(t, EventTaskDispatched, task.Events[0].Name)
}

func TestFileExporter_ExportAfterShutdown(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	err = exporter.ExportSpans(context.Background(), nil)
	require.Error(t, err)
}

func TestNewSpanRecord_UnsetStatus(t *testing.T) {
	spans := recordSpans(t, func(tracer trace.Tracer) {
		_, span := tracer.Start(context.Background(), "plain")
		span.End()
	})
	require.Len(t, spans, 1)

	rec := NewSpanRecord(spans[0])
	require.Equal(t, "UNSET", rec.Status)
	require.Nil(t, rec.Attributes)
	require.GreaterOrEqual(t, rec.DurationMs, 0.0)
}
