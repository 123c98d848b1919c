package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())

	// Spans from the noop tracer cost nothing and never record.
	_, span := p.Tracer().Start(context.Background(), "session.open_path")
	span.End()
	assert.False(t, span.SpanContext().IsValid())

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_path")
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "jaeger"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported exporter")
}

func TestNewProvider_NoneExporterStillTraces(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	assert.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "session.save")
	span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestNewProvider_FileExporterWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	p, err := NewProvider(Config{
		Enabled:     true,
		Exporter:    "file",
		FilePath:    path,
		SampleRate:  1.0,
		ServiceName: "folio-test",
	})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "persist.snapshot")
	span.End()

	// Shutdown flushes the batcher.
	require.NoError(t, p.Shutdown(context.Background()))

	records := readSpanRecords(t, path)
	require.NotEmpty(t, records)
	assert.Equal(t, "persist.snapshot", records[0].Name)
	assert.NotEmpty(t, records[0].TraceID)
	assert.NotEmpty(t, records[0].SpanID)
}

func TestFileExporter_AppendsOneRecordPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")

	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	spans := recordSpans(t, exp, "session.open_path", "session.diff_recompute")
	require.Len(t, spans, 2)

	require.NoError(t, exp.Shutdown(context.Background()))

	records := readSpanRecords(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "session.open_path", records[0].Name)
	assert.Equal(t, "session.diff_recompute", records[1].Name)
	for _, r := range records {
		assert.Equal(t, "INTERNAL", r.Kind)
		assert.Equal(t, "UNSET", r.Status)
		assert.NotEmpty(t, r.StartTime)
		assert.NotEmpty(t, r.EndTime)
	}
}

func TestFileExporter_EmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")

	exp, err := NewFileExporter(path)
	require.NoError(t, err)
	require.NoError(t, exp.ExportSpans(context.Background(), nil))
	require.NoError(t, exp.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileExporter_ShutdownIdempotent(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))
}

// recordSpans runs named spans through a provider wired directly to exp
// and returns the written names.
func recordSpans(t *testing.T, exp *FileExporter, names ...string) []string {
	t.Helper()

	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := provider.Tracer("test")
	for _, name := range names {
		_, span := tracer.Start(context.Background(), name)
		span.End()
	}
	require.NoError(t, provider.ForceFlush(context.Background()))
	return names
}

func readSpanRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	var records []SpanRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var r SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, r)
	}
	require.NoError(t, scanner.Err())
	return records
}
