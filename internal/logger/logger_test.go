package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "router", nil)
	ctx := context.Background()

	log.Debug(ctx, "dropped")
	log.Info(ctx, "dropped")
	log.Warn(ctx, "kept", "pairs", 3)
	log.Error(ctx, "kept too")

	records := decode(t, &buf)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["msg"] != "kept" || records[0]["level"] != "WARN" {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if records[0]["service"] != "router" {
		t.Errorf("service = %v", records[0]["service"])
	}
	if records[0]["pairs"] != float64(3) {
		t.Errorf("pairs = %v", records[0]["pairs"])
	}
	file, _ := records[0]["file"].(string)
	if !strings.HasPrefix(file, "logger_test.go:") {
		t.Errorf("file = %q, want caller in logger_test.go", file)
	}
}

func TestLogger_TraceID(t *testing.T) {
	t.Run("custom function", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, LevelDebug, "router", func(context.Context) string { return "abc" })
		log.Info(context.Background(), "hello")

		records := decode(t, &buf)
		if records[0]["trace_id"] != "abc" {
			t.Errorf("trace_id = %v", records[0]["trace_id"])
		}
	})

	t.Run("span context", func(t *testing.T) {
		tid, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		sid, _ := trace.SpanIDFromHex("0102030405060708")
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		var buf bytes.Buffer
		log := New(&buf, LevelDebug, "router", nil)
		log.Debug(ctx, "hello")

		records := decode(t, &buf)
		if records[0]["trace_id"] != "0102030405060708090a0b0c0d0e0f10" {
			t.Errorf("trace_id = %v", records[0]["trace_id"])
		}
	})

	t.Run("no span", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, LevelDebug, "router", nil)
		log.Debug(context.Background(), "hello")

		records := decode(t, &buf)
		if _, ok := records[0]["trace_id"]; ok {
			t.Errorf("unexpected trace_id: %v", records[0])
		}
	})
}
