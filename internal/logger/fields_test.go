package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  stage  ", Value: "  outliers  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "stage" || fields[0].String != "outliers" {
		t.Fatalf("unexpected stage field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestRunFields(t *testing.T) {
	fields := RunFields("  3f2a  ", "artifacts/model.json")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldRunID || fields[0].String != "3f2a" {
		t.Fatalf("unexpected run field: %+v", fields[0])
	}

	if fields[1].Key != FieldArtifact || fields[1].String != "artifacts/model.json" {
		t.Fatalf("unexpected artifact field: %+v", fields[1])
	}

	empty := RunFields("", "")
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithRun(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithRun(logger, "run-1", "density.json")
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldRunID] != "run-1" {
		t.Fatalf("expected run field to be run-1, got %q", ctx[FieldRunID])
	}

	if ctx[FieldArtifact] != "density.json" {
		t.Fatalf("expected artifact field to be density.json, got %q", ctx[FieldArtifact])
	}

	enriched = WithRun(nil, "run-1", "density.json")
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	enriched.Info("another log")
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "Data Scientist",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "Analyst",
			limit:  10,
			expect: "Analyst",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "Machine Learning Engineer",
			limit:  7,
			expect: "Machine...",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	t.Parallel()

	if got := outputPaths(nil); len(got) != 1 || got[0] != "stdout" {
		t.Fatalf("expected stdout default, got %v", got)
	}

	got := outputPaths([]string{" stderr ", ""})
	if len(got) != 1 || got[0] != "stderr" {
		t.Fatalf("expected [stderr], got %v", got)
	}
}

func TestNewBuildsLogger(t *testing.T) {
	t.Parallel()

	log, err := New(true, true, "stderr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}
