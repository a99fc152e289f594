package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentDashboard, Output: &buf})
	l.Info("loaded", FieldTransactions, 3)
	out := buf.String()
	if !strings.Contains(out, "component=dashboard") || !strings.Contains(out, "transactions=3") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestWithComponentOverrides(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).WithComponent(ComponentWorker)
	l.Warn("tick")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if strings.Count(buf.String(), "component=") != 1 {
		t.Fatalf("component should appear once: %s", buf.String())
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Component: ComponentSource})
	LogError(context.Background(), l, "fetch failed", errors.New("boom"), ErrorTypeNetwork, OpFetch, NewFields().WithChange("money", "list"))
	out := buf.String()
	for _, want := range []string{"level=ERROR", "error=boom", "error_type=network_error", "operation=fetch", "resource=money"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"": slog.LevelInfo, "debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got component %q", l.Component())
	}
	l := Discard().WithComponent(ComponentHTTP)
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Fatalf("expected logger from context")
	}
}
