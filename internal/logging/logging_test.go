package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewHonoursFormatAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "text", "warn")
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "zone", "Europe/London")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info entry to be filtered, got %q", out)
	}
	if !strings.Contains(out, "zone=Europe/London") {
		t.Fatalf("expected text formatted warning, got %q", out)
	}
}

func TestNewRejectsUnknownValues(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, "xml", "info"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := New(&bytes.Buffer{}, "json", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger, err := New(&bytes.Buffer{}, "json", "info")
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected logger from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger for bare context")
	}
}
