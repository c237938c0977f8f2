package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type codedErr struct{}

func (codedErr) Error() string { return "city not found" }
func (codedErr) Code() string  { return "CITY_NOT_FOUND" }

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: parseKeyOrder(""),
	})
	return slog.New(h), func() string {
		if err := aw.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		return strings.TrimSpace(buf.String())
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", CompConversation), slog.LevelInfo, "search.done",
		slog.String("status", "OK"),
		slog.String("city", "Paris"),
	)

	tokens := strings.Split(read(), " ")
	expected := []string{"ts=", "level=INFO", "component=conversation", "event=search.done", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "city=Paris"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrderAndCompactRID(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	ctx := WithRID(context.Background(), BuildRID(12, 34, 56))

	LogEvent(ctx, log.With("component", CompDirectory), slog.LevelError, "call.failed",
		slog.String("status", "fail"),
		slog.String("endpoint", "properties/v2/list"),
	)

	line := read()
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"directory"`, `"event":"call.failed"`, `"status":"fail"`, `"rid":"c.y.1k"`, `"rid_full":"12:34:56"`, `"endpoint":`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerDropsUnknownOutcomeAndRenamesDurations(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.LogAttrs(context.Background(), slog.LevelInfo, "handled",
		slog.String("outcome", "weird"),
		slog.Duration("duration", 1500000),
		slog.String("note", "two words"),
	)
	line := read()
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unknown outcome must be dropped: %s", line)
	}
	if !strings.Contains(line, "duration_ms=2") {
		t.Fatalf("expected duration_ms, got %s", line)
	}
	if !strings.Contains(line, `note="two words"`) {
		t.Fatalf("expected quoted value, got %s", line)
	}
	if !strings.Contains(line, "event=handled") || !strings.Contains(line, "component=app") {
		t.Fatalf("expected defaults, got %s", line)
	}
}

func TestErrAttrsCarryCode(t *testing.T) {
	attrs := Err(errors.Join(codedErr{}))
	if len(attrs) != 2 || attrs[1].Value.String() != "CITY_NOT_FOUND" {
		t.Fatalf("unexpected attrs %v", attrs)
	}
	if Err(nil) != nil {
		t.Fatal("nil error must produce no attrs")
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var passed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 3 {
		t.Fatalf("passed = %d, want 3", passed)
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("zero ratio must pass everything")
	}
	if n, d := parseRatioSpec("2/5"); n != 2 || d != 5 {
		t.Fatalf("parse 2/5 = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parse 10 = %d/%d", n, d)
	}
}

func TestCompactRIDAndSanitize(t *testing.T) {
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := SanitizeLimit("ab\x00cd\u200bef", 4); got != "abcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
