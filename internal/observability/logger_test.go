package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_LevelMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		level        string
		debugEnabled bool
	}{
		{name: "debug level", level: "debug", debugEnabled: true},
		{name: "info level", level: "info", debugEnabled: false},
		{name: "empty level defaults to info", level: "", debugEnabled: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tc.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("logger should not be nil")
			}

			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tc.debugEnabled {
				t.Fatalf("debug enabled=%v, want=%v", got, tc.debugEnabled)
			}
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("not-a-level")
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
	if logger != nil {
		t.Fatal("expected nil logger for invalid level")
	}
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithActorID(ctx, "u-42")

	requestID, ok := RequestIDFromContext(ctx)
	if !ok || requestID != "req-123" {
		t.Fatalf("RequestIDFromContext() = (%s, %v), want (req-123, true)", requestID, ok)
	}

	actorID, ok := ActorIDFromContext(ctx)
	if !ok || actorID != "u-42" {
		t.Fatalf("ActorIDFromContext() = (%s, %v), want (u-42, true)", actorID, ok)
	}

	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Fatal("RequestIDFromContext() on empty context should report false")
	}
}

func TestWithContextLogger(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx := WithRequestID(context.Background(), "req-9")
	ctx = WithActorID(ctx, "u-9")

	WithContextLogger(logger, ctx).Info("transition applied")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["requestId"] != "req-9" {
		t.Fatalf("requestId field = %v, want req-9", fields["requestId"])
	}
	if fields["actorId"] != "u-9" {
		t.Fatalf("actorId field = %v, want u-9", fields["actorId"])
	}
}
