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
		name        string
		level       string
		wantEnabled zapcore.Level
		wantMuted   zapcore.Level
	}{
		{name: "debug level", level: "debug", wantEnabled: zapcore.DebugLevel, wantMuted: zapcore.InvalidLevel},
		{name: "info level", level: "info", wantEnabled: zapcore.InfoLevel, wantMuted: zapcore.DebugLevel},
		{name: "warn level", level: "warn", wantEnabled: zapcore.WarnLevel, wantMuted: zapcore.InfoLevel},
		{name: "empty level defaults to info", level: "", wantEnabled: zapcore.InfoLevel, wantMuted: zapcore.DebugLevel},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tc.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !logger.Core().Enabled(tc.wantEnabled) {
				t.Fatalf("level %v should be enabled for %q", tc.wantEnabled, tc.level)
			}
			if tc.wantMuted != zapcore.InvalidLevel && logger.Core().Enabled(tc.wantMuted) {
				t.Fatalf("level %v should be muted for %q", tc.wantMuted, tc.level)
			}
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger("loud"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestCorrelationID_ContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithCorrelationID(context.Background(), "req-42")
	correlationID, ok := CorrelationIDFromContext(ctx)
	if !ok || correlationID != "req-42" {
		t.Fatalf("correlation id = %q/%v, want req-42/true", correlationID, ok)
	}

	if _, ok := CorrelationIDFromContext(context.Background()); ok {
		t.Fatal("expected correlation id to be missing on a bare context")
	}
	if _, ok := CorrelationIDFromContext(nil); ok { //nolint:staticcheck
		t.Fatal("nil context must report missing")
	}
}

func TestWithContextLogger_AttachesCorrelationField(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithCorrelationID(context.Background(), "req-7")
	WithContextLogger(base, ctx).Info("payment initiated")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["correlationId"]; got != "req-7" {
		t.Fatalf("correlationId = %v, want req-7", got)
	}
}

func TestWithContextLogger_PassThroughWithoutCorrelation(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithContextLogger(base, context.Background()).Info("broker reconnected")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if _, ok := entries[0].ContextMap()["correlationId"]; ok {
		t.Fatal("expected no correlationId field")
	}

	if got := WithContextLogger(nil, context.Background()); got != nil {
		t.Fatal("expected nil logger to stay nil")
	}
}
