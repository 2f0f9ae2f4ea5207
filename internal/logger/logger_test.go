package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "plain fields kept",
			in:   []any{"guide_id", "g1", "segments", 3},
			want: []any{"guide_id", "g1", "segments", 3},
		},
		{
			name: "cookie redacted",
			in:   []any{"cookie_header", "session=abc"},
			want: []any{"cookie_header", redacted},
		},
		{
			name: "answers redacted case-insensitively",
			in:   []any{"Answers", map[string]any{"x": 1}},
			want: []any{"Answers", redacted},
		},
		{
			name: "odd trailing value kept",
			in:   []any{"path", "/tmp/a.pdf", "dangling"},
			want: []any{"path", "/tmp/a.pdf", "dangling"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := redact(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("redact() len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for i := range got {
				// maps are not comparable; compare redacted positions only
				if s, ok := tt.want[i].(string); ok && got[i] != s {
					t.Errorf("redact()[%d] = %v, want %v", i, got[i], s)
				}
			}
		})
	}
}

func TestLogger_WritesRedactedFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("request", "r1").Warn("cleanup failed", "path", "/tmp/x.pdf", "cookie", "sid=1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["cookie"] != redacted {
		t.Errorf("cookie = %v, want %q", fields["cookie"], redacted)
	}
	if fields["path"] != "/tmp/x.pdf" {
		t.Errorf("path = %v, want /tmp/x.pdf", fields["path"])
	}
	if fields["request"] != "r1" {
		t.Errorf("request = %v, want r1", fields["request"])
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	l := Nop()
	l.Info("ignored", "k", "v")
	l.Sync()
}
