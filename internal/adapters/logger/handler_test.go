package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/meister/internal/adapters/logger"
)

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		msg   string
		want  string
	}{
		{name: "info", level: slog.LevelInfo, msg: "information message", want: "information message\n"},
		{name: "warn", level: slog.LevelWarn, msg: "warning message", want: "! warning message\n"},
		{name: "error", level: slog.LevelError, msg: "error message", want: "✗ error message\n"},
		{name: "debug filtered", level: slog.LevelDebug, msg: "debug message", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			lg.Log(t.Context(), tt.level, tt.msg)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_LevelVar(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	level := &slog.LevelVar{}
	lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: level}))

	lg.Debug("hidden")
	level.Set(slog.LevelDebug)
	lg.Debug("shown")

	assert.Equal(t, "shown\n", buf.String())
}

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		attrs  []slog.Attr
		want   string
	}{
		{
			name:  "single attribute",
			attrs: []slog.Attr{slog.String("entry", "main")},
			want:  "msg entry=main\n",
		},
		{
			name:  "multiple attributes",
			attrs: []slog.Attr{slog.String("a", "1"), slog.Int("b", 2)},
			want:  "msg a=1 b=2\n",
		},
		{
			name:  "group attribute",
			attrs: []slog.Attr{slog.Group("g", slog.String("k", "v"))},
			want:  "msg g.k=v\n",
		},
		{
			name:  "nested group attribute",
			attrs: []slog.Attr{slog.Group("outer", slog.Group("inner", slog.String("k", "v")))},
			want:  "msg outer.inner.k=v\n",
		},
		{
			name:   "nested handler groups",
			groups: []string{"a", "b"},
			attrs:  []slog.Attr{slog.String("key", "val")},
			want:   "msg a.b.key=val\n",
		},
		{
			name:  "empty value",
			attrs: []slog.Attr{slog.String("empty", "")},
			want:  "msg empty=\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			var handler slog.Handler = logger.NewPrettyHandler(buf, nil)
			for _, g := range tt.groups {
				handler = handler.WithGroup(g)
			}
			handler = handler.WithAttrs(tt.attrs)

			slog.New(handler).Info("msg")

			assert.Equal(t, tt.want, buf.String())
		})
	}
}
