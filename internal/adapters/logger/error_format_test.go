package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/meister/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMessages []string
		wantMetadata []map[string]any
	}{
		{
			name:         "single standard error",
			err:          errors.New("simple error"),
			wantMessages: []string{"simple error"},
			wantMetadata: []map[string]any{nil},
		},
		{
			name:         "zerr single error",
			err:          zerr.New("zerr error"),
			wantMessages: []string{"zerr error"},
			wantMetadata: []map[string]any{{}},
		},
		{
			name:         "zerr wrapped chain",
			err:          zerr.Wrap(zerr.Wrap(errors.New("root cause"), "middle layer"), "outer layer"),
			wantMessages: []string{"outer layer", "middle layer", "root cause"},
			wantMetadata: []map[string]any{{}, {}, nil},
		},
		{
			name:         "zerr with metadata",
			err:          zerr.With(zerr.With(zerr.New("base error"), "key1", "value1"), "key2", 42),
			wantMessages: []string{"base error"},
			wantMetadata: []map[string]any{{"key1": "value1", "key2": 42}},
		},
		{
			name: "mixed chain with partial metadata",
			err: func() error {
				inner := zerr.With(zerr.New("inner"), "inner_key", "inner_val")
				outer := zerr.Wrap(inner, "outer")
				return zerr.With(outer, "outer_key", "outer_val")
			}(),
			wantMessages: []string{"outer", "inner"},
			wantMetadata: []map[string]any{
				{"outer_key": "outer_val"},
				{"inner_key": "inner_val"},
			},
		},
		{
			name:         "metadata on standard error moves to its entry",
			err:          zerr.With(errors.New("sass exited with status 1"), "entry", "main"),
			wantMessages: []string{"sass exited with status 1"},
			wantMetadata: []map[string]any{{"entry": "main"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := logger.CollectErrorEntries(tt.err)

			assert.Len(t, entries, len(tt.wantMessages))
			for i, wantMsg := range tt.wantMessages {
				assert.Equal(t, wantMsg, entries[i].Message, "message mismatch at index %d", i)
				assert.Equal(t, tt.wantMetadata[i], entries[i].Metadata, "metadata mismatch at index %d", i)
			}
		})
	}

	t.Run("nil error", func(t *testing.T) {
		assert.Empty(t, logger.CollectErrorEntries(nil))
	})
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name:    "three entries",
			entries: []logger.ErrorEntry{{Message: "first"}, {Message: "second"}, {Message: "third"}},
			want:    "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
		{
			name: "metadata on main error and cause",
			entries: []logger.ErrorEntry{
				{Message: "failed to fetch user", Metadata: map[string]any{"user_id": "12345"}},
				{Message: "database timeout", Metadata: map[string]any{"timeout_ms": 5000}},
			},
			want: "Error: failed to fetch user\n       user_id: 12345\n\n  Caused by:\n    → database timeout\n      timeout_ms: 5000",
		},
		{
			name: "metadata keys are sorted",
			entries: []logger.ErrorEntry{
				{Message: "validation failed", Metadata: map[string]any{"zebra": "z", "alpha": "a", "mike": "m"}},
			},
			want: "Error: validation failed\n       alpha: a\n       mike: m\n       zebra: z",
		},
		{
			name: "multiline messages are indented",
			entries: []logger.ErrorEntry{
				{Message: "outer\nsecond line"},
				{Message: "inner\ndetail"},
			},
			want: "Error: outer\n       second line\n\n  Caused by:\n    → inner\n      detail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}
