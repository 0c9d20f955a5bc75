package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewDefaultLoggerTo(&stdout, &stderr)
	l.SetLevel(DebugLevel)

	l.Debug("calibrating", Fields{"window": "w01"})
	l.Warn("skipped window", Fields{"reason": "malformed_window"})
	l.Error(errors.New("boom"), "write failed")

	assert.Contains(t, stdout.String(), "[DEBUG] calibrating window=w01")
	assert.Contains(t, stderr.String(), "[WARN] skipped window reason=malformed_window")
	assert.Contains(t, stderr.String(), "[ERROR] write failed: boom")
}

func TestDefaultLoggerLevelFilter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewDefaultLoggerTo(&stdout, &stderr)
	l.SetLevel(WarnLevel)

	l.Info("hidden")
	assert.Empty(t, stdout.String())
}

func TestWithFieldsAndContext(t *testing.T) {
	var stdout, stderr bytes.Buffer
	base := NewDefaultLoggerTo(&stdout, &stderr)

	ctx := ContextWithFields(context.Background(), Fields{"run_id": "abc"})
	ctx = ContextWithFields(ctx, Fields{"ratio": "golden"})

	base.WithFields(Fields{"component": "runner"}).WithContext(ctx).Info("done")

	line := stdout.String()
	assert.Contains(t, line, "component=runner")
	assert.Contains(t, line, "ratio=golden")
	assert.Contains(t, line, "run_id=abc")
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
	Info("discarded")
}
