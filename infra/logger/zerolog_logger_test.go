package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &m), raw)
		out = append(out, m)
	}
	return out
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("swarm", Options{Out: &buf, Level: zerolog.DebugLevel})
	l.Debugw("tick", map[string]any{"hour": 3, "shared": 1.5})
	l.Infow("run completed", map[string]any{"run_id": "r1"})

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "swarm", got[0]["component"])
	assert.Equal(t, "debug", got[0]["level"])
	assert.Equal(t, float64(3), got[0]["hour"])
	assert.Equal(t, 1.5, got[0]["shared"])
	assert.Equal(t, "info", got[1]["level"])
	assert.Equal(t, "r1", got[1]["run_id"])
	assert.Contains(t, got[1], "time")
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("swarm", Options{Out: &buf, Level: zerolog.WarnLevel})
	l.Infof("hidden %d", 1)
	l.Debugw("hidden", nil)
	l.Warnf("battery %s", "low")
	l.Errorf("sink down")

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "battery low", got[0]["message"])
	assert.Equal(t, "error", got[1]["level"])
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("api", Options{Out: &buf, Level: zerolog.InfoLevel, Console: true})
	l.Infof("listening on %s", ":8080")
	assert.Contains(t, buf.String(), "listening on :8080")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console lines are not JSON")
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("APP_ENV", "Dev")
	opts := OptionsFromEnv()
	assert.Equal(t, zerolog.DebugLevel, opts.Level)
	assert.True(t, opts.Console)
	assert.Nil(t, opts.Out)

	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("APP_ENV", "production")
	opts = OptionsFromEnv()
	assert.Equal(t, zerolog.InfoLevel, opts.Level)
	assert.False(t, opts.Console)
}

func TestOrNop(t *testing.T) {
	assert.IsType(t, NopLogger{}, OrNop(nil))
	l := New("test")
	assert.Same(t, l, OrNop(l))
}
