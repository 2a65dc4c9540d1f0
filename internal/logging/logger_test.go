package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToBuffer(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Str("agent_id", "a1").Msg("page loaded")
	assert.Contains(t, buf.String(), "page loaded")
	assert.Contains(t, buf.String(), `"agent_id":"a1"`)
}

func TestNewStyled(t *testing.T) {
	require.NotNil(t, NewStyled("json", "info"))
	require.NotNil(t, NewStyled("pretty", "info"))
	require.NotNil(t, NewStyled("", "silent"))
}

func TestSubAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.Sub("gallery").With("session", "s-1").Debug().Msg("stale result dropped")
	out := buf.String()
	assert.Contains(t, out, "stale result dropped")
	assert.Contains(t, out, `"subsystem":"gallery"`)
	assert.Contains(t, out, `"session":"s-1"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Trace().Msg("trace msg")
	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String())

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")

	buf.Reset()
	log.Error().Msg("error msg")
	assert.Contains(t, buf.String(), "error msg")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"DEBUG", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestSilent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")
	log.Error().Msg("hidden")
	zl := log.Zerolog()
	zl.Warn().Msg("hidden too")
	assert.Empty(t, buf.String())
}
