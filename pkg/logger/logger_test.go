package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestNewWithWriter_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"}, &buf)

	log.Debug("hidden")
	log.Info("visible")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["message"])
	assert.Equal(t, "production", lines[0]["env"])
	assert.Equal(t, "goldsight", lines[0]["service"])
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "debug"}, &buf)

	c := log.Component("forecast.engine")
	c.Info().Str("model", "gru").Msg("forecast generated")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "forecast.engine", lines[0]["component"])
	assert.Equal(t, "gru", lines[0]["model"])
}

func TestLogger_WithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "debug"}, &buf)

	log.WithFields(map[string]interface{}{"job": "daily_forecast", "attempt": 2}).
		WithError(errors.New("boom")).
		Error("job failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "daily_forecast", lines[0]["job"])
	assert.Equal(t, float64(2), lines[0]["attempt"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "error", lines[0]["level"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("discarded")
		l := Nop().Component("x")
		l.Info().Msg("discarded")
	})
}
