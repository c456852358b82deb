package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/freekieb7/casetrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "upper_case_warn", input: "WARN", want: slog.LevelWarn},
		{name: "warning_alias", input: "warning", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "unknown_defaults_to_info", input: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Log.Format = "json"
	cfg.Log.Level = "info"
	cfg.Telemetry.Enabled = false

	var buf bytes.Buffer
	logger := NewWithWriter(cfg, &buf)
	logger.Info("case created", "case_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "case created", record["msg"])
	assert.Equal(t, "abc", record["case_id"])
	assert.Equal(t, cfg.Telemetry.ServiceName, record["service"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Log.Format = "text"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := NewWithWriter(cfg, &buf)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	handler := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	logger := slog.New(handler).With("component", "test")
	assert.True(t, handler.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("first")
	logger.Error("second")

	assert.Contains(t, a.String(), "first")
	assert.Contains(t, a.String(), "second")
	assert.NotContains(t, b.String(), "first")
	assert.Contains(t, b.String(), "component=test")
}
