package telemetry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/freekieb7/casetrack/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
)

func TestNew_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{name: "disabled", cfg: config.TelemetryConfig{Enabled: false, ExporterURL: "http://collector:4317"}},
		{name: "no_exporter_url", cfg: config.TelemetryConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel, err := New(context.Background(), tt.cfg)
			require.NoError(t, err)
			assert.False(t, tel.IsEnabled())
			assert.NoError(t, tel.Shutdown(context.Background()))
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantHost   string
		wantSecure bool
	}{
		{name: "https", url: "https://otel.example.com:4317", wantHost: "otel.example.com:4317", wantSecure: true},
		{name: "http", url: "http://localhost:4317", wantHost: "localhost:4317"},
		{name: "grpc", url: "grpc://collector:4317", wantHost: "collector:4317"},
		{name: "bare", url: "collector:4317", wantHost: "collector:4317"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure := parseEndpoint(tt.url)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.CaseCreated(ctx, "high")
		m.NoteAdded(ctx)
		m.AttachmentUploaded(ctx, 10, true)
		m.UserProvisioned(ctx)
	})
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.CaseCreated(context.Background(), "low")
		m.AttachmentUploaded(context.Background(), 1024, false)
	})
}

func TestConvertSlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  log.Severity
	}{
		{name: "debug", level: slog.LevelDebug, want: log.SeverityDebug},
		{name: "info", level: slog.LevelInfo, want: log.SeverityInfo},
		{name: "warn", level: slog.LevelWarn, want: log.SeverityWarn},
		{name: "error", level: slog.LevelError, want: log.SeverityError},
		{name: "above_error", level: slog.LevelError + 4, want: log.SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertSlogLevel(tt.level))
		})
	}
}

func TestOTelHandler_ConvertAttr(t *testing.T) {
	h := NewOTelHandler(nil)
	grouped := h.WithGroup("audit").(*OTelHandler)

	kv := grouped.convertSlogAttr(slog.Duration("took", 2*time.Millisecond))
	assert.Equal(t, "audit.took", kv.Key)
	assert.Equal(t, int64(2*time.Millisecond), kv.Value.AsInt64())

	kv = h.convertSlogAttr(slog.Bool("ok", true))
	assert.Equal(t, "ok", kv.Key)
	assert.True(t, kv.Value.AsBool())
}
