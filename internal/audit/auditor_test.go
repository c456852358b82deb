package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor_LogEvent(t *testing.T) {
	var buf bytes.Buffer
	auditor := NewAuditor(slog.New(slog.NewJSONHandler(&buf, nil)))
	auditor.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := auditor.LogEvent(context.Background(), LogEventParam{
		Actor: "jane@example.com",
		Type:  AuditLogEventTypeCaseCreate,
		Data:  map[string]any{"case_id": "abc"},
	})
	require.NoError(t, err)

	var record struct {
		Msg   string `json:"msg"`
		Audit struct {
			Type  string         `json:"type"`
			Actor string         `json:"actor"`
			At    time.Time      `json:"at"`
			Data  map[string]any `json:"data"`
		} `json:"audit"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "audit event", record.Msg)
	assert.Equal(t, "case.create", record.Audit.Type)
	assert.Equal(t, "jane@example.com", record.Audit.Actor)
	assert.Equal(t, "abc", record.Audit.Data["case_id"])
	assert.True(t, record.Audit.At.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestAuditor_LogEvent_Defaults(t *testing.T) {
	var buf bytes.Buffer
	auditor := NewAuditor(slog.New(slog.NewJSONHandler(&buf, nil)))

	tests := []struct {
		name    string
		params  LogEventParam
		wantErr error
	}{
		{name: "missing_type", params: LogEventParam{Actor: "x"}, wantErr: ErrMissingEventType},
		{name: "anonymous_actor", params: LogEventParam{Type: AuditLogEventTypeNoteCreate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			err := auditor.LogEvent(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, buf.String())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), `"actor":"anonymous"`)
		})
	}
}
