package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type AuditLogEventType string

const (
	AuditLogEventTypeIdentitySignIn    AuditLogEventType = "identity.sign_in"
	AuditLogEventTypeIdentitySignOut   AuditLogEventType = "identity.sign_out"
	AuditLogEventTypeUserCreate        AuditLogEventType = "user.create"
	AuditLogEventTypeUserUpdate        AuditLogEventType = "user.update"
	AuditLogEventTypeUserDelete        AuditLogEventType = "user.delete"
	AuditLogEventTypeCaseManagerCreate AuditLogEventType = "case_manager.create"
	AuditLogEventTypeCaseManagerDelete AuditLogEventType = "case_manager.delete"
	AuditLogEventTypeCaseCreate        AuditLogEventType = "case.create"
	AuditLogEventTypeCaseUpdate        AuditLogEventType = "case.update"
	AuditLogEventTypeCaseDelete        AuditLogEventType = "case.delete"
	AuditLogEventTypeNoteCreate        AuditLogEventType = "note.create"
	AuditLogEventTypeAttachmentUpload  AuditLogEventType = "attachment.upload"
)

var ErrMissingEventType = errors.New("audit: event type is required")

// Auditor writes audit events as structured log records under the "audit" group.
type Auditor struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAuditor(logger *slog.Logger) Auditor {
	return Auditor{logger: logger, now: time.Now}
}

type LogEventParam struct {
	Actor string
	Type  AuditLogEventType
	Data  map[string]any
}

func (a *Auditor) LogEvent(ctx context.Context, params LogEventParam) error {
	if params.Type == "" {
		return ErrMissingEventType
	}

	actor := params.Actor
	if actor == "" {
		actor = "anonymous"
	}

	attrs := make([]any, 0, len(params.Data))
	for k, v := range params.Data {
		attrs = append(attrs, slog.Any(k, v))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "audit event",
		slog.Group("audit",
			slog.String("type", string(params.Type)),
			slog.String("actor", actor),
			slog.Time("at", a.now().UTC()),
			slog.Group("data", attrs...),
		),
	)
	return nil
}
