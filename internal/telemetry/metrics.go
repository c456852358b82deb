package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the counters recorded by the case and directory services.
type Metrics struct {
	casesCreated     metric.Int64Counter
	notesAdded       metric.Int64Counter
	uploads          metric.Int64Counter
	uploadedBytes    metric.Int64Counter
	usersProvisioned metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("casetrack")

	var (
		m   Metrics
		err error
	)

	if m.casesCreated, err = meter.Int64Counter("casetrack_cases_created_total",
		metric.WithDescription("Total number of cases created"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create cases counter: %w", err)
	}
	if m.notesAdded, err = meter.Int64Counter("casetrack_notes_added_total",
		metric.WithDescription("Total number of notes added"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create notes counter: %w", err)
	}
	if m.uploads, err = meter.Int64Counter("casetrack_attachment_uploads_total",
		metric.WithDescription("Total number of attachment upload attempts"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create uploads counter: %w", err)
	}
	if m.uploadedBytes, err = meter.Int64Counter("casetrack_attachment_bytes_total",
		metric.WithDescription("Total bytes of uploaded attachments"), metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("failed to create upload bytes counter: %w", err)
	}
	if m.usersProvisioned, err = meter.Int64Counter("casetrack_users_provisioned_total",
		metric.WithDescription("Users created on first sign-in"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create provisioning counter: %w", err)
	}

	return &m, nil
}

func (m *Metrics) CaseCreated(ctx context.Context, priority string) {
	if m == nil {
		return
	}
	m.casesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("priority", priority)))
}

func (m *Metrics) NoteAdded(ctx context.Context) {
	if m == nil {
		return
	}
	m.notesAdded.Add(ctx, 1)
}

func (m *Metrics) AttachmentUploaded(ctx context.Context, size int64, success bool) {
	if m == nil {
		return
	}
	m.uploads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		m.uploadedBytes.Add(ctx, size)
	}
}

func (m *Metrics) UserProvisioned(ctx context.Context) {
	if m == nil {
		return
	}
	m.usersProvisioned.Add(ctx, 1)
}
