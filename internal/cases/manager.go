package cases

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/freekieb7/casetrack/internal/audit"
	"github.com/freekieb7/casetrack/internal/config"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/kv"
	"github.com/freekieb7/casetrack/internal/storage"
	"github.com/freekieb7/casetrack/internal/telemetry"
	"github.com/freekieb7/casetrack/internal/util"
	"github.com/freekieb7/casetrack/internal/validator"
)

type Options struct {
	// PurgeAttachmentsOnDelete drops a case's attachment list together with the case.
	PurgeAttachmentsOnDelete bool
	// MaxUploadSize defaults to config.MaxUploadSize.
	MaxUploadSize int64
}

// Manager owns cases, notes and attachment metadata. Each mutation builds the
// new collections, writes all three, and only then replaces the in-memory copy.
type Manager struct {
	logger    *slog.Logger
	store     *kv.Store
	uploader  storage.Uploader
	auditor   *audit.Auditor
	validator *validator.Validator
	metrics   *telemetry.Metrics
	options   Options
	now       func() time.Time

	mu          sync.Mutex
	cases       []Case
	notes       map[string][]Note
	attachments map[string][]Attachment
}

func NewManager(ctx context.Context, logger *slog.Logger, store *kv.Store, uploader storage.Uploader, auditor *audit.Auditor, validator *validator.Validator, metrics *telemetry.Metrics, options Options) (*Manager, error) {
	if options.MaxUploadSize <= 0 {
		options.MaxUploadSize = config.MaxUploadSize
	}

	cases, err := kv.Load(ctx, store, CollectionCases, []Case{})
	if err != nil {
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}
	notes, err := kv.Load(ctx, store, CollectionNotes, map[string][]Note{})
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	attachments, err := kv.Load(ctx, store, CollectionAttachments, map[string][]Attachment{})
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}

	if cases == nil {
		cases = []Case{}
	}
	if notes == nil {
		notes = map[string][]Note{}
	}
	if attachments == nil {
		attachments = map[string][]Attachment{}
	}

	return &Manager{
		logger:      logger,
		store:       store,
		uploader:    uploader,
		auditor:     auditor,
		validator:   validator,
		metrics:     metrics,
		options:     options,
		now:         time.Now,
		cases:       cases,
		notes:       notes,
		attachments: attachments,
	}, nil
}

type CreateCaseParams struct {
	Title       string                `validate:"required,max=200"`
	Description string                `validate:"max=100000"`
	Priority    Priority              `validate:"case_priority"`
	CaseManager util.Optional[string] `validate:"-"`
}

func (m *Manager) CreateCase(ctx context.Context, actor util.Optional[identity.Identity], params CreateCaseParams) (Case, error) {
	if err := m.validator.Validate(params); err != nil {
		return Case{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	c := Case{
		ID:          util.NewID(),
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		CaseManager: normalizeCaseManager(params.CaseManager),
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   actorLabel(actor),
	}

	cases := append(slices.Clone(m.cases), c)
	notes := maps.Clone(m.notes)
	notes[c.ID] = []Note{}

	if err := m.persist(ctx, cases, notes, m.attachments); err != nil {
		return Case{}, err
	}

	m.metrics.CaseCreated(ctx, string(c.Priority))
	m.audit(ctx, actor, audit.AuditLogEventTypeCaseCreate, map[string]any{
		"case_id":  c.ID,
		"priority": string(c.Priority),
	})

	return c, nil
}

// UpdateCaseParams overwrites only the fields that are set. A CaseManager of
// Some("") clears the assignment.
type UpdateCaseParams struct {
	Title       util.Optional[string]
	Description util.Optional[string]
	Priority    util.Optional[Priority]
	CaseManager util.Optional[string]
	Status      util.Optional[Status]
}

func (m *Manager) validateUpdate(params UpdateCaseParams) error {
	if title, ok := params.Title.Get(); ok {
		if err := m.validator.Var(title, "required,max=200"); err != nil {
			return err
		}
	}
	if description, ok := params.Description.Get(); ok {
		if err := m.validator.Var(description, "max=100000"); err != nil {
			return err
		}
	}
	if priority, ok := params.Priority.Get(); ok {
		if err := m.validator.Var(string(priority), "case_priority"); err != nil {
			return err
		}
	}
	if status, ok := params.Status.Get(); ok {
		if err := m.validator.Var(string(status), "case_status"); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) UpdateCase(ctx context.Context, actor util.Optional[identity.Identity], id string, params UpdateCaseParams) (util.Optional[Case], error) {
	if err := m.validateUpdate(params); err != nil {
		return util.None[Case](), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.cases, func(c Case) bool { return c.ID == id })
	if idx < 0 {
		return util.None[Case](), nil
	}

	cases := slices.Clone(m.cases)
	c := cases[idx]
	changed := make([]string, 0, 5)
	if title, ok := params.Title.Get(); ok {
		c.Title = title
		changed = append(changed, "title")
	}
	if description, ok := params.Description.Get(); ok {
		c.Description = description
		changed = append(changed, "description")
	}
	if priority, ok := params.Priority.Get(); ok {
		c.Priority = priority
		changed = append(changed, "priority")
	}
	if params.CaseManager.IsSet {
		c.CaseManager = normalizeCaseManager(params.CaseManager)
		changed = append(changed, "caseManager")
	}
	if status, ok := params.Status.Get(); ok {
		c.Status = status
		changed = append(changed, "status")
	}
	c.UpdatedAt = m.now().UTC()
	cases[idx] = c

	if err := m.persist(ctx, cases, m.notes, m.attachments); err != nil {
		return util.None[Case](), err
	}

	m.audit(ctx, actor, audit.AuditLogEventTypeCaseUpdate, map[string]any{
		"case_id": c.ID,
		"fields":  strings.Join(changed, ","),
	})

	return util.Some(c), nil
}

// SetStatus moves a case to status. Every transition is allowed, including
// reopening a closed case.
func (m *Manager) SetStatus(ctx context.Context, actor util.Optional[identity.Identity], id string, status Status) (util.Optional[Case], error) {
	return m.UpdateCase(ctx, actor, id, UpdateCaseParams{Status: util.Some(status)})
}

// DeleteCase removes the case and its notes. Its attachment list stays behind
// unless PurgeAttachmentsOnDelete is set. Deleting an unknown id is a no-op.
func (m *Manager) DeleteCase(ctx context.Context, actor util.Optional[identity.Identity], id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cases := slices.DeleteFunc(slices.Clone(m.cases), func(c Case) bool { return c.ID == id })
	removed := len(cases) != len(m.cases)

	notes := maps.Clone(m.notes)
	delete(notes, id)

	attachments := m.attachments
	orphaned := len(m.attachments[id])
	if m.options.PurgeAttachmentsOnDelete {
		attachments = maps.Clone(m.attachments)
		delete(attachments, id)
	}

	if err := m.persist(ctx, cases, notes, attachments); err != nil {
		return err
	}

	if orphaned > 0 {
		if m.options.PurgeAttachmentsOnDelete {
			m.logger.Info("purged attachment metadata of deleted case", "case_id", id, "count", orphaned)
		} else {
			m.logger.Warn("deleted case leaves attachments behind", "case_id", id, "count", orphaned)
		}
	}

	if removed {
		m.audit(ctx, actor, audit.AuditLogEventTypeCaseDelete, map[string]any{
			"case_id":           id,
			"attachments_kept":  !m.options.PurgeAttachmentsOnDelete && orphaned > 0,
			"attachments_count": orphaned,
		})
	}
	return nil
}

// AddNote appends a note to case caseID. It returns None when the case does
// not exist, so notes are never added to deleted cases.
func (m *Manager) AddNote(ctx context.Context, actor util.Optional[identity.Identity], caseID string, content string) (util.Optional[Note], error) {
	if err := m.validator.Var(content, "required"); err != nil {
		return util.None[Note](), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasCase(caseID) {
		return util.None[Note](), nil
	}

	note := Note{
		ID:        util.NewID(),
		Content:   content,
		CreatedAt: m.now().UTC(),
		CreatedBy: actorLabel(actor),
	}

	notes := maps.Clone(m.notes)
	notes[caseID] = append(slices.Clone(notes[caseID]), note)

	if err := m.persist(ctx, m.cases, notes, m.attachments); err != nil {
		return util.None[Note](), err
	}

	m.metrics.NoteAdded(ctx)
	m.audit(ctx, actor, audit.AuditLogEventTypeNoteCreate, map[string]any{
		"case_id": caseID,
		"note_id": note.ID,
	})

	return util.Some(note), nil
}

// SearchCases returns the cases whose title or description contains query,
// ignoring case. An empty query matches every case.
func (m *Manager) SearchCases(query string) []Case {
	m.mu.Lock()
	defer m.mu.Unlock()

	query = strings.ToLower(query)
	result := make([]Case, 0)
	for _, c := range m.cases {
		if strings.Contains(strings.ToLower(c.Title), query) ||
			strings.Contains(strings.ToLower(c.Description), query) {
			result = append(result, c)
		}
	}
	return result
}

// UploadAttachment stores file through the uploader and records it on the
// case. Oversized files and unknown cases are rejected before any upload.
func (m *Manager) UploadAttachment(ctx context.Context, actor util.Optional[identity.Identity], caseID string, file storage.File) (util.Optional[Attachment], error) {
	if file.Size > m.options.MaxUploadSize {
		return util.None[Attachment](), ErrFileTooLarge
	}
	if err := m.validator.Var(file.Name, "file_name"); err != nil {
		return util.None[Attachment](), err
	}

	m.mu.Lock()
	exists := m.hasCase(caseID)
	m.mu.Unlock()
	if !exists {
		return util.None[Attachment](), nil
	}

	result, err := m.uploader.Upload(ctx, file)
	if err != nil {
		m.metrics.AttachmentUploaded(ctx, file.Size, false)
		m.logger.Error("failed to upload attachment", "case_id", caseID, "file_name", file.Name, "error", err)
		return util.None[Attachment](), fmt.Errorf("failed to upload attachment: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasCase(caseID) {
		m.logger.Warn("case deleted during upload, attachment not recorded", "case_id", caseID, "file_id", result.FileID)
		return util.None[Attachment](), nil
	}

	attachment := Attachment{
		ID:          util.NewID(),
		Name:        file.Name,
		Type:        file.Type,
		Size:        file.Size,
		FileID:      result.FileID,
		DownloadURL: result.DownloadURL,
		UploadedAt:  m.now().UTC(),
		UploadedBy:  actorLabel(actor),
	}

	attachments := maps.Clone(m.attachments)
	attachments[caseID] = append(slices.Clone(attachments[caseID]), attachment)

	if err := m.persist(ctx, m.cases, m.notes, attachments); err != nil {
		return util.None[Attachment](), err
	}

	m.metrics.AttachmentUploaded(ctx, file.Size, true)
	m.audit(ctx, actor, audit.AuditLogEventTypeAttachmentUpload, map[string]any{
		"case_id":       caseID,
		"attachment_id": attachment.ID,
		"file_id":       attachment.FileID,
		"size":          attachment.Size,
	})

	return util.Some(attachment), nil
}

func (m *Manager) GetCase(id string) util.Optional[Case] {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cases {
		if c.ID == id {
			return util.Some(c)
		}
	}
	return util.None[Case]()
}

func (m *Manager) ListCases() []Case {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cases)
}

func (m *Manager) ListNotes(caseID string) []Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Note{}, m.notes[caseID]...)
}

func (m *Manager) ListAttachments(caseID string) []Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Attachment{}, m.attachments[caseID]...)
}

func (m *Manager) GetAttachment(caseID, attachmentID string) util.Optional[Attachment] {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.attachments[caseID] {
		if a.ID == attachmentID {
			return util.Some(a)
		}
	}
	return util.None[Attachment]()
}

// hasCase reports whether id is a known case. The caller holds m.mu.
func (m *Manager) hasCase(id string) bool {
	return slices.ContainsFunc(m.cases, func(c Case) bool { return c.ID == id })
}

// persist writes the three collections and swaps them in. The caller holds
// m.mu. A failed write leaves the in-memory state untouched.
func (m *Manager) persist(ctx context.Context, cases []Case, notes map[string][]Note, attachments map[string][]Attachment) error {
	if err := m.store.Save(ctx, CollectionCases, cases); err != nil {
		m.logger.Error("failed to persist cases", "error", err)
		return fmt.Errorf("failed to persist cases: %w", err)
	}
	if err := m.store.Save(ctx, CollectionNotes, notes); err != nil {
		m.logger.Error("failed to persist notes", "error", err)
		return fmt.Errorf("failed to persist notes: %w", err)
	}
	if err := m.store.Save(ctx, CollectionAttachments, attachments); err != nil {
		m.logger.Error("failed to persist attachments", "error", err)
		return fmt.Errorf("failed to persist attachments: %w", err)
	}

	m.cases = cases
	m.notes = notes
	m.attachments = attachments
	return nil
}

func (m *Manager) audit(ctx context.Context, actor util.Optional[identity.Identity], eventType audit.AuditLogEventType, data map[string]any) {
	if err := m.auditor.LogEvent(ctx, audit.LogEventParam{
		Actor: actorLabel(actor),
		Type:  eventType,
		Data:  data,
	}); err != nil {
		m.logger.Error("failed to log audit event", "type", eventType, "error", err)
	}
}

func normalizeCaseManager(v util.Optional[string]) util.Optional[string] {
	if email, ok := v.Get(); ok && strings.TrimSpace(email) != "" {
		return util.Some(strings.TrimSpace(email))
	}
	return util.None[string]()
}
