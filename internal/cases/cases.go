package cases

import (
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/util"
)

const (
	CollectionCases       = "cases"
	CollectionNotes       = "notes"
	CollectionAttachments = "attachments"
)

var ErrFileTooLarge = errors.New("file size must be less than 100MB")

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusClosed     Status = "closed"
)

type Case struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    Priority              `json:"priority"`
	CaseManager util.Optional[string] `json:"caseManager"`
	Status      Status                `json:"status"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	CreatedBy   string                `json:"createdBy"`
}

// Note content is stored verbatim, markup included.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

type Attachment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	FileID      string    `json:"fileId"`
	DownloadURL string    `json:"downloadUrl"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UploadedBy  string    `json:"uploadedBy"`
}

// SizeLabel renders the size for display, e.g. "1.5 MiB".
func (a Attachment) SizeLabel() string {
	if a.Size < 0 {
		return humanize.IBytes(0)
	}
	return humanize.IBytes(uint64(a.Size))
}

// AttachmentView is an attachment as returned to clients.
type AttachmentView struct {
	Attachment
	SizeLabel string `json:"sizeLabel"`
}

func NewAttachmentView(a Attachment) AttachmentView {
	return AttachmentView{Attachment: a, SizeLabel: a.SizeLabel()}
}

// actorLabel is the value stored in createdBy and uploadedBy.
func actorLabel(actor util.Optional[identity.Identity]) string {
	if who, ok := actor.Get(); ok && who.Email != "" {
		return who.Email
	}
	return "anonymous"
}
