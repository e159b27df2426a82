package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message kinds. Each message is exactly one of these; the kind decides
// which payload fields are meaningful.
const (
	MessageText   = "text"
	MessageOffer  = "offer"
	MessageSystem = "system"
	MessageFile   = "file"
)

// Message is the atomic unit of conversation content. Seq is assigned by
// the store at durable append and is the single ordering truth; client
// clocks never participate in ordering. Rows are never edited in place --
// the only mutations are the soft-delete flag and the embedded offer's
// status.
type Message struct {
	Seq            uint64     `gorm:"primaryKey;autoIncrement" json:"seq"`
	ID             uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null" json:"sender_id"`
	Kind           string     `gorm:"not null" json:"kind"`
	Content        string     `json:"content"`
	ReplyToID      *uuid.UUID `gorm:"type:uuid" json:"reply_to_id,omitempty"`
	Deleted        bool       `gorm:"not null;default:false" json:"deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	Sender      User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Offer       *Offer       `gorm:"foreignKey:MessageID;references:ID" json:"offer,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:MessageID;references:ID" json:"attachments,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// WithinUndoWindow reports whether the author may still soft-delete this
// message.
func (m *Message) WithinUndoWindow(now time.Time, window time.Duration) bool {
	return now.Sub(m.CreatedAt) <= window
}

// EligibleForPurge is the retention predicate for the external sweep:
// soft-deleted rows older than the retention period may be hard-deleted.
// Kept as a pure function so the sweep job and the request path can never
// disagree.
func (m *Message) EligibleForPurge(now time.Time, retention time.Duration) bool {
	if !m.Deleted || m.DeletedAt == nil {
		return false
	}
	return now.Sub(*m.DeletedAt) > retention
}

// Redact blanks out the payload of a soft-deleted message while keeping
// the row visible, so the counterpart's view keeps its place in the
// thread.
func (m *Message) Redact() {
	if !m.Deleted {
		return
	}
	m.Content = ""
	m.Attachments = nil
}

// Preview derives the directory preview text for this message.
func (m *Message) Preview() string {
	if m.Deleted {
		return "Message deleted"
	}
	switch m.Kind {
	case MessageOffer:
		if m.Offer != nil {
			return "Offer: " + m.Offer.Title
		}
		return "Offer"
	case MessageFile:
		if len(m.Attachments) > 0 {
			return "Attachment: " + m.Attachments[0].FileName
		}
		return "Attachment"
	default:
		text := strings.TrimSpace(m.Content)
		if len(text) > 120 {
			return text[:120]
		}
		return text
	}
}
