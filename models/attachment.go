package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment is the stored metadata for an uploaded file. The binary lives
// in object storage; this row only keeps the returned URL and enough
// metadata to render it. Immutable once created, owned by exactly one
// message.
type Attachment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID    uuid.UUID `gorm:"type:uuid;index;not null" json:"message_id"`
	FileName     string    `gorm:"not null" json:"file_name"`
	URL          string    `gorm:"not null" json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
