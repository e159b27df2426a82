package models

import (
	"time"

	"github.com/google/uuid"
)

// Per-user view state of a conversation. One row per (conversation, user).
const (
	ParticipantActive   = "active"
	ParticipantArchived = "archived"
	ParticipantDeleted  = "deleted"
)

// ConversationParticipant carries everything that is scoped to one user's
// side of a thread: archive/delete visibility, the read cursor, and the
// typing flag. Archiving or deleting a conversation mutates only the
// acting user's row, never the counterpart's.
type ConversationParticipant struct {
	ConversationID  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	State           string     `gorm:"not null;default:'active'" json:"state"`
	LastReadSeq     uint64     `gorm:"not null;default:0" json:"last_read_seq"`
	LastReadAt      *time.Time `json:"last_read_at,omitempty"`
	IsTyping        bool       `gorm:"default:false" json:"is_typing"`
	TypingUpdatedAt *time.Time `json:"typing_updated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TypingActive applies the staleness rule: a typing flag older than ttl is
// false no matter what the row says. Typing is best-effort; a client that
// never sent the clearing write must not leave a ghost indicator.
func (p *ConversationParticipant) TypingActive(now time.Time, ttl time.Duration) bool {
	if !p.IsTyping || p.TypingUpdatedAt == nil {
		return false
	}
	return now.Sub(*p.TypingUpdatedAt) <= ttl
}
