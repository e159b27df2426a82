package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a two-party thread between a homeowner (requester) and a
// contractor (provider), optionally scoped to a job. The unique index on
// (requester_id, provider_id, job_ref) is what makes creation idempotent:
// a second create for the same triple lands on the existing row.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_thread" json:"requester_id"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_thread" json:"provider_id"`
	// JobRef is an external job id. Stored as '' rather than NULL so the
	// unique index also covers job-less threads.
	JobRef         string    `gorm:"not null;default:'';uniqueIndex:idx_conversation_thread" json:"job_ref,omitempty"`
	Title          string    `json:"title"`
	LastMessage    string    `json:"last_message"`
	LastActivityAt time.Time `gorm:"index" json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Requester    User                      `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Provider     User                      `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.RequesterID == userID || c.ProviderID == userID
}

// Counterpart returns the other party's id.
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.RequesterID == userID {
		return c.ProviderID
	}
	return c.RequesterID
}

// ConversationSummary is a directory row: one conversation annotated for
// one user.
type ConversationSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	JobRef          string    `json:"job_ref,omitempty"`
	CounterpartID   uuid.UUID `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name"`
	LastMessage     string    `json:"last_message"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	UnreadCount     int64     `json:"unread_count"`
	State           string    `json:"state"`
}
