package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offer statuses. pending and countered are open; the rest are terminal.
const (
	OfferPending   = "pending"
	OfferAccepted  = "accepted"
	OfferDeclined  = "declined"
	OfferCountered = "countered"
	OfferExpired   = "expired"
)

// Offer is a commercial proposal embedded 1:1 in a message of kind=offer.
// A counter-offer is held as fields on the same row rather than a new
// entity. Status moves strictly forward through the state machine; the
// repository enforces transitions with conditional updates so a losing
// racer surfaces as a failed transition instead of a lost write.
type Offer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"message_id"`
	ConversationID uuid.UUID `gorm:"type:uuid;index;not null" json:"conversation_id"`
	ProposerID     uuid.UUID `gorm:"type:uuid;not null" json:"proposer_id"`
	Title          string    `gorm:"not null" json:"title"`
	Price          float64   `gorm:"not null" json:"price"`
	DeliveryDays   int       `gorm:"not null" json:"delivery_days"`
	Notes          string    `json:"notes"`
	Status         string    `gorm:"not null;default:'pending'" json:"status"`

	CounterPrice *float64 `json:"counter_price,omitempty"`
	CounterDays  *int     `json:"counter_days,omitempty"`
	CounterNotes *string  `json:"counter_notes,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether the offer can no longer be responded to.
func (o *Offer) Terminal() bool {
	switch o.Status {
	case OfferAccepted, OfferDeclined, OfferExpired:
		return true
	}
	return false
}

// Responder returns the only user allowed to respond in the offer's
// current state: the counterpart while pending, the original proposer once
// the counterpart has countered.
func (o *Offer) Responder(requesterID, providerID uuid.UUID) uuid.UUID {
	counterpart := requesterID
	if o.ProposerID == requesterID {
		counterpart = providerID
	}
	if o.Status == OfferCountered {
		return o.ProposerID
	}
	return counterpart
}
