package models

import "github.com/google/uuid"

// Realtime event types pushed over the conversation channel.
const (
	EventMessageAppended  = "message.appended"
	EventMessageDeleted   = "message.deleted"
	EventOfferTransition  = "offer.transitioned"
	EventTypingChanged    = "typing.changed"
	EventConversationRead = "conversation.read"
)

// Event is a domain event published to any number of independent
// subscribers (connected clients, dispatchers). Delivery is best-effort;
// nothing in the request path waits on it.
type Event struct {
	Type           string      `json:"type"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Payload        interface{} `json:"payload,omitempty"`
}
