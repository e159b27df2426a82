package services

import (
	"github.com/google/uuid"
	"github.com/rushrhq/messaging/models"
)

// Publisher pushes domain events to live subscribers (the websocket hub in
// production). Best-effort by contract: publishing never blocks a domain
// operation and a dropped event is acceptable.
type Publisher interface {
	Broadcast(userIDs []uuid.UUID, event models.Event)
}

func publish(p Publisher, conv *models.Conversation, event models.Event) {
	if p == nil || conv == nil {
		return
	}
	p.Broadcast([]uuid.UUID{conv.RequesterID, conv.ProviderID}, event)
}
