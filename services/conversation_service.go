package services

import (
	goerrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushrhq/messaging/config"
	"github.com/rushrhq/messaging/db"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/models"
	"gorm.io/gorm"
)

// ConversationService interface
type ConversationService interface {
	CreateOrGet(requesterID, providerID uuid.UUID, title, jobRef string) (*models.Conversation, error)
	List(userID uuid.UUID) ([]models.ConversationSummary, error)
	Get(conversationID, userID uuid.UUID) (*models.Conversation, error)
	Archive(conversationID, userID uuid.UUID) error
	Delete(conversationID, userID uuid.UUID) error
	MarkRead(conversationID, userID, upToMessageID uuid.UUID) error
	SetTyping(conversationID, userID uuid.UUID, isTyping bool) error
}

// conversationService struct
type conversationService struct {
	Config    *config.Config
	convRepo  db.ConversationRepository
	msgRepo   db.MessageRepository
	publisher Publisher
}

// NewConversationService creates a new instance of ConversationService
func NewConversationService(convRepo db.ConversationRepository, msgRepo db.MessageRepository, publisher Publisher, conf *config.Config) ConversationService {
	return &conversationService{
		Config:    conf,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		publisher: publisher,
	}
}

// CreateOrGet starts a thread between a requester and a provider, or
// returns the existing one for the same (requester, provider, job) triple.
// The existing row comes back unchanged; in particular the title is never
// overwritten.
func (s *conversationService) CreateOrGet(requesterID, providerID uuid.UUID, title, jobRef string) (*models.Conversation, error) {
	if requesterID == providerID {
		return nil, errs.ErrInvalidParticipants
	}
	if requesterID == uuid.Nil || providerID == uuid.Nil {
		return nil, errs.ErrInvalidParticipants
	}
	conv := &models.Conversation{
		RequesterID: requesterID,
		ProviderID:  providerID,
		Title:       strings.TrimSpace(title),
		JobRef:      jobRef,
	}
	found, _, err := s.convRepo.CreateOrGet(conv)
	if err != nil {
		return nil, errors.Wrap(err, "create or get conversation")
	}
	return found, nil
}

func (s *conversationService) List(userID uuid.UUID) ([]models.ConversationSummary, error) {
	return s.convRepo.ListForUser(userID)
}

// Get loads one conversation for a participant, with each participant's
// typing flag normalized through the staleness TTL so the caller never
// sees a ghost indicator.
func (s *conversationService) Get(conversationID, userID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return nil, notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(userID) {
		return nil, errs.ErrForbidden
	}
	now := time.Now()
	for i := range conv.Participants {
		p := &conv.Participants[i]
		p.IsTyping = p.TypingActive(now, s.Config.TypingTTL())
	}
	return conv, nil
}

func (s *conversationService) Archive(conversationID, userID uuid.UUID) error {
	return s.setState(conversationID, userID, models.ParticipantArchived)
}

// Delete hides the conversation for the acting user only. The counterpart
// keeps their view; nothing is physically removed.
func (s *conversationService) Delete(conversationID, userID uuid.UUID) error {
	return s.setState(conversationID, userID, models.ParticipantDeleted)
}

func (s *conversationService) setState(conversationID, userID uuid.UUID, state string) error {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(userID) {
		return errs.ErrForbidden
	}
	if err := s.convRepo.SetParticipantState(conversationID, userID, state); err != nil {
		return notFoundOr(err, "set participant state")
	}
	return nil
}

// MarkRead advances the caller's read cursor to the given message. The
// cursor only ever moves forward; a request pointing at an older message
// is a no-op, not an error.
func (s *conversationService) MarkRead(conversationID, userID, upToMessageID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(userID) {
		return errs.ErrForbidden
	}
	msg, err := s.msgRepo.GetByID(upToMessageID)
	if err != nil {
		return notFoundOr(err, "get message")
	}
	if msg.ConversationID != conversationID {
		return errs.ErrNotFound
	}
	now := time.Now()
	moved, err := s.convRepo.AdvanceReadCursor(conversationID, userID, msg.Seq, now)
	if err != nil {
		return errors.Wrap(err, "advance read cursor")
	}
	if moved {
		publish(s.publisher, conv, models.Event{
			Type:           models.EventConversationRead,
			ConversationID: conversationID,
			Payload: map[string]interface{}{
				"user_id":       userID,
				"last_read_seq": msg.Seq,
				"last_read_at":  now,
			},
		})
	}
	return nil
}

// SetTyping is last-write-wins and best-effort end to end: the flag is
// stamped with the server clock, broadcast to whoever is listening, and
// left for readers to expire via the TTL rule.
func (s *conversationService) SetTyping(conversationID, userID uuid.UUID, isTyping bool) error {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(userID) {
		return errs.ErrForbidden
	}
	if err := s.convRepo.SetTyping(conversationID, userID, isTyping, time.Now()); err != nil {
		return errors.Wrap(err, "set typing")
	}
	publish(s.publisher, conv, models.Event{
		Type:           models.EventTypingChanged,
		ConversationID: conversationID,
		Payload: map[string]interface{}{
			"user_id":   userID,
			"is_typing": isTyping,
		},
	})
	return nil
}

// notFoundOr maps a missing row to the service-level NotFound and wraps
// anything else.
func notFoundOr(err error, msg string) error {
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
