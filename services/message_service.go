package services

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushrhq/messaging/config"
	"github.com/rushrhq/messaging/db"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/models"
)

// AttachmentInput is uploaded-file metadata handed over by the media
// service; the message service never touches the binary itself.
type AttachmentInput struct {
	FileName     string `json:"file_name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
}

// SendMessageInput carries the payload for a text or file message.
type SendMessageInput struct {
	Kind        string            `json:"kind"`
	Content     string            `json:"content"`
	ReplyToID   *uuid.UUID        `json:"reply_to_id"`
	Attachments []AttachmentInput `json:"attachments"`
}

// MessageService interface
type MessageService interface {
	Send(conversationID, senderID uuid.UUID, in SendMessageInput) (*models.Message, error)
	SendSystem(conversationID uuid.UUID, content string) (*models.Message, error)
	List(conversationID, userID uuid.UUID, limit int, beforeSeq uint64) ([]models.Message, error)
	Delete(messageID, actorID uuid.UUID) error
	PurgeExpired(now time.Time) (int64, error)
}

// messageService struct
type messageService struct {
	Config    *config.Config
	msgRepo   db.MessageRepository
	convRepo  db.ConversationRepository
	userRepo  db.UserRepository
	notifier  Notifier
	publisher Publisher
}

// NewMessageService creates a new instance of MessageService
func NewMessageService(msgRepo db.MessageRepository, convRepo db.ConversationRepository, userRepo db.UserRepository, notifier Notifier, publisher Publisher, conf *config.Config) MessageService {
	return &messageService{
		Config:    conf,
		msgRepo:   msgRepo,
		convRepo:  convRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Send appends a text or file message. The message gets the server clock
// and a store-assigned sequence position; concurrent sends from both
// parties are both accepted and ordered by append. Offers go through
// OfferService, system messages through SendSystem.
func (s *messageService) Send(conversationID, senderID uuid.UUID, in SendMessageInput) (*models.Message, error) {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return nil, notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(senderID) {
		return nil, errs.ErrForbidden
	}

	content := strings.TrimSpace(in.Content)
	switch in.Kind {
	case models.MessageText:
		if content == "" {
			return nil, errs.ErrEmptyPayload
		}
	case models.MessageFile:
		if len(in.Attachments) == 0 {
			return nil, errs.ErrEmptyPayload
		}
	default:
		return nil, errs.ErrBadRequest
	}

	if in.ReplyToID != nil {
		replied, err := s.msgRepo.GetByID(*in.ReplyToID)
		if err != nil {
			return nil, notFoundOr(err, "get replied-to message")
		}
		if replied.ConversationID != conversationID {
			return nil, errs.ErrNotFound
		}
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Kind:           in.Kind,
		Content:        content,
		ReplyToID:      in.ReplyToID,
		CreatedAt:      time.Now(),
	}
	for _, a := range in.Attachments {
		msg.Attachments = append(msg.Attachments, models.Attachment{
			FileName:     a.FileName,
			URL:          a.URL,
			ThumbnailURL: a.ThumbnailURL,
			MimeType:     a.MimeType,
			SizeBytes:    a.SizeBytes,
		})
	}

	if err := s.msgRepo.Append(msg, msg.Preview()); err != nil {
		return nil, err
	}

	s.afterAppend(conv, msg, senderID)
	return msg, nil
}

// SendSystem appends a platform-authored message, used by external
// collaborators (e.g. a payment milestone) to leave a marker in the
// thread.
func (s *messageService) SendSystem(conversationID uuid.UUID, content string) (*models.Message, error) {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return nil, notFoundOr(err, "get conversation")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.ErrEmptyPayload
	}
	msg := &models.Message{
		ConversationID: conversationID,
		Kind:           models.MessageSystem,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.msgRepo.Append(msg, msg.Preview()); err != nil {
		return nil, err
	}
	publish(s.publisher, conv, models.Event{
		Type:           models.EventMessageAppended,
		ConversationID: conversationID,
		Payload:        msg,
	})
	return msg, nil
}

// afterAppend runs the side effects that must never fail the append:
// resurrecting a counterpart's self-deleted view, the realtime broadcast,
// and the fire-and-forget notification.
func (s *messageService) afterAppend(conv *models.Conversation, msg *models.Message, senderID uuid.UUID) {
	counterpartID := conv.Counterpart(senderID)

	// A new message brings a self-deleted thread back for the counterpart.
	if p, err := s.convRepo.FindParticipant(conv.ID, counterpartID); err == nil && p.State == models.ParticipantDeleted {
		if err := s.convRepo.SetParticipantState(conv.ID, counterpartID, models.ParticipantActive); err != nil {
			log.Printf("could not restore participant state: %v", err)
		}
	}

	publish(s.publisher, conv, models.Event{
		Type:           models.EventMessageAppended,
		ConversationID: conv.ID,
		Payload:        msg,
	})

	if s.notifier != nil {
		go func() {
			recipient, err := s.userRepo.FindUserByID(counterpartID)
			if err != nil {
				log.Printf("could not load notification recipient %s: %v", counterpartID, err)
				return
			}
			s.notifier.NotifyNewMessage(recipient, conv, msg)
		}()
	}
}

// List returns a window of the conversation's messages in append order,
// with soft-deleted payloads redacted.
func (s *messageService) List(conversationID, userID uuid.UUID, limit int, beforeSeq uint64) ([]models.Message, error) {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return nil, notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(userID) {
		return nil, errs.ErrForbidden
	}
	msgs, err := s.msgRepo.ListByConversation(conversationID, limit, beforeSeq)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].Redact()
	}
	return msgs, nil
}

// Delete soft-deletes a message. Author-only, and only within the undo
// window; outside it the author gets WindowExpired, anyone else gets
// Forbidden regardless of age.
func (s *messageService) Delete(messageID, actorID uuid.UUID) error {
	msg, err := s.msgRepo.GetByID(messageID)
	if err != nil {
		return notFoundOr(err, "get message")
	}
	if msg.SenderID != actorID {
		return errs.ErrForbidden
	}
	if msg.Deleted {
		return nil
	}
	now := time.Now()
	if !msg.WithinUndoWindow(now, s.Config.UndoWindow()) {
		return errs.ErrWindowExpired
	}
	if err := s.msgRepo.SoftDelete(messageID, now); err != nil {
		return notFoundOr(err, "soft delete message")
	}

	if conv, err := s.convRepo.GetByID(msg.ConversationID); err == nil {
		publish(s.publisher, conv, models.Event{
			Type:           models.EventMessageDeleted,
			ConversationID: conv.ID,
			Payload: map[string]interface{}{
				"message_id": messageID,
			},
		})
	}
	return nil
}

// PurgeExpired hard-deletes soft-deleted messages past the retention
// period. Called by the external retention sweep, never by the request
// path.
func (s *messageService) PurgeExpired(now time.Time) (int64, error) {
	cutoff := now.Add(-s.Config.RetentionPeriod())
	purged, err := s.msgRepo.PurgeDeletedBefore(cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge messages")
	}
	return purged, nil
}
