package services

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rushrhq/messaging/config"
	"github.com/rushrhq/messaging/db"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/models"
)

// Offer response actions.
const (
	OfferActionAccept  = "accept"
	OfferActionDecline = "decline"
	OfferActionCounter = "counter"
)

// OfferInput carries the fields for a new offer.
type OfferInput struct {
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	DeliveryDays int     `json:"delivery_days"`
	Notes        string  `json:"notes"`
}

// CounterInput carries modified terms for a counter response.
type CounterInput struct {
	Price float64 `json:"counter_price"`
	Days  int     `json:"counter_days"`
	Notes string  `json:"counter_notes"`
}

// OfferService interface
type OfferService interface {
	SendOffer(conversationID, senderID uuid.UUID, in OfferInput) (*models.Message, error)
	Respond(offerID, actorID uuid.UUID, action string, counter *CounterInput) (*models.Offer, error)
	ExpireOpen(now time.Time) (int64, error)
}

// offerService struct
type offerService struct {
	Config    *config.Config
	offerRepo db.OfferRepository
	msgRepo   db.MessageRepository
	convRepo  db.ConversationRepository
	userRepo  db.UserRepository
	notifier  Notifier
	publisher Publisher
}

// NewOfferService creates a new instance of OfferService
func NewOfferService(offerRepo db.OfferRepository, msgRepo db.MessageRepository, convRepo db.ConversationRepository, userRepo db.UserRepository, notifier Notifier, publisher Publisher, conf *config.Config) OfferService {
	return &offerService{
		Config:    conf,
		offerRepo: offerRepo,
		msgRepo:   msgRepo,
		convRepo:  convRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		publisher: publisher,
	}
}

// SendOffer appends a message of kind=offer carrying a pending offer. The
// message and the offer row are created in the same append transaction.
func (s *offerService) SendOffer(conversationID, senderID uuid.UUID, in OfferInput) (*models.Message, error) {
	conv, err := s.convRepo.GetByID(conversationID)
	if err != nil {
		return nil, notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(senderID) {
		return nil, errs.ErrForbidden
	}
	if in.Price <= 0 || in.DeliveryDays <= 0 {
		return nil, errs.ErrInvalidOffer
	}

	now := time.Now()
	expiresAt := now.Add(s.Config.OfferTTL())
	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Kind:           models.MessageOffer,
		CreatedAt:      now,
		Offer: &models.Offer{
			ConversationID: conversationID,
			ProposerID:     senderID,
			Title:          strings.TrimSpace(in.Title),
			Price:          in.Price,
			DeliveryDays:   in.DeliveryDays,
			Notes:          in.Notes,
			Status:         models.OfferPending,
			ExpiresAt:      &expiresAt,
		},
	}
	if err := s.msgRepo.Append(msg, msg.Preview()); err != nil {
		return nil, err
	}

	publish(s.publisher, conv, models.Event{
		Type:           models.EventMessageAppended,
		ConversationID: conversationID,
		Payload:        msg,
	})
	s.notifyOffer(conv, msg.Offer, conv.Counterpart(senderID))
	return msg, nil
}

// Respond drives the offer state machine:
//
//	pending   -> accepted | declined | countered
//	countered -> accepted | declined
//
// While pending only the counterpart may act; once countered only the
// original proposer may (they are answering the counter). The transition
// itself is a conditional update keyed on the expected current status, so
// of two racing responses exactly one wins and the loser fails with
// InvalidTransition.
func (s *offerService) Respond(offerID, actorID uuid.UUID, action string, counter *CounterInput) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(offerID)
	if err != nil {
		return nil, notFoundOr(err, "get offer")
	}
	conv, err := s.convRepo.GetByID(offer.ConversationID)
	if err != nil {
		return nil, notFoundOr(err, "get conversation")
	}
	if !conv.HasParticipant(actorID) {
		return nil, errs.ErrForbidden
	}
	if offer.Terminal() {
		return nil, errs.ErrInvalidTransition
	}
	if actorID != offer.Responder(conv.RequesterID, conv.ProviderID) {
		return nil, errs.ErrForbidden
	}

	expected := offer.Status
	var updates map[string]interface{}
	switch action {
	case OfferActionAccept:
		updates = map[string]interface{}{"status": models.OfferAccepted}
	case OfferActionDecline:
		updates = map[string]interface{}{"status": models.OfferDeclined}
	case OfferActionCounter:
		if expected != models.OfferPending {
			return nil, errs.ErrInvalidTransition
		}
		if counter == nil || counter.Price <= 0 || counter.Days <= 0 {
			return nil, errs.ErrInvalidOffer
		}
		updates = map[string]interface{}{
			"status":        models.OfferCountered,
			"counter_price": counter.Price,
			"counter_days":  counter.Days,
			"counter_notes": counter.Notes,
		}
	default:
		return nil, errs.ErrBadRequest
	}

	moved, err := s.offerRepo.Transition(offerID, expected, updates)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost a race, or an expiry sweep got there first.
		return nil, errs.ErrInvalidTransition
	}

	refreshed, err := s.offerRepo.GetByID(offerID)
	if err != nil {
		return nil, notFoundOr(err, "reload offer")
	}

	publish(s.publisher, conv, models.Event{
		Type:           models.EventOfferTransition,
		ConversationID: conv.ID,
		Payload:        refreshed,
	})
	s.notifyOffer(conv, refreshed, conv.Counterpart(actorID))
	return refreshed, nil
}

// ExpireOpen is the time-based terminal transition, run by the external
// scheduler.
func (s *offerService) ExpireOpen(now time.Time) (int64, error) {
	return s.offerRepo.ExpireOpenBefore(now)
}

func (s *offerService) notifyOffer(conv *models.Conversation, offer *models.Offer, recipientID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	go func() {
		recipient, err := s.userRepo.FindUserByID(recipientID)
		if err != nil {
			log.Printf("could not load notification recipient %s: %v", recipientID, err)
			return
		}
		s.notifier.NotifyOfferUpdate(recipient, conv, offer)
	}()
}
