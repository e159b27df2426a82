package services

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/messaging"
	"github.com/rushrhq/messaging/mailingservices"
	"github.com/rushrhq/messaging/models"
)

// Notifier is the outbound notification boundary. Implementations are
// best-effort: callers dispatch in a goroutine and never let a delivery
// failure roll back the message or offer transition that triggered it.
type Notifier interface {
	NotifyNewMessage(recipient *models.User, conv *models.Conversation, msg *models.Message)
	NotifyOfferUpdate(recipient *models.User, conv *models.Conversation, offer *models.Offer)
}

type notificationService struct {
	mail      *mailingservices.Mailgun
	messaging *messaging.Client
}

// NewNotificationService creates a Notifier backed by Mailgun email and
// Firebase Cloud Messaging push. Either backend may be nil; a missing
// backend is skipped, not an error.
func NewNotificationService(mail *mailingservices.Mailgun, fcm *messaging.Client) Notifier {
	return &notificationService{
		mail:      mail,
		messaging: fcm,
	}
}

func (s *notificationService) NotifyNewMessage(recipient *models.User, conv *models.Conversation, msg *models.Message) {
	if recipient == nil {
		return
	}
	title := "New message on Rushr"
	body := msg.Preview()
	if conv.Title != "" {
		title = fmt.Sprintf("New message about %q", conv.Title)
	}
	s.dispatch(recipient, title, body)
}

func (s *notificationService) NotifyOfferUpdate(recipient *models.User, conv *models.Conversation, offer *models.Offer) {
	if recipient == nil {
		return
	}
	var body string
	switch offer.Status {
	case models.OfferPending:
		body = fmt.Sprintf("You received an offer: %s ($%.2f, %d days)", offer.Title, offer.Price, offer.DeliveryDays)
	case models.OfferCountered:
		body = fmt.Sprintf("Your offer %q was countered", offer.Title)
	case models.OfferAccepted:
		body = fmt.Sprintf("Your offer %q was accepted", offer.Title)
	case models.OfferDeclined:
		body = fmt.Sprintf("Your offer %q was declined", offer.Title)
	case models.OfferExpired:
		body = fmt.Sprintf("Your offer %q expired", offer.Title)
	}
	s.dispatch(recipient, "Offer update on Rushr", body)
}

func (s *notificationService) dispatch(recipient *models.User, title, body string) {
	if s.mail != nil && recipient.Email != "" {
		if err := s.mail.SendNotificationEmail(recipient.Email, title, body); err != nil {
			log.Printf("notification email failed for %s: %v", recipient.ID, err)
		}
	}
	if s.messaging != nil && recipient.DeviceToken != "" {
		push := &messaging.Message{
			Token: recipient.DeviceToken,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
		}
		if _, err := s.messaging.Send(context.Background(), push); err != nil {
			log.Printf("push notification failed for %s: %v", recipient.ID, err)
		}
	}
}
