package mailingservices

import (
	"context"
	"log"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rushrhq/messaging/config"
)

type Mailgun struct {
	Client *mailgun.MailgunImpl
	From   string
}

func (m *Mailgun) Init(c *config.Config) {
	m.Client = mailgun.NewMailgun(c.MgDomain, c.MailgunApiKey)
	m.From = c.MgEmailFrom
}

// SendNotificationEmail sends a plain notification email. Callers treat it
// as fire-and-forget; a delivery failure is logged and never propagated
// into the domain transition that triggered it.
func (m *Mailgun) SendNotificationEmail(recipient, subject, body string) error {
	if m.Client == nil {
		log.Println("mailgun not configured, skipping notification email")
		return nil
	}
	message := m.Client.NewMessage(m.From, subject, body, recipient)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _, err := m.Client.Send(ctx, message)
	if err != nil {
		log.Printf("error sending notification email to %s: %v", recipient, err)
		return err
	}
	return nil
}
