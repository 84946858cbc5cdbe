package notifications

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/you/marketauth/domain"
)

// MailgunServiceImpl implements domain.NotificationService
type MailgunServiceImpl struct {
	client *mailgun.MailgunImpl
	from   string
}

// NewMailgunService creates a Mailgun notification service
func NewMailgunService(domainName, apiKey, from string) domain.NotificationService {
	return &MailgunServiceImpl{
		client: mailgun.NewMailgun(domainName, apiKey),
		from:   from,
	}
}

// NewMailgunServiceWithBase points the client at a custom API base
func NewMailgunServiceWithBase(domainName, apiKey, from, apiBase string) domain.NotificationService {
	client := mailgun.NewMailgun(domainName, apiKey)
	client.SetAPIBase(apiBase)
	return &MailgunServiceImpl{client: client, from: from}
}

// SendEmail implements domain.NotificationService
func (m *MailgunServiceImpl) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := m.client.NewMessage(m.from, subject, body, to)

	if _, _, err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun: failed to send email: %w", err)
	}
	return nil
}
