package notifications

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/you/marketauth/domain"
)

// SendGridServiceImpl implements domain.NotificationService
type SendGridServiceImpl struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridService creates a SendGrid notification service
func NewSendGridService(apiKey, from string) domain.NotificationService {
	return &SendGridServiceImpl{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", from),
	}
}

// NewSendGridServiceWithHost points the client at a custom API host
func NewSendGridServiceWithHost(apiKey, from, host string) domain.NotificationService {
	client := sendgrid.NewSendClient(apiKey)
	client.Request.BaseURL = host + "/v3/mail/send"
	return &SendGridServiceImpl{client: client, from: mail.NewEmail("", from)}
}

// SendEmail implements domain.NotificationService
func (s *SendGridServiceImpl) SendEmail(ctx context.Context, to, subject, body string) error {
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), body, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: failed to send email: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
