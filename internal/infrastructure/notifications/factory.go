package notifications

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/config"
)

// New picks the mail provider named in the email config
func New(cfg config.EmailConfig, logger logrus.FieldLogger) (domain.NotificationService, error) {
	switch cfg.Provider {
	case "mailgun":
		return NewMailgunService(cfg.MailgunDomain, cfg.MailgunKey, cfg.From), nil
	case "sendgrid":
		return NewSendGridService(cfg.SendGridKey, cfg.From), nil
	case "log", "":
		return NewLogService(logger), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
}
