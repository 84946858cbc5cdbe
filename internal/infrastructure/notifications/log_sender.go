package notifications

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// LogServiceImpl writes emails to the log instead of sending them. Development only.
type LogServiceImpl struct {
	logger logrus.FieldLogger
}

// NewLogService creates a logging notification service
func NewLogService(logger logrus.FieldLogger) domain.NotificationService {
	return &LogServiceImpl{logger: logger}
}

// SendEmail implements domain.NotificationService
func (l *LogServiceImpl) SendEmail(_ context.Context, to, subject, body string) error {
	l.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    body,
	}).Warn("email delivery disabled, logging message")
	return nil
}
