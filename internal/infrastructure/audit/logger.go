package audit

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// LogrusAuditLogger implements domain.AuditLogger on a structured logger
type LogrusAuditLogger struct {
	logger logrus.FieldLogger
}

// NewLogrusAuditLogger creates an audit logger that writes one entry per event
func NewLogrusAuditLogger(logger logrus.FieldLogger) domain.AuditLogger {
	return &LogrusAuditLogger{logger: logger.WithField("component", "audit")}
}

// LogEvent implements domain.AuditLogger
func (l *LogrusAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if event.IPAddress == "" {
		event.WithClientContext(domain.ClientFromContext(ctx))
	}

	fields := logrus.Fields{
		"event":   string(event.EventType),
		"success": event.Success,
		"at":      event.Timestamp,
	}
	if event.UserID != 0 {
		fields["user_id"] = event.UserID
	}
	if event.Email != "" {
		fields["email"] = event.Email
	}
	if event.IPAddress != "" {
		fields["ip"] = event.IPAddress
	}
	if event.UserAgent != "" {
		fields["user_agent"] = event.UserAgent
	}
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	entry := l.logger.WithFields(fields)
	if !event.Success {
		entry.WithField("error", event.ErrorMsg).Warn("audit")
		return nil
	}
	entry.Info("audit")
	return nil
}
