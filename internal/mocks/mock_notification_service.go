package mocks

import (
	"context"

	"github.com/you/marketauth/domain"
)

// MockNotificationService implements domain.NotificationService interface for testing
type MockNotificationService struct {
	SendEmailFunc func(ctx context.Context, to, subject, body string) error
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendEmail sends an email message
func (m *MockNotificationService) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, body)
	}
	// Default behavior: success (no actual email sent in tests)
	return nil
}

// SentOTP is one code captured by MockOTPSender
type SentOTP struct {
	To      string
	Code    string
	Subject string
}

// MockOTPSender implements domain.OTPSender and records every code it is asked to send
type MockOTPSender struct {
	SendOTPFunc func(ctx context.Context, to, code, subject string) error
	Sent        []SentOTP
}

// NewMockOTPSender creates a new MockOTPSender
func NewMockOTPSender() *MockOTPSender {
	return &MockOTPSender{}
}

// SendOTP records the code, then delegates to SendOTPFunc when set
func (m *MockOTPSender) SendOTP(ctx context.Context, to, code, subject string) error {
	m.Sent = append(m.Sent, SentOTP{To: to, Code: code, Subject: subject})
	if m.SendOTPFunc != nil {
		return m.SendOTPFunc(ctx, to, code, subject)
	}
	return nil
}

// LastCode returns the most recent code sent to email, or ""
func (m *MockOTPSender) LastCode(email string) string {
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To == email {
			return m.Sent[i].Code
		}
	}
	return ""
}

// Compile-time interface compliance verification
var (
	_ domain.NotificationService = (*MockNotificationService)(nil)
	_ domain.OTPSender           = (*MockOTPSender)(nil)
)
