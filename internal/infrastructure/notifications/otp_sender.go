package notifications

import (
	"context"
	"fmt"

	"github.com/you/marketauth/domain"
)

const otpBodyTemplate = `Your verification code is %s.

It expires in %d minutes. If you did not request this code you can ignore this email.`

// EmailOTPSender renders an OTP email and hands it to a NotificationService
type EmailOTPSender struct {
	mailer     domain.NotificationService
	ttlMinutes int
}

// NewEmailOTPSender creates an OTP sender on top of a raw mailer
func NewEmailOTPSender(mailer domain.NotificationService, ttlMinutes int) domain.OTPSender {
	return &EmailOTPSender{mailer: mailer, ttlMinutes: ttlMinutes}
}

// SendOTP implements domain.OTPSender
func (s *EmailOTPSender) SendOTP(ctx context.Context, to, code, subject string) error {
	return s.mailer.SendEmail(ctx, to, subject, fmt.Sprintf(otpBodyTemplate, code, s.ttlMinutes))
}
