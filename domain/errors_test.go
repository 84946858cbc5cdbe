package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindInternal},
		{"validation", ErrValidation, KindValidation},
		{"wrapped validation", fmt.Errorf("name: %w", ErrValidation), KindValidation},
		{"invalid role", ErrInvalidRole, KindValidation},
		{"admin role fixed", ErrAdminRoleFixed, KindValidation},
		{"otp expired", ErrOTPExpired, KindValidation},
		{"otp invalid", ErrOTPInvalid, KindValidation},
		{"no pending signup", ErrNoPendingSignup, KindValidation},
		{"invalid credentials", ErrInvalidCredentials, KindAuthentication},
		{"token expired", ErrTokenExpired, KindAuthentication},
		{"token invalid", ErrTokenInvalid, KindAuthentication},
		{"not verified", ErrAccountNotVerified, KindAuthorization},
		{"unauthorized", ErrUnauthorized, KindAuthorization},
		{"user not found", ErrUserNotFound, KindNotFound},
		{"email taken", ErrEmailTaken, KindConflict},
		{"role change in progress", ErrRoleChangeInProgress, KindConflict},
		{"delivery", &DeliveryError{Email: "a@x.com", Err: errors.New("smtp down")}, KindDelivery},
		{"unknown", errors.New("connection reset"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("mailbox unavailable")
	err := fmt.Errorf("signup: %w", &DeliveryError{Email: "a@x.com", Err: cause})

	assert.True(t, IsDeliveryError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "a@x.com")
	assert.False(t, IsDeliveryError(ErrUserNotFound))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "delivery", KindDelivery.String())
	assert.Equal(t, "internal", ErrorKind(99).String())
}
