package domain

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrValidation     = errors.New("validation failed")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidProfile = errors.New("invalid role profile")
	ErrAdminRoleFixed = errors.New("admin accounts cannot change role")
)

// Authentication errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrAccountNotVerified  = errors.New("user account not verified")
	ErrNoPendingSignup     = errors.New("no signup request found for this email")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
)

// OTP errors
var (
	ErrOTPExpired         = errors.New("otp expired, please sign up again")
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrOTPAlreadyVerified = errors.New("otp already verified")
	ErrOTPNotFound        = errors.New("no otp found, please request a new one")
)

// Token errors
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Profile errors
var (
	ErrProfileNotFound = errors.New("role profile not found")
	ErrArchiveNotFound = errors.New("role profile archive not found")
)

// Authorization errors
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRoleChangeInProgress = errors.New("role change already in progress")
)

// OAuth errors
var (
	ErrOAuthProviderUnknown = errors.New("unsupported oauth provider")
	ErrOAuthStateInvalid    = errors.New("invalid or expired oauth state")
	ErrOAuthEmailMissing    = errors.New("unable to retrieve a verified email from provider")
)

// ErrorKind classifies failures for the transport boundary
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindDelivery
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDelivery:
		return "delivery"
	}
	return "internal"
}

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrValidation, KindValidation},
	{ErrInvalidRole, KindValidation},
	{ErrInvalidProfile, KindValidation},
	{ErrAdminRoleFixed, KindValidation},
	{ErrOTPExpired, KindValidation},
	{ErrOTPInvalid, KindValidation},
	{ErrOTPAlreadyVerified, KindValidation},
	{ErrOTPNotFound, KindValidation},
	{ErrInvalidOrExpiredOTP, KindValidation},
	{ErrNoPendingSignup, KindValidation},
	{ErrOAuthProviderUnknown, KindValidation},
	{ErrOAuthStateInvalid, KindValidation},
	{ErrOAuthEmailMissing, KindValidation},
	{ErrInvalidCredentials, KindAuthentication},
	{ErrTokenInvalid, KindAuthentication},
	{ErrTokenExpired, KindAuthentication},
	{ErrAccountNotVerified, KindAuthorization},
	{ErrUnauthorized, KindAuthorization},
	{ErrUserNotFound, KindNotFound},
	{ErrProfileNotFound, KindNotFound},
	{ErrArchiveNotFound, KindNotFound},
	{ErrEmailTaken, KindConflict},
	{ErrRoleChangeInProgress, KindConflict},
}

// KindOf maps an error chain onto its transport-level kind
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return KindDelivery
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}

// DeliveryError reports that an OTP was issued and stored but the email could not be sent.
// The code stays valid; callers may resend.
type DeliveryError struct {
	Email string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("otp delivery to %s failed: %v", e.Email, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsDeliveryError reports whether err carries a DeliveryError
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
