package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/you/marketauth/domain"
)

// DefaultOTPTTL is the lifetime of every issued code
const DefaultOTPTTL = 10 * time.Minute

// codes are uniform in [otpMin, otpMin+otpSpan)
const (
	otpMin  = 100000
	otpSpan = 900000
)

// OTPServiceImpl implements domain.OTPService. It is pure: callers persist the returned state.
type OTPServiceImpl struct {
	ttl time.Duration
	now func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(ttl time.Duration) domain.OTPService {
	return NewOTPServiceWithClock(ttl, time.Now)
}

// NewOTPServiceWithClock creates an OTP service with an injected clock
func NewOTPServiceWithClock(ttl time.Duration, now func() time.Time) *OTPServiceImpl {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPServiceImpl{ttl: ttl, now: now}
}

// Issue implements domain.OTPService
func (s *OTPServiceImpl) Issue(purpose domain.OTPPurpose) (*domain.IssuedOTP, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	code := strconv.FormatInt(n.Int64()+otpMin, 10)
	return &domain.IssuedOTP{
		Code:      code,
		Hash:      HashOTP(code),
		ExpiresAt: s.now().Add(s.ttl),
		Purpose:   purpose,
	}, nil
}

// Verify implements domain.OTPService.
// A wrong code is always ErrOTPInvalid, whether or not the stored code has expired.
func (s *OTPServiceImpl) Verify(state *domain.OTPState, code string) error {
	if state == nil || state.CodeHash == "" {
		return domain.ErrOTPNotFound
	}
	if state.Verified {
		return domain.ErrOTPAlreadyVerified
	}
	if subtle.ConstantTimeCompare([]byte(HashOTP(code)), []byte(state.CodeHash)) != 1 {
		return domain.ErrOTPInvalid
	}
	if s.now().After(state.ExpiresAt) {
		return domain.ErrOTPExpired
	}
	return nil
}

// HashOTP returns the hex SHA-256 digest stored in place of a code
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
