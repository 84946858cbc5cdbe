package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/metrics"
)

// Email subjects for each OTP flow
const (
	SignupOTPSubject = "Verify your email"
	ResetOTPSubject  = "Reset your password"
)

// PasswordResetMessage is returned by a successful ResetPassword
const PasswordResetMessage = "Password reset successfully"

// AuthConfig holds session lifetimes
type AuthConfig struct {
	TokenTTL    time.Duration
	RememberTTL time.Duration
}

// AuthDeps are the collaborators of AuthServiceImpl. Profiles, Audit, Metrics and Logger are optional.
type AuthDeps struct {
	Users     domain.UserRepository
	TempUsers domain.TempUserRepository
	Profiles  domain.ProfileRepository
	Passwords domain.PasswordService
	Tokens    domain.TokenService
	OTPs      domain.OTPService
	Sender    domain.OTPSender
	Audit     domain.AuditLogger
	Metrics   *metrics.Metrics
	Logger    logrus.FieldLogger
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	tempRepo    domain.TempUserRepository
	profileRepo domain.ProfileRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	otpSvc      domain.OTPService
	sender      domain.OTPSender
	audit       domain.AuditLogger
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
	cfg         AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(deps AuthDeps, cfg AuthConfig) *AuthServiceImpl {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.RememberTTL < cfg.TokenTTL {
		cfg.RememberTTL = cfg.TokenTTL
	}
	return &AuthServiceImpl{
		userRepo:    deps.Users,
		tempRepo:    deps.TempUsers,
		profileRepo: deps.Profiles,
		passwordSvc: deps.Passwords,
		tokenSvc:    deps.Tokens,
		otpSvc:      deps.OTPs,
		sender:      deps.Sender,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		log:         log.WithField("component", "auth"),
		cfg:         cfg,
	}
}

var _ domain.AuthService = (*AuthServiceImpl)(nil)

// NormalizeEmail is the canonical form every lookup uses
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup implements domain.AuthService.
// A repeated signup for the same email replaces the pending record, invalidating the earlier code.
func (s *AuthServiceImpl) Signup(ctx context.Context, in domain.SignupInput) (*domain.OTPDispatch, error) {
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleModerator {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := s.passwordSvc.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	otp, err := s.otpSvc.Issue(domain.OTPPurposeSignup)
	if err != nil {
		return nil, err
	}

	temp := &domain.TempUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Provider:     domain.ProviderEmail,
		OTP:          otp.State(),
	}
	if err := s.tempRepo.Upsert(ctx, temp); err != nil {
		return nil, fmt.Errorf("failed to store pending signup: %w", err)
	}

	s.metrics.SignupStaged()
	s.logEvent(ctx, domain.NewAuditEvent(domain.SignupRequestedEvent, 0).
		WithEmail(email).
		WithMetadata("role", string(role)))

	return &domain.OTPDispatch{Email: email}, s.deliver(ctx, email, otp.Code, SignupOTPSubject)
}

// VerifySignupOTP implements domain.AuthService
func (s *AuthServiceImpl) VerifySignupOTP(ctx context.Context, email, code string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)

	temp, err := s.tempRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNoPendingSignup) {
			return s.verifyExistingAccount(ctx, email, code)
		}
		return nil, fmt.Errorf("failed to load pending signup: %w", err)
	}

	if err := s.otpSvc.Verify(&temp.OTP, code); err != nil {
		s.metrics.OTPVerification(string(domain.OTPPurposeSignup), otpResult(err))
		if errors.Is(err, domain.ErrOTPExpired) {
			// an expired signup must start over
			if derr := s.tempRepo.Delete(ctx, email); derr != nil {
				return nil, fmt.Errorf("failed to discard expired signup: %w", derr)
			}
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.SignupFailedEvent, 0).WithEmail(email).WithError(err))
		return nil, err
	}
	s.metrics.OTPVerification(string(domain.OTPPurposeSignup), "success")

	user := &domain.User{
		Name:         temp.Name,
		Email:        temp.Email,
		PasswordHash: temp.PasswordHash,
		Role:         temp.Role,
		Provider:     temp.Provider,
		IsVerified:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.provisionProfile(ctx, user)

	if err := s.tempRepo.Delete(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to remove pending signup: %w", err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.SignupVerifiedEvent, user.ID).WithEmail(email))
	return s.newSession(user, false)
}

// verifyExistingAccount completes verification of a permanent account that holds a signup code
func (s *AuthServiceImpl) verifyExistingAccount(ctx context.Context, email, code string) (*domain.AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrNoPendingSignup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.IsVerified || user.OTP == nil || user.OTP.Purpose != domain.OTPPurposeSignup {
		return nil, domain.ErrNoPendingSignup
	}

	if err := s.otpSvc.Verify(user.OTP, code); err != nil {
		s.metrics.OTPVerification(string(domain.OTPPurposeSignup), otpResult(err))
		if errors.Is(err, domain.ErrOTPExpired) {
			user.OTP = nil
			if uerr := s.userRepo.Update(ctx, user); uerr != nil {
				return nil, fmt.Errorf("failed to clear expired code: %w", uerr)
			}
		}
		s.logEvent(ctx, domain.NewAuditEvent(domain.SignupFailedEvent, user.ID).WithEmail(email).WithError(err))
		return nil, err
	}
	s.metrics.OTPVerification(string(domain.OTPPurposeSignup), "success")

	user.IsVerified = true
	user.OTP = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.SignupVerifiedEvent, user.ID).WithEmail(email))
	return s.newSession(user, false)
}

// Login implements domain.AuthService.
// A signup still waiting for its code, or an account never verified, gets a fresh one instead of a session.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string, rememberMe bool) (*domain.LoginResult, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.PasswordHash == "" || !s.passwordSvc.Verify(user.PasswordHash, password) {
			return nil, s.loginFailed(ctx, email, domain.ErrInvalidCredentials)
		}
		if !user.IsVerified {
			return s.loginUnverified(ctx, user)
		}

		auth, err := s.newSession(user, rememberMe)
		if err != nil {
			return nil, err
		}
		s.metrics.Login("success")
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.ID).
			WithEmail(email).
			WithMetadata("remember_me", rememberMe))
		return &domain.LoginResult{Status: domain.LoginAuthenticated, Auth: auth, Email: email}, nil

	case errors.Is(err, domain.ErrUserNotFound):
		return s.loginPending(ctx, email, password)

	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
}

func (s *AuthServiceImpl) loginUnverified(ctx context.Context, user *domain.User) (*domain.LoginResult, error) {
	code, err := s.storeSignupOTP(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.Login("pending")
	s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginPendingEvent, user.ID).WithEmail(user.Email))

	result := &domain.LoginResult{Status: domain.LoginPendingVerification, Email: user.Email}
	return result, s.deliver(ctx, user.Email, code, SignupOTPSubject)
}

func (s *AuthServiceImpl) storeSignupOTP(ctx context.Context, user *domain.User) (string, error) {
	otp, err := s.otpSvc.Issue(domain.OTPPurposeSignup)
	if err != nil {
		return "", err
	}
	state := otp.State()
	user.OTP = &state
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return otp.Code, nil
}

func (s *AuthServiceImpl) loginPending(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	temp, err := s.tempRepo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNoPendingSignup) {
		return nil, s.loginFailed(ctx, email, domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending signup: %w", err)
	}
	if !s.passwordSvc.Verify(temp.PasswordHash, password) {
		return nil, s.loginFailed(ctx, email, domain.ErrInvalidCredentials)
	}

	otp, err := s.otpSvc.Issue(domain.OTPPurposeSignup)
	if err != nil {
		return nil, err
	}
	temp.OTP = otp.State()
	if err := s.tempRepo.Upsert(ctx, temp); err != nil {
		return nil, fmt.Errorf("failed to refresh pending signup: %w", err)
	}

	s.metrics.Login("pending")
	s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginPendingEvent, 0).WithEmail(email))

	result := &domain.LoginResult{Status: domain.LoginPendingVerification, Email: email}
	return result, s.deliver(ctx, email, otp.Code, SignupOTPSubject)
}

// provisionProfile gives a new account the default profile of its role.
// The account already exists, so a failure is logged and ChangeRole repairs it later.
func (s *AuthServiceImpl) provisionProfile(ctx context.Context, user *domain.User) {
	kind, ok := domain.ProfileKindFor(user.Role)
	if s.profileRepo == nil || !ok {
		return
	}
	err := s.profileRepo.InTx(ctx, func(store domain.RoleStore) error {
		if _, err := store.FindProfile(ctx, user.ID); err == nil {
			return nil
		} else if !errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}
		return store.CreateProfile(ctx, defaultProfile(user, kind))
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to create default profile")
	}
}

func (s *AuthServiceImpl) loginFailed(ctx context.Context, email string, err error) error {
	s.metrics.Login("failure")
	s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, 0).WithEmail(email).WithError(err))
	return err
}

// ForgotPassword implements domain.AuthService
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) (*domain.OTPDispatch, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	code, err := s.storeResetOTP(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetRequestedEvent, user.ID).WithEmail(email))
	return &domain.OTPDispatch{Email: email}, s.deliver(ctx, email, code, ResetOTPSubject)
}

func (s *AuthServiceImpl) storeResetOTP(ctx context.Context, user *domain.User) (string, error) {
	otp, err := s.otpSvc.Issue(domain.OTPPurposeForgotPassword)
	if err != nil {
		return "", err
	}
	state := otp.State()
	user.OTP = &state
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to store reset code: %w", err)
	}
	return otp.Code, nil
}

// ResetPassword implements domain.AuthService.
// Every OTP failure collapses into ErrInvalidOrExpiredOTP, including a code issued for another purpose.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	email = NormalizeEmail(email)
	if newPassword == "" {
		return "", fmt.Errorf("%w: new password is required", domain.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	purpose := string(domain.OTPPurposeForgotPassword)
	if user.OTP == nil || user.OTP.Purpose != domain.OTPPurposeForgotPassword {
		s.metrics.OTPVerification(purpose, "not_found")
		return "", domain.ErrInvalidOrExpiredOTP
	}
	if err := s.otpSvc.Verify(user.OTP, code); err != nil {
		s.metrics.OTPVerification(purpose, otpResult(err))
		return "", domain.ErrInvalidOrExpiredOTP
	}
	s.metrics.OTPVerification(purpose, "success")

	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	user.OTP = nil
	// the code proved control of the mailbox
	user.IsVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, user.ID).WithEmail(email))
	return PasswordResetMessage, nil
}

// ResendOTP implements domain.AuthService
func (s *AuthServiceImpl) ResendOTP(ctx context.Context, email string, otpType domain.OTPType) (*domain.OTPDispatch, error) {
	email = NormalizeEmail(email)

	var (
		code    string
		subject string
	)
	switch otpType {
	case domain.OTPTypeSignup:
		temp, err := s.tempRepo.FindByEmail(ctx, email)
		if errors.Is(err, domain.ErrNoPendingSignup) {
			user, uerr := s.userRepo.FindByEmail(ctx, email)
			if uerr != nil && !errors.Is(uerr, domain.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to look up user: %w", uerr)
			}
			if uerr != nil || user.IsVerified {
				return nil, err
			}
			if code, err = s.storeSignupOTP(ctx, user); err != nil {
				return nil, err
			}
			subject = SignupOTPSubject
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load pending signup: %w", err)
		}
		otp, err := s.otpSvc.Issue(domain.OTPPurposeSignup)
		if err != nil {
			return nil, err
		}
		temp.OTP = otp.State()
		if err := s.tempRepo.Upsert(ctx, temp); err != nil {
			return nil, fmt.Errorf("failed to refresh pending signup: %w", err)
		}
		code, subject = otp.Code, SignupOTPSubject

	case domain.OTPTypeForgot:
		user, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		if code, err = s.storeResetOTP(ctx, user); err != nil {
			return nil, err
		}
		subject = ResetOTPSubject

	default:
		return nil, fmt.Errorf("%w: unknown otp type %q", domain.ErrValidation, otpType)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.OTPResentEvent, 0).
		WithEmail(email).
		WithMetadata("type", string(otpType)))
	return &domain.OTPDispatch{Email: email}, s.deliver(ctx, email, code, subject)
}

// GetUserFromToken implements domain.AuthService
func (s *AuthServiceImpl) GetUserFromToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenSvc.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, claims.UserID)
}

// LoginOAuth implements domain.AuthService.
// Accounts are matched by email; first contact creates a verified user.
func (s *AuthServiceImpl) LoginOAuth(ctx context.Context, profile domain.OAuthProfile) (*domain.AuthResult, error) {
	email := NormalizeEmail(profile.Email)
	if email == "" || !profile.EmailVerified {
		return nil, domain.ErrOAuthEmailMissing
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		dirty := false
		if !user.IsVerified {
			user.IsVerified = true
			dirty = true
		}
		if user.Image == "" && profile.AvatarURL != "" {
			user.Image = profile.AvatarURL
			dirty = true
		}
		if dirty {
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to update user: %w", err)
			}
		}

	case errors.Is(err, domain.ErrUserNotFound):
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &domain.User{
			Name:       name,
			Email:      email,
			Image:      profile.AvatarURL,
			Role:       domain.RoleUser,
			Provider:   profile.Provider,
			IsVerified: true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.provisionProfile(ctx, user)
		// a provider-verified account supersedes any pending signup
		if err := s.tempRepo.Delete(ctx, email); err != nil {
			s.log.WithError(err).WithField("email", email).Warn("failed to discard pending signup")
		}

	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	s.metrics.Login("oauth")
	s.logEvent(ctx, domain.NewAuditEvent(domain.OAuthLoginEvent, user.ID).
		WithEmail(email).
		WithMetadata("provider", string(profile.Provider)))
	return s.newSession(user, true)
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet.
// It reports whether an account was created.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	exists, err := s.userRepo.ExistsWithRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check for admin: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return false, fmt.Errorf("admin bootstrap: %w", domain.ErrEmailTaken)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := s.passwordSvc.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &domain.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Provider:     domain.ProviderEmail,
		IsVerified:   true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.AdminProvisionedEvent, admin.ID).WithEmail(email))
	return true, nil
}

func (s *AuthServiceImpl) newSession(user *domain.User, rememberMe bool) (*domain.AuthResult, error) {
	ttl := s.cfg.TokenTTL
	if rememberMe {
		ttl = s.cfg.RememberTTL
	}

	token, err := s.tokenSvc.Issue(domain.TokenSubject{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &domain.AuthResult{
		Token:     token,
		ExpiresIn: ttl,
		User:      user.Public(),
	}, nil
}

// deliver sends a code that is already persisted. A failure does not undo the write.
func (s *AuthServiceImpl) deliver(ctx context.Context, email, code, subject string) error {
	err := s.sender.SendOTP(ctx, email, code, subject)
	if err == nil {
		return nil
	}

	s.metrics.DeliveryFailed()
	s.log.WithError(err).WithField("email", email).Error("otp delivery failed")
	s.logEvent(ctx, domain.NewAuditEvent(domain.OTPDeliveryFailureEvent, 0).WithEmail(email).WithError(err))
	return &domain.DeliveryError{Email: email, Err: err}
}

func (s *AuthServiceImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	event.WithClientContext(domain.ClientFromContext(ctx))
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.log.WithError(err).WithField("event", event.EventType).Debug("audit log failed")
	}
}

func otpResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrOTPExpired):
		return "expired"
	case errors.Is(err, domain.ErrOTPInvalid):
		return "invalid"
	case errors.Is(err, domain.ErrOTPAlreadyVerified):
		return "already_verified"
	case errors.Is(err, domain.ErrOTPNotFound):
		return "not_found"
	}
	return "error"
}
