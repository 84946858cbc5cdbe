package domain

import (
	"context"
	"time"
)

// UserRepository defines permanent user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	ExistsWithRole(ctx context.Context, role Role) (bool, error)
}

// TempUserRepository defines access to pending signups.
// Upsert is keyed by email; the last write wins.
type TempUserRepository interface {
	Upsert(ctx context.Context, user *TempUser) error
	FindByEmail(ctx context.Context, email string) (*TempUser, error)
	Delete(ctx context.Context, email string) error
}

// RoleStore is the set of writes a role transition performs. It is only valid
// inside RoleTransactor.InTx.
type RoleStore interface {
	LockUser(ctx context.Context, userID uint) (*User, error)
	UpdateRole(ctx context.Context, userID uint, role Role) error
	FindProfile(ctx context.Context, userID uint) (*RoleProfile, error)
	CreateProfile(ctx context.Context, profile *RoleProfile) error
	DeleteProfile(ctx context.Context, userID uint) error
	CreateArchive(ctx context.Context, archive *ProfileArchive) error
	LatestArchive(ctx context.Context, userID uint, kind ProfileKind) (*ProfileArchive, error)
	DeleteArchive(ctx context.Context, archiveID uint) error
}

// RoleTransactor runs fn atomically; any error rolls back every write made through the store
type RoleTransactor interface {
	InTx(ctx context.Context, fn func(store RoleStore) error) error
}

// ProfileRepository exposes role profiles outside of a transition
type ProfileRepository interface {
	RoleTransactor
	FindProfile(ctx context.Context, userID uint) (*RoleProfile, error)
	ListArchives(ctx context.Context, userID uint) ([]*ProfileArchive, error)
}

// OAuthStateStore keeps CSRF state for the OAuth redirect dance. Consume is single-use.
type OAuthStateStore interface {
	Save(ctx context.Context, state string, provider Provider, ttl time.Duration) error
	Consume(ctx context.Context, state string) (Provider, error)
}

// Locker is a best-effort distributed mutex
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// OTPService generates and checks one-time codes. It never persists anything.
type OTPService interface {
	Issue(purpose OTPPurpose) (*IssuedOTP, error)
	Verify(state *OTPState, code string) error
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines session token operations
type TokenService interface {
	Issue(subject TokenSubject, ttl time.Duration) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// NotificationService sends raw emails
type NotificationService interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// OTPSender delivers a plaintext code out of band
type OTPSender interface {
	SendOTP(ctx context.Context, to, code, subject string) error
}

// AuthService defines authentication business logic
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*OTPDispatch, error)
	VerifySignupOTP(ctx context.Context, email, code string) (*AuthResult, error)
	Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) (*OTPDispatch, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (string, error)
	ResendOTP(ctx context.Context, email string, otpType OTPType) (*OTPDispatch, error)
	GetUserFromToken(ctx context.Context, token string) (*User, error)
	LoginOAuth(ctx context.Context, profile OAuthProfile) (*AuthResult, error)
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

// RoleService defines role transitions
type RoleService interface {
	ChangeRole(ctx context.Context, in ChangeRoleInput) (*RoleChangeResult, error)
	GetProfile(ctx context.Context, userID uint) (*RoleProfile, error)
	ListArchives(ctx context.Context, userID uint) ([]*ProfileArchive, error)
}

// OAuthProvider wraps one social login provider
type OAuthProvider interface {
	Name() Provider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}

// OAuthService drives the redirect dance and hands the profile to AuthService
type OAuthService interface {
	AuthURL(ctx context.Context, provider Provider) (string, error)
	Callback(ctx context.Context, provider Provider, code, state string) (*AuthResult, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
	SeedDefaults(policies [][]string) (int, error)
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
}
