package domain

import "time"

// Role is the access level of a user
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Provider records how an identity was established
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// OTPPurpose scopes a one-time code to a single flow
type OTPPurpose string

const (
	OTPPurposeSignup         OTPPurpose = "signup"
	OTPPurposeForgotPassword OTPPurpose = "forgot-password"
	OTPPurpose2FA            OTPPurpose = "2fa"
)

// OTPType is the resend selector accepted from clients
type OTPType string

const (
	OTPTypeSignup OTPType = "signup"
	OTPTypeForgot OTPType = "forgot"
)

// OTPState is the hashed one-time code stored next to a user record
type OTPState struct {
	CodeHash  string
	ExpiresAt time.Time
	Verified  bool
	Purpose   OTPPurpose
}

// IssuedOTP carries a freshly generated code. Code is only for out-of-band delivery.
type IssuedOTP struct {
	Code      string
	Hash      string
	ExpiresAt time.Time
	Purpose   OTPPurpose
}

// State converts the issued code into its storable form
func (o *IssuedOTP) State() OTPState {
	return OTPState{
		CodeHash:  o.Hash,
		ExpiresAt: o.ExpiresAt,
		Purpose:   o.Purpose,
	}
}

// User represents a permanent account
type User struct {
	ID           uint
	Name         string
	Email        string
	PasswordHash string
	Image        string
	Role         Role
	Provider     Provider
	IsVerified   bool
	OTP          *OTPState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized view of a user returned to clients
type PublicUser struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Image      string    `json:"image,omitempty"`
	Role       Role      `json:"role"`
	Provider   Provider  `json:"provider"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Public strips credentials and OTP state
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Image:      u.Image,
		Role:       u.Role,
		Provider:   u.Provider,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// TempUser is a signup waiting for OTP confirmation
type TempUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Provider     Provider
	OTP          OTPState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SignupInput is the payload of a signup request
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// OTPDispatch reports where a code was sent
type OTPDispatch struct {
	Email string
}

// AuthResult represents a successful authentication
type AuthResult struct {
	Token     string
	ExpiresIn time.Duration
	User      PublicUser
}

// LoginStatus distinguishes the non-error login outcomes
type LoginStatus int

const (
	LoginAuthenticated LoginStatus = iota + 1
	LoginPendingVerification
)

// LoginResult is either an authenticated session or a signup still waiting for its OTP.
// Rejections are returned as errors.
type LoginResult struct {
	Status LoginStatus
	Auth   *AuthResult
	Email  string
}

// TokenSubject is the identity embedded into a session token
type TokenSubject struct {
	UserID uint
	Email  string
	Role   Role
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// OAuthProfile is the normalized identity returned by a social provider
type OAuthProfile struct {
	Provider      Provider
	ProviderID    string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// UserFilter narrows user listings
type UserFilter struct {
	Role  Role
	Limit int
}
