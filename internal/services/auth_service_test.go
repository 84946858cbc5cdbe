package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/infrastructure/auth"
	"github.com/you/marketauth/internal/infrastructure/repositories"
	"github.com/you/marketauth/internal/mocks"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthServiceImpl_Signup(t *testing.T) {
	dbDown := errors.New("db down")

	tests := []struct {
		name          string
		input         domain.SignupInput
		setupMocks    func(f *authFixture)
		expectedError error
		validate      func(t *testing.T, f *authFixture, stored *domain.TempUser)
	}{
		{
			name:  "successful signup normalizes email and stages user",
			input: domain.SignupInput{Name: " Ada ", Email: "  Ada@Example.COM ", Password: "secret123"},
			validate: func(t *testing.T, f *authFixture, stored *domain.TempUser) {
				require.NotNil(t, stored)
				assert.Equal(t, "ada@example.com", stored.Email)
				assert.Equal(t, "Ada", stored.Name)
				assert.Equal(t, "hashed_secret123", stored.PasswordHash)
				assert.Equal(t, []string{"secret123"}, f.passwords.Hashed)
				assert.Equal(t, domain.RoleUser, stored.Role)
				assert.Equal(t, domain.OTPPurposeSignup, stored.OTP.Purpose)
				assert.Equal(t, "123456", f.sender.LastCode("ada@example.com"))
				assert.Equal(t, SignupOTPSubject, f.sender.Sent[0].Subject)
				assert.Equal(t, []domain.AuditEventType{domain.SignupRequestedEvent}, f.audit.EventTypes())
			},
		},
		{
			name:  "moderator signup keeps role",
			input: domain.SignupInput{Name: "Mo", Email: "mo@example.com", Password: "pw", Role: domain.RoleModerator},
			validate: func(t *testing.T, f *authFixture, stored *domain.TempUser) {
				assert.Equal(t, domain.RoleModerator, stored.Role)
			},
		},
		{
			name:          "admin role rejected",
			input:         domain.SignupInput{Name: "Eve", Email: "eve@example.com", Password: "pw", Role: domain.RoleAdmin},
			expectedError: domain.ErrInvalidRole,
		},
		{
			name:          "missing name",
			input:         domain.SignupInput{Email: "a@example.com", Password: "pw"},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "missing password",
			input:         domain.SignupInput{Name: "A", Email: "a@example.com"},
			expectedError: domain.ErrValidation,
		},
		{
			name:  "email already registered",
			input: domain.SignupInput{Name: "Test", Email: "TEST@example.com", Password: "pw"},
			setupMocks: func(f *authFixture) {
				f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					if email == "test@example.com" {
						return createValidUser(t), nil
					}
					return nil, domain.ErrUserNotFound
				}
			},
			expectedError: domain.ErrEmailTaken,
		},
		{
			name:  "repository failure",
			input: domain.SignupInput{Name: "A", Email: "a@example.com", Password: "pw"},
			setupMocks: func(f *authFixture) {
				f.temps.UpsertFunc = func(ctx context.Context, user *domain.TempUser) error { return dbDown }
			},
			expectedError: dbDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createAuthServiceForTest(t)
			var stored *domain.TempUser
			f.temps.UpsertFunc = func(ctx context.Context, user *domain.TempUser) error {
				stored = user
				return nil
			}
			if tt.setupMocks != nil {
				tt.setupMocks(f)
			}

			dispatch, err := f.svc.Signup(createTestContext(t), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, dispatch)
				assert.Empty(t, f.sender.Sent)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, dispatch)
			assert.Equal(t, NormalizeEmail(tt.input.Email), dispatch.Email)
			if tt.validate != nil {
				tt.validate(t, f, stored)
			}
		})
	}
}

func TestAuthServiceImpl_Signup_DeliveryFailureKeepsRecord(t *testing.T) {
	f := createAuthServiceForTest(t)
	upserts := 0
	f.temps.UpsertFunc = func(ctx context.Context, user *domain.TempUser) error {
		upserts++
		return nil
	}
	f.sender.SendOTPFunc = func(ctx context.Context, to, code, subject string) error {
		return errors.New("mail relay refused")
	}

	dispatch, err := f.svc.Signup(createTestContext(t), domain.SignupInput{Name: "A", Email: "a@example.com", Password: "pw"})

	require.Error(t, err)
	assert.True(t, domain.IsDeliveryError(err))
	require.NotNil(t, dispatch)
	assert.Equal(t, "a@example.com", dispatch.Email)
	assert.Equal(t, 1, upserts)
	assert.Contains(t, f.audit.EventTypes(), domain.OTPDeliveryFailureEvent)
	require.NotEmpty(t, f.logs.AllEntries())
	assert.Equal(t, "otp delivery failed", f.logs.LastEntry().Message)
}

func TestAuthServiceImpl_VerifySignupOTP(t *testing.T) {
	tests := []struct {
		name          string
		code          string
		temp          func(t *testing.T) *domain.TempUser
		createErr     error
		expectedError error
		expectDelete  bool
		expectCreate  bool
	}{
		{
			name:         "valid code creates verified user",
			code:         "123456",
			temp:         createTempUser,
			expectDelete: true,
			expectCreate: true,
		},
		{
			name:          "no pending signup",
			code:          "123456",
			temp:          func(t *testing.T) *domain.TempUser { return nil },
			expectedError: domain.ErrNoPendingSignup,
		},
		{
			name:          "wrong code keeps pending signup",
			code:          "000000",
			temp:          createTempUser,
			expectedError: domain.ErrOTPInvalid,
		},
		{
			name: "expired code discards pending signup",
			code: "123456",
			temp: func(t *testing.T) *domain.TempUser {
				tu := createTempUser(t)
				tu.OTP.ExpiresAt = time.Now().Add(-time.Minute)
				return tu
			},
			expectedError: domain.ErrOTPExpired,
			expectDelete:  true,
		},
		{
			name:          "email claimed concurrently",
			code:          "123456",
			temp:          createTempUser,
			createErr:     domain.ErrEmailTaken,
			expectedError: domain.ErrEmailTaken,
			expectCreate:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createAuthServiceForTest(t)
			temp := tt.temp(t)

			f.temps.FindByEmailFunc = func(ctx context.Context, email string) (*domain.TempUser, error) {
				if temp == nil || email != temp.Email {
					return nil, domain.ErrNoPendingSignup
				}
				return temp, nil
			}
			// the mock OTP service treats the stored hash as the code, so mimic expiry here
			f.otps.VerifyFunc = func(state *domain.OTPState, code string) error {
				if state.CodeHash != code {
					return domain.ErrOTPInvalid
				}
				if time.Now().After(state.ExpiresAt) {
					return domain.ErrOTPExpired
				}
				return nil
			}
			deleted := false
			f.temps.DeleteFunc = func(ctx context.Context, email string) error {
				deleted = true
				return nil
			}
			var created *domain.User
			f.users.CreateFunc = func(ctx context.Context, user *domain.User) error {
				created = user
				if tt.createErr != nil {
					return tt.createErr
				}
				user.ID = 42
				return nil
			}

			result, err := f.svc.VerifySignupOTP(createTestContext(t), " NEW@example.com", tt.code)

			assert.Equal(t, tt.expectDelete, deleted, "temp user deletion")
			assert.Equal(t, tt.expectCreate, created != nil, "user creation")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "token_user_42_user", result.Token)
			assert.Equal(t, 24*time.Hour, result.ExpiresIn)
			assert.Equal(t, uint(42), result.User.ID)
			assert.True(t, result.User.IsVerified)
			assert.Equal(t, "hashed_password123", created.PasswordHash)
			assert.Contains(t, f.audit.EventTypes(), domain.SignupVerifiedEvent)
		})
	}
}

func TestAuthServiceImpl_Login(t *testing.T) {
	tests := []struct {
		name           string
		email          string
		password       string
		rememberMe     bool
		setupMocks     func(t *testing.T, f *authFixture)
		expectedError  error
		expectedStatus domain.LoginStatus
		validate       func(t *testing.T, f *authFixture, result *domain.LoginResult)
	}{
		{
			name:     "verified user logs in",
			email:    "Test@Example.com",
			password: "password123",
			setupMocks: func(t *testing.T, f *authFixture) {
				f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					return createValidUser(t), nil
				}
			},
			expectedStatus: domain.LoginAuthenticated,
			validate: func(t *testing.T, f *authFixture, result *domain.LoginResult) {
				require.NotNil(t, result.Auth)
				assert.Equal(t, "token_user_1_user", result.Auth.Token)
				assert.Equal(t, 24*time.Hour, result.Auth.ExpiresIn)
				assert.Equal(t, []domain.AuditEventType{domain.UserLoginEvent}, f.audit.EventTypes())
			},
		},
		{
			name:       "remember me extends lifetime",
			email:      "test@example.com",
			password:   "password123",
			rememberMe: true,
			setupMocks: func(t *testing.T, f *authFixture) {
				f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					return createValidUser(t), nil
				}
			},
			expectedStatus: domain.LoginAuthenticated,
			validate: func(t *testing.T, f *authFixture, result *domain.LoginResult) {
				assert.Equal(t, 30*24*time.Hour, result.Auth.ExpiresIn)
			},
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "nope",
			setupMocks: func(t *testing.T, f *authFixture) {
				f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					return createValidUser(t), nil
				}
			},
			expectedError: domain.ErrInvalidCredentials,
		},
		{
			name:     "oauth account without password",
			email:    "test@example.com",
			password: "",
			setupMocks: func(t *testing.T, f *authFixture) {
				f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					u := createValidUser(t)
					u.PasswordHash = ""
					u.Provider = domain.ProviderGoogle
					return u, nil
				}
				f.passwords.VerifyFunc = func(hashed, pw string) bool { return true }
			},
			expectedError: domain.ErrInvalidCredentials,
		},
		{
			name:     "unverified permanent user gets a fresh code",
			email:    "test@example.com",
			password: "password123",
			setupMocks: func(t *testing.T, f *authFixture) {
				f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					u := createValidUser(t)
					u.IsVerified = false
					return u, nil
				}
				f.users.UpdateFunc = func(ctx context.Context, user *domain.User) error {
					require.NotNil(t, user.OTP)
					assert.Equal(t, domain.OTPPurposeSignup, user.OTP.Purpose)
					assert.False(t, user.IsVerified)
					return nil
				}
			},
			expectedStatus: domain.LoginPendingVerification,
			validate: func(t *testing.T, f *authFixture, result *domain.LoginResult) {
				assert.Nil(t, result.Auth)
				assert.Equal(t, "123456", f.sender.LastCode("test@example.com"))
				assert.Equal(t, []domain.AuditEventType{domain.UserLoginPendingEvent}, f.audit.EventTypes())
			},
		},
		{
			name:     "pending signup gets a fresh code",
			email:    "new@example.com",
			password: "password123",
			setupMocks: func(t *testing.T, f *authFixture) {
				temp := createTempUser(t)
				temp.OTP.CodeHash = "stale"
				f.temps.FindByEmailFunc = func(ctx context.Context, email string) (*domain.TempUser, error) {
					return temp, nil
				}
				f.temps.UpsertFunc = func(ctx context.Context, user *domain.TempUser) error {
					assert.Equal(t, "123456", user.OTP.CodeHash)
					return nil
				}
			},
			expectedStatus: domain.LoginPendingVerification,
			validate: func(t *testing.T, f *authFixture, result *domain.LoginResult) {
				assert.Nil(t, result.Auth)
				assert.Equal(t, "new@example.com", result.Email)
				assert.Equal(t, "123456", f.sender.LastCode("new@example.com"))
			},
		},
		{
			name:     "pending signup with wrong password",
			email:    "new@example.com",
			password: "wrong",
			setupMocks: func(t *testing.T, f *authFixture) {
				f.temps.FindByEmailFunc = func(ctx context.Context, email string) (*domain.TempUser, error) {
					return createTempUser(t), nil
				}
			},
			expectedError: domain.ErrInvalidCredentials,
		},
		{
			name:          "unknown email",
			email:         "ghost@example.com",
			password:      "pw",
			setupMocks:    func(t *testing.T, f *authFixture) {},
			expectedError: domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createAuthServiceForTest(t)
			tt.setupMocks(t, f)

			result, err := f.svc.Login(createTestContext(t), tt.email, tt.password, tt.rememberMe)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				assert.Contains(t, f.audit.EventTypes(), domain.UserLoginFailureEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, result.Status)
			if tt.validate != nil {
				tt.validate(t, f, result)
			}
		})
	}
}

func TestAuthServiceImpl_ResendOTP(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		_, err := f.svc.ResendOTP(createTestContext(t), "a@example.com", domain.OTPType("sms"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("signup without pending record", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		_, err := f.svc.ResendOTP(createTestContext(t), "a@example.com", domain.OTPTypeSignup)
		assert.ErrorIs(t, err, domain.ErrNoPendingSignup)
	})

	t.Run("forgot for unknown user", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		_, err := f.svc.ResendOTP(createTestContext(t), "a@example.com", domain.OTPTypeForgot)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("forgot stores reset code on user", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
			return createValidUser(t), nil
		}
		var updated *domain.User
		f.users.UpdateFunc = func(ctx context.Context, user *domain.User) error {
			updated = user
			return nil
		}

		dispatch, err := f.svc.ResendOTP(createTestContext(t), "test@example.com", domain.OTPTypeForgot)
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", dispatch.Email)
		require.NotNil(t, updated.OTP)
		assert.Equal(t, domain.OTPPurposeForgotPassword, updated.OTP.Purpose)
		assert.Equal(t, ResetOTPSubject, f.sender.Sent[0].Subject)
		assert.Contains(t, f.audit.EventTypes(), domain.OTPResentEvent)
	})
}

func TestAuthServiceImpl_GetUserFromToken(t *testing.T) {
	f := createAuthServiceForTest(t)
	f.users.FindByIDFunc = func(ctx context.Context, id uint) (*domain.User, error) {
		if id == 1 {
			return createValidUser(t), nil
		}
		return nil, domain.ErrUserNotFound
	}

	user, err := f.svc.GetUserFromToken(createTestContext(t), "any")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)

	_, err = f.svc.GetUserFromToken(createTestContext(t), "")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	f.tokens.VerifyFunc = func(token string) (*domain.TokenClaims, error) { return nil, domain.ErrTokenExpired }
	_, err = f.svc.GetUserFromToken(createTestContext(t), "old")
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestAuthServiceImpl_LoginPasswordChecks(t *testing.T) {
	t.Run("password account is checked against stored hash", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
			return createValidUser(t), nil
		}
		var checkedHash string
		f.passwords.VerifyFunc = func(hashed, pw string) bool {
			checkedHash = hashed
			return hashed == "hashed_"+pw
		}

		_, err := f.svc.Login(createTestContext(t), "test@example.com", "password123", false)

		require.NoError(t, err)
		assert.Equal(t, 1, f.passwords.VerifyCalls)
		assert.Equal(t, "hashed_password123", checkedHash)
		assert.Empty(t, f.passwords.Hashed)
	})

	t.Run("oauth account never reaches the hasher", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
			u := createValidUser(t)
			u.PasswordHash = ""
			u.Provider = domain.ProviderGitHub
			return u, nil
		}

		_, err := f.svc.Login(createTestContext(t), "test@example.com", "anything", false)

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Zero(t, f.passwords.VerifyCalls)
	})
}

func TestAuthServiceImpl_LoginOAuth(t *testing.T) {
	t.Run("first contact creates verified user", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		var created *domain.User
		f.users.CreateFunc = func(ctx context.Context, user *domain.User) error {
			user.ID = 9
			created = user
			return nil
		}
		tempDeleted := ""
		f.temps.DeleteFunc = func(ctx context.Context, email string) error {
			tempDeleted = email
			return nil
		}

		result, err := f.svc.LoginOAuth(createTestContext(t), domain.OAuthProfile{
			Provider:      domain.ProviderGitHub,
			Email:         "Octo@GitHub.com",
			EmailVerified: true,
			AvatarURL:     "https://avatars.example/octo.png",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "octo@github.com", created.Email)
		assert.Equal(t, "octo", created.Name)
		assert.Equal(t, domain.ProviderGitHub, created.Provider)
		assert.Equal(t, domain.RoleUser, created.Role)
		assert.True(t, created.IsVerified)
		assert.Empty(t, created.PasswordHash)
		assert.Equal(t, "octo@github.com", tempDeleted)
		assert.Equal(t, 30*24*time.Hour, result.ExpiresIn)
		assert.Contains(t, f.audit.EventTypes(), domain.OAuthLoginEvent)
	})

	t.Run("existing account is verified and keeps its role", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		existing := createValidUser(t)
		existing.IsVerified = false
		existing.Role = domain.RoleModerator
		f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
			return existing, nil
		}
		updates := 0
		f.users.UpdateFunc = func(ctx context.Context, user *domain.User) error {
			updates++
			return nil
		}

		result, err := f.svc.LoginOAuth(createTestContext(t), domain.OAuthProfile{
			Provider:      domain.ProviderGoogle,
			Email:         "test@example.com",
			EmailVerified: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, updates)
		assert.True(t, existing.IsVerified)
		assert.Equal(t, domain.RoleModerator, result.User.Role)
	})

	t.Run("unverified provider email rejected", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		_, err := f.svc.LoginOAuth(createTestContext(t), domain.OAuthProfile{
			Provider: domain.ProviderGitHub,
			Email:    "a@example.com",
		})
		assert.ErrorIs(t, err, domain.ErrOAuthEmailMissing)
	})

	t.Run("missing email rejected", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		_, err := f.svc.LoginOAuth(createTestContext(t), domain.OAuthProfile{Provider: domain.ProviderGoogle, EmailVerified: true})
		assert.ErrorIs(t, err, domain.ErrOAuthEmailMissing)
	})
}

func TestAuthServiceImpl_EnsureAdmin(t *testing.T) {
	t.Run("creates admin when none exists", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		var created *domain.User
		f.users.CreateFunc = func(ctx context.Context, user *domain.User) error {
			created = user
			return nil
		}

		ok, err := f.svc.EnsureAdmin(createTestContext(t), "Root@Example.com", "changeme")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.RoleAdmin, created.Role)
		assert.Equal(t, "root@example.com", created.Email)
		assert.Equal(t, "hashed_changeme", created.PasswordHash)
		assert.True(t, created.IsVerified)
	})

	t.Run("no-op when an admin exists", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		f.users.ExistsWithRoleFunc = func(ctx context.Context, role domain.Role) (bool, error) { return true, nil }
		f.users.CreateFunc = func(ctx context.Context, user *domain.User) error {
			t.Error("Create should not be called")
			return nil
		}

		ok, err := f.svc.EnsureAdmin(createTestContext(t), "root@example.com", "changeme")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no-op without credentials", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		ok, err := f.svc.EnsureAdmin(createTestContext(t), "", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("email held by a regular user", func(t *testing.T) {
		f := createAuthServiceForTest(t)
		f.users.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
			return createValidUser(t), nil
		}
		_, err := f.svc.EnsureAdmin(createTestContext(t), "test@example.com", "changeme")
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})
}

// flowFixture runs AuthService over sqlite repositories and the real OTP and bcrypt services
type flowFixture struct {
	svc      *AuthServiceImpl
	users    domain.UserRepository
	temps    domain.TempUserRepository
	profiles domain.ProfileRepository
	sender   *mocks.MockOTPSender
	clock    *fakeClock
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	db := setupTestDB(t)
	clock := &fakeClock{t: time.Now()}
	f := &flowFixture{
		users:    repositories.NewUserRepository(db),
		temps:    repositories.NewTempUserRepository(db),
		profiles: repositories.NewProfileRepository(db),
		sender:   mocks.NewMockOTPSender(),
		clock:    clock,
	}
	f.svc = NewAuthService(AuthDeps{
		Users:     f.users,
		TempUsers: f.temps,
		Profiles:  f.profiles,
		Passwords: auth.NewPasswordServiceWithCost(bcrypt.MinCost),
		Tokens:    auth.NewJWTService("flow-secret", "marketauth"),
		OTPs:      NewOTPServiceWithClock(10*time.Minute, clock.Now),
		Sender:    f.sender,
	}, AuthConfig{TokenTTL: time.Hour, RememberTTL: 24 * time.Hour})
	return f
}

func TestAuthFlow_SignupVerifyLogin(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	_, err := f.svc.Signup(ctx, domain.SignupInput{Name: "Ada", Email: "ada@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	code := f.sender.LastCode("ada@example.com")
	require.Len(t, code, 6)

	// the stored code is hashed
	temp, err := f.temps.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, code, temp.OTP.CodeHash)
	assert.NotEqual(t, "s3cret!", temp.PasswordHash)

	result, err := f.svc.VerifySignupOTP(ctx, "ada@example.com", code)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.User.IsVerified)

	_, err = f.svc.VerifySignupOTP(ctx, "ada@example.com", code)
	assert.ErrorIs(t, err, domain.ErrNoPendingSignup)

	login, err := f.svc.Login(ctx, "ADA@example.com", "s3cret!", false)
	require.NoError(t, err)
	assert.Equal(t, domain.LoginAuthenticated, login.Status)

	user, err := f.svc.GetUserFromToken(ctx, login.Auth.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)

	_, err = f.svc.Signup(ctx, domain.SignupInput{Name: "Ada", Email: "ada@example.com", Password: "again"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestAuthFlow_RepeatedSignupInvalidatesEarlierCode(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	in := domain.SignupInput{Name: "Bo", Email: "bo@example.com", Password: "pw1"}
	_, err := f.svc.Signup(ctx, in)
	require.NoError(t, err)
	first := f.sender.LastCode("bo@example.com")

	in.Password = "pw2"
	_, err = f.svc.Signup(ctx, in)
	require.NoError(t, err)
	second := f.sender.LastCode("bo@example.com")

	if first != second {
		_, err = f.svc.VerifySignupOTP(ctx, "bo@example.com", first)
		assert.ErrorIs(t, err, domain.ErrOTPInvalid)
	}

	_, err = f.svc.VerifySignupOTP(ctx, "bo@example.com", second)
	require.NoError(t, err)

	// last write wins, including the password
	_, err = f.svc.Login(ctx, "bo@example.com", "pw1", false)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "bo@example.com", "pw2", false)
	assert.NoError(t, err)
}

func TestAuthFlow_ExpiredSignupMustRestart(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	_, err := f.svc.Signup(ctx, domain.SignupInput{Name: "Cy", Email: "cy@example.com", Password: "pw"})
	require.NoError(t, err)
	code := f.sender.LastCode("cy@example.com")

	f.clock.Advance(11 * time.Minute)
	_, err = f.svc.VerifySignupOTP(ctx, "cy@example.com", code)
	assert.ErrorIs(t, err, domain.ErrOTPExpired)

	_, err = f.svc.VerifySignupOTP(ctx, "cy@example.com", code)
	assert.ErrorIs(t, err, domain.ErrNoPendingSignup)
}

func TestAuthFlow_PendingLoginResendsCode(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	_, err := f.svc.Signup(ctx, domain.SignupInput{Name: "Di", Email: "di@example.com", Password: "pw"})
	require.NoError(t, err)
	require.Len(t, f.sender.Sent, 1)

	result, err := f.svc.Login(ctx, "di@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, domain.LoginPendingVerification, result.Status)
	require.Len(t, f.sender.Sent, 2)

	_, err = f.svc.VerifySignupOTP(ctx, "di@example.com", f.sender.LastCode("di@example.com"))
	assert.NoError(t, err)
}

func TestAuthFlow_PasswordReset(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	_, err := f.svc.Signup(ctx, domain.SignupInput{Name: "Ed", Email: "ed@example.com", Password: "old-pw"})
	require.NoError(t, err)
	_, err = f.svc.VerifySignupOTP(ctx, "ed@example.com", f.sender.LastCode("ed@example.com"))
	require.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, "ed@example.com", "123456", "new-pw")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredOTP, "no reset requested yet")

	_, err = f.svc.ForgotPassword(ctx, "ed@example.com")
	require.NoError(t, err)
	code := f.sender.LastCode("ed@example.com")

	_, err = f.svc.ResetPassword(ctx, "ed@example.com", wrongCode(code), "new-pw")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredOTP)

	msg, err := f.svc.ResetPassword(ctx, "ed@example.com", code, "new-pw")
	require.NoError(t, err)
	assert.Equal(t, PasswordResetMessage, msg)

	// the code is single use
	_, err = f.svc.ResetPassword(ctx, "ed@example.com", code, "other")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredOTP)

	_, err = f.svc.Login(ctx, "ed@example.com", "old-pw", false)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "ed@example.com", "new-pw", false)
	assert.NoError(t, err)
}

func TestAuthFlow_ResetRejectsCodeOfAnotherPurpose(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	otps := NewOTPServiceWithClock(10*time.Minute, f.clock.Now)
	issued, err := otps.Issue(domain.OTPPurposeSignup)
	require.NoError(t, err)
	state := issued.State()

	user := &domain.User{
		Name:         "Fi",
		Email:        "fi@example.com",
		PasswordHash: "x",
		Role:         domain.RoleUser,
		Provider:     domain.ProviderEmail,
		IsVerified:   true,
		OTP:          &state,
	}
	require.NoError(t, f.users.Create(ctx, user))

	_, err = f.svc.ResetPassword(ctx, "fi@example.com", issued.Code, "new-pw")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredOTP)
}

func TestAuthFlow_ResetCodeExpires(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	ok, err := f.svc.EnsureAdmin(ctx, "root@example.com", "root-pw")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.ForgotPassword(ctx, "root@example.com")
	require.NoError(t, err)
	code := f.sender.LastCode("root@example.com")

	f.clock.Advance(10*time.Minute + time.Second)
	_, err = f.svc.ResetPassword(ctx, "root@example.com", code, "new-pw")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredOTP)

	_, err = f.svc.ForgotPassword(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAuthFlow_NewAccountsGetDefaultProfile(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	_, err := f.svc.Signup(ctx, domain.SignupInput{Name: "Mo", Email: "mo@example.com", Password: "pw", Role: domain.RoleModerator})
	require.NoError(t, err)
	mod, err := f.svc.VerifySignupOTP(ctx, "mo@example.com", f.sender.LastCode("mo@example.com"))
	require.NoError(t, err)

	profile, err := f.profiles.FindProfile(ctx, mod.User.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Moderator)
	assert.Equal(t, "Mo's Store", profile.Moderator.StoreName)
	assert.Equal(t, domain.ApprovalPending, profile.Moderator.ApprovalStatus)

	_, err = f.svc.Signup(ctx, domain.SignupInput{Name: "Ux", Email: "ux@example.com", Password: "pw"})
	require.NoError(t, err)
	shopper, err := f.svc.VerifySignupOTP(ctx, "ux@example.com", f.sender.LastCode("ux@example.com"))
	require.NoError(t, err)
	profile, err = f.profiles.FindProfile(ctx, shopper.User.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Customer)
	assert.Equal(t, "Default Address", profile.Customer.ShippingAddress)

	social, err := f.svc.LoginOAuth(ctx, domain.OAuthProfile{
		Provider:      domain.ProviderGitHub,
		ProviderID:    "7",
		Email:         "octo@example.com",
		EmailVerified: true,
		Name:          "Octo",
	})
	require.NoError(t, err)
	profile, err = f.profiles.FindProfile(ctx, social.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileCustomer, profile.Kind)

	ok, err := f.svc.EnsureAdmin(ctx, "root@example.com", "root-pw")
	require.NoError(t, err)
	require.True(t, ok)
	admin, err := f.users.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	_, err = f.profiles.FindProfile(ctx, admin.ID)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestAuthFlow_UnverifiedAccountIsSentACode(t *testing.T) {
	f := newFlowFixture(t)
	ctx := createTestContext(t)

	hash, err := auth.NewPasswordServiceWithCost(bcrypt.MinCost).Hash("pw")
	require.NoError(t, err)
	user := &domain.User{
		Name:         "Gil",
		Email:        "gil@example.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Provider:     domain.ProviderEmail,
	}
	require.NoError(t, f.users.Create(ctx, user))

	result, err := f.svc.Login(ctx, "gil@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, domain.LoginPendingVerification, result.Status)
	require.Len(t, f.sender.Sent, 1)
	first := f.sender.LastCode("gil@example.com")

	_, err = f.svc.ResendOTP(ctx, "gil@example.com", domain.OTPTypeSignup)
	require.NoError(t, err)
	require.Len(t, f.sender.Sent, 2)
	second := f.sender.LastCode("gil@example.com")
	if first != second {
		_, err = f.svc.VerifySignupOTP(ctx, "gil@example.com", first)
		assert.ErrorIs(t, err, domain.ErrOTPInvalid)
	}

	verified, err := f.svc.VerifySignupOTP(ctx, "gil@example.com", second)
	require.NoError(t, err)
	assert.True(t, verified.User.IsVerified)
	assert.NotEmpty(t, verified.Token)

	_, err = f.svc.VerifySignupOTP(ctx, "gil@example.com", second)
	assert.ErrorIs(t, err, domain.ErrNoPendingSignup)

	login, err := f.svc.Login(ctx, "gil@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, domain.LoginAuthenticated, login.Status)
}

func wrongCode(code string) string {
	if code == "999999" {
		return "100000"
	}
	return "999999"
}
