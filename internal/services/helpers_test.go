package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/infrastructure/database"
	"github.com/you/marketauth/internal/mocks"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// authFixture bundles an AuthService with the mocks behind it
type authFixture struct {
	svc       *AuthServiceImpl
	users     *mocks.MockUserRepository
	temps     *mocks.MockTempUserRepository
	passwords *mocks.MockPasswordService
	tokens    *mocks.MockTokenService
	otps      *mocks.MockOTPService
	sender    *mocks.MockOTPSender
	audit     *mocks.MockAuditLogger
	logs      *logtest.Hook
}

// createAuthServiceForTest creates an AuthService with mock dependencies for testing
func createAuthServiceForTest(t *testing.T) *authFixture {
	t.Helper()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := &authFixture{
		users:     mocks.NewMockUserRepository(),
		temps:     mocks.NewMockTempUserRepository(),
		passwords: mocks.NewMockPasswordService(),
		tokens:    mocks.NewMockTokenService(),
		otps:      mocks.NewMockOTPService(),
		sender:    mocks.NewMockOTPSender(),
		audit:     mocks.NewMockAuditLogger(),
		logs:      hook,
	}
	f.svc = NewAuthService(AuthDeps{
		Users:     f.users,
		TempUsers: f.temps,
		Passwords: f.passwords,
		Tokens:    f.tokens,
		OTPs:      f.otps,
		Sender:    f.sender,
		Audit:     f.audit,
		Logger:    log,
	}, AuthConfig{TokenTTL: 24 * time.Hour, RememberTTL: 30 * 24 * time.Hour})
	return f
}

// createValidUser creates a verified email user for testing
func createValidUser(t *testing.T) *domain.User {
	t.Helper()

	return &domain.User{
		ID:           1,
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: "hashed_password123",
		Role:         domain.RoleUser,
		Provider:     domain.ProviderEmail,
		IsVerified:   true,
		CreatedAt:    time.Now().Add(-24 * time.Hour),
		UpdatedAt:    time.Now().Add(-1 * time.Hour),
	}
}

// createTempUser creates a pending signup whose stored code is "123456"
func createTempUser(t *testing.T) *domain.TempUser {
	t.Helper()

	return &domain.TempUser{
		Name:         "New User",
		Email:        "new@example.com",
		PasswordHash: "hashed_password123",
		Role:         domain.RoleUser,
		Provider:     domain.ProviderEmail,
		OTP: domain.OTPState{
			CodeHash:  "123456",
			ExpiresAt: time.Now().Add(10 * time.Minute),
			Purpose:   domain.OTPPurposeSignup,
		},
	}
}

// createTestContext creates a context for testing with timeout
func createTestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// setupTestDB creates a migrated in-memory SQLite database
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to connect database")

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db), "failed to migrate database")
	return db
}
