package app

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/config"
	"github.com/you/marketauth/internal/infrastructure/audit"
	"github.com/you/marketauth/internal/infrastructure/auth"
	"github.com/you/marketauth/internal/infrastructure/database"
	"github.com/you/marketauth/internal/infrastructure/notifications"
	"github.com/you/marketauth/internal/infrastructure/oauth"
	"github.com/you/marketauth/internal/infrastructure/repositories"
	"github.com/you/marketauth/internal/metrics"
	"github.com/you/marketauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *logrus.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Enforcer    *casbin.Enforcer
	Metrics     *metrics.Metrics

	// Repositories
	UserRepo     domain.UserRepository
	TempUserRepo domain.TempUserRepository
	ProfileRepo  domain.ProfileRepository
	OAuthStates  domain.OAuthStateStore
	Locker       domain.Locker

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	OTPSender       domain.OTPSender
	OTPSvc          domain.OTPService
	AuditLogger     domain.AuditLogger
	AuthSvc         domain.AuthService
	RoleSvc         domain.RoleService
	PolicySvc       domain.PolicyService
	OAuthSvc        *services.OAuthServiceImpl
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	// Initialize infrastructure
	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initMetrics()

	// Initialize repositories
	c.initRepositories()

	// Initialize services
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) initDatabase() error {
	level := logger.Warn
	if c.Logger.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}

	db, err := database.Open(c.Config.DSN, level)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	c.DB = db

	// Auto-migrate
	return database.AutoMigrate(db)
}

// initRedis connects when an address is configured. Without redis there is no
// cross-instance role lock and social login is disabled.
func (c *Container) initRedis(ctx context.Context) error {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if c.RedisClient == nil {
		c.Logger.Warn("redis not configured: role changes are serialised per database row only and oauth is disabled")
		return nil
	}
	if err := database.PingRedis(ctx, c.RedisClient); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", c.Config.RedisAddr, err)
	}
	return nil
}

func (c *Container) initMetrics() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.New(reg)
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.TempUserRepo = repositories.NewTempUserRepository(c.DB)
	c.ProfileRepo = repositories.NewProfileRepository(c.DB)
	if c.RedisClient != nil {
		c.OAuthStates = repositories.NewOAuthStateRepository(c.RedisClient)
		c.Locker = repositories.NewRedisLocker(c.RedisClient)
	}
}

func (c *Container) initServices() error {
	// Initialize basic services
	c.PasswordSvc = auth.NewPasswordService()
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer)
	c.OTPSvc = services.NewOTPService(c.Config.OTPTTL)
	c.AuditLogger = audit.NewLogrusAuditLogger(c.Logger)

	mailer, err := notifications.New(c.Config.Email, c.Logger)
	if err != nil {
		return err
	}
	c.NotificationSvc = mailer
	c.OTPSender = notifications.NewEmailOTPSender(mailer, int(c.Config.OTPTTL.Minutes()))

	enforcer, err := auth.NewEnforcer(c.DB, c.Config.CasbinModel)
	if err != nil {
		return err
	}
	c.Enforcer = enforcer
	c.PolicySvc = services.NewPolicyService(enforcer)

	c.AuthSvc = services.NewAuthService(services.AuthDeps{
		Users:     c.UserRepo,
		TempUsers: c.TempUserRepo,
		Profiles:  c.ProfileRepo,
		Passwords: c.PasswordSvc,
		Tokens:    c.TokenSvc,
		OTPs:      c.OTPSvc,
		Sender:    c.OTPSender,
		Audit:     c.AuditLogger,
		Metrics:   c.Metrics,
		Logger:    c.Logger,
	}, services.AuthConfig{
		TokenTTL:    c.Config.TokenTTL,
		RememberTTL: c.Config.RememberTTL,
	})

	c.RoleSvc = services.NewRoleService(services.RoleDeps{
		Users:    c.UserRepo,
		Profiles: c.ProfileRepo,
		Locker:   c.Locker,
		Audit:    c.AuditLogger,
		Metrics:  c.Metrics,
		Logger:   c.Logger,
	})

	if c.OAuthStates != nil {
		providers := c.oauthProviders()
		if len(providers) > 0 {
			c.OAuthSvc = services.NewOAuthService(c.OAuthStates, c.AuthSvc, c.Config.OAuthStateTTL, providers...)
		}
	}

	return nil
}

func (c *Container) oauthProviders() []domain.OAuthProvider {
	var providers []domain.OAuthProvider
	if c.Config.Google.OAuthEnabled() {
		providers = append(providers, oauth.NewGoogleProvider(c.Config.Google))
	}
	if c.Config.GitHub.OAuthEnabled() {
		providers = append(providers, oauth.NewGitHubProvider(c.Config.GitHub))
	}
	return providers
}

// Bootstrap seeds default policies and the configured admin account. Both steps are idempotent.
func (c *Container) Bootstrap(ctx context.Context) error {
	added, err := c.PolicySvc.SeedDefaults(services.DefaultPolicies())
	if err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}
	if added > 0 {
		c.Logger.WithField("added", added).Info("casbin: seeded default policies")
	}

	if c.Config.AdminEmail == "" || c.Config.AdminPassword == "" {
		c.Logger.Info("admin bootstrap skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}
	created, err := c.AuthSvc.EnsureAdmin(ctx, c.Config.AdminEmail, c.Config.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to provision admin: %w", err)
	}
	if created {
		c.Logger.WithField("email", c.Config.AdminEmail).Info("admin account created")
	}
	return nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Warn("failed to close redis")
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}
