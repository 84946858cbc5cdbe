package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port        int    `yaml:"port"`
	GinMode     string `yaml:"gin_mode"`
	LogLevel    string `yaml:"log_level"`
	FrontendURL string `yaml:"frontend_url"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	Issuer      string `yaml:"issuer"`
	TTL         string `yaml:"ttl"`
	RememberTTL string `yaml:"remember_ttl"`
}

type OTPConfig struct {
	TTL string `yaml:"ttl"`
}

type CookieConfig struct {
	Secure bool `yaml:"secure"`
}

type OAuthClientConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type OAuthConfig struct {
	Google   OAuthClientConfig `yaml:"google"`
	GitHub   OAuthClientConfig `yaml:"github"`
	StateTTL string            `yaml:"state_ttl"`
}

type EmailConfig struct {
	Provider      string `yaml:"provider"`
	From          string `yaml:"from"`
	MailgunDomain string `yaml:"mailgun_domain"`
	MailgunKey    string `yaml:"mailgun_key"`
	SendGridKey   string `yaml:"sendgrid_key"`
}

type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OTP      OTPConfig      `yaml:"otp"`
	Cookie   CookieConfig   `yaml:"cookie"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Email    EmailConfig    `yaml:"email"`
	Admin    AdminConfig    `yaml:"admin"`
	Casbin   CasbinConfig   `yaml:"casbin"`
}

// Config is the resolved process-wide configuration
type Config struct {
	Port          string
	GinMode       string
	LogLevel      string
	FrontendURL   string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	JWTIssuer     string
	TokenTTL      time.Duration
	RememberTTL   time.Duration
	OTPTTL        time.Duration
	CookieSecure  bool
	Google        OAuthClientConfig
	GitHub        OAuthClientConfig
	OAuthStateTTL time.Duration
	Email         EmailConfig
	AdminEmail    string
	AdminPassword string
	CasbinModel   string
}

const defaultConfigPath = "config/config.yml"

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads .env, the YAML config file and environment overrides, in that order
func Load() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	path := env("CONFIG_PATH", defaultConfigPath)
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	applyEnv(configFile)

	cfg, err := resolve(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	cf := defaults()

	bytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, cf); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}
	return cf, nil
}

func defaults() *ConfigFile {
	return &ConfigFile{
		App: AppConfig{
			Port:        5000,
			GinMode:     "debug",
			LogLevel:    "info",
			FrontendURL: "http://localhost:5173",
		},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		JWT:    JWTConfig{Issuer: "marketauth", TTL: "24h", RememberTTL: "720h"},
		OTP:    OTPConfig{TTL: "10m"},
		OAuth:  OAuthConfig{StateTTL: "10m"},
		Email:  EmailConfig{Provider: "log", From: "no-reply@localhost"},
		Casbin: CasbinConfig{ModelPath: "config/rbac_model.conf"},
	}
}

func applyEnv(cf *ConfigFile) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cf.App.Port = p
		}
	}
	cf.App.GinMode = env("GIN_MODE", cf.App.GinMode)
	cf.App.LogLevel = env("LOG_LEVEL", cf.App.LogLevel)
	cf.App.FrontendURL = env("FRONTEND_URL", cf.App.FrontendURL)

	cf.Database.DSN = env("DATABASE_DSN", cf.Database.DSN)

	cf.Redis.Addr = env("REDIS_ADDR", cf.Redis.Addr)
	cf.Redis.Password = env("REDIS_PASSWORD", cf.Redis.Password)
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cf.Redis.DB = db
		}
	}

	cf.JWT.Secret = env("JWT_SECRET", cf.JWT.Secret)
	cf.JWT.Issuer = env("JWT_ISSUER", cf.JWT.Issuer)
	cf.JWT.TTL = env("JWT_TTL", cf.JWT.TTL)
	cf.JWT.RememberTTL = env("JWT_REMEMBER_TTL", cf.JWT.RememberTTL)
	cf.OTP.TTL = env("OTP_TTL", cf.OTP.TTL)

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cf.Cookie.Secure = v == "true"
	}

	cf.OAuth.Google.ClientID = env("GOOGLE_CLIENT_ID", cf.OAuth.Google.ClientID)
	cf.OAuth.Google.ClientSecret = env("GOOGLE_CLIENT_SECRET", cf.OAuth.Google.ClientSecret)
	cf.OAuth.Google.RedirectURL = env("GOOGLE_REDIRECT_URL", cf.OAuth.Google.RedirectURL)
	cf.OAuth.GitHub.ClientID = env("GITHUB_CLIENT_ID", cf.OAuth.GitHub.ClientID)
	cf.OAuth.GitHub.ClientSecret = env("GITHUB_CLIENT_SECRET", cf.OAuth.GitHub.ClientSecret)
	cf.OAuth.GitHub.RedirectURL = env("GITHUB_REDIRECT_URL", cf.OAuth.GitHub.RedirectURL)

	cf.Email.Provider = env("EMAIL_PROVIDER", cf.Email.Provider)
	cf.Email.From = env("EMAIL_FROM", cf.Email.From)
	cf.Email.MailgunDomain = env("MAILGUN_DOMAIN", cf.Email.MailgunDomain)
	cf.Email.MailgunKey = env("MAILGUN_KEY", cf.Email.MailgunKey)
	cf.Email.SendGridKey = env("SENDGRID_KEY", cf.Email.SendGridKey)

	cf.Admin.Email = env("ADMIN_EMAIL", cf.Admin.Email)
	cf.Admin.Password = env("ADMIN_PASSWORD", cf.Admin.Password)

	cf.Casbin.ModelPath = env("CASBIN_MODEL_PATH", cf.Casbin.ModelPath)
}

func resolve(cf *ConfigFile) (*Config, error) {
	tokenTTL, err := time.ParseDuration(cf.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT TTL: %w", err)
	}

	rememberTTL, err := time.ParseDuration(cf.JWT.RememberTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT remember TTL: %w", err)
	}

	otpTTL, err := time.ParseDuration(cf.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	stateTTL, err := time.ParseDuration(cf.OAuth.StateTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OAuth state TTL: %w", err)
	}

	return &Config{
		Port:          strconv.Itoa(cf.App.Port),
		GinMode:       cf.App.GinMode,
		LogLevel:      cf.App.LogLevel,
		FrontendURL:   cf.App.FrontendURL,
		DSN:           cf.Database.DSN,
		RedisAddr:     cf.Redis.Addr,
		RedisPassword: cf.Redis.Password,
		RedisDB:       cf.Redis.DB,
		JWTSecret:     cf.JWT.Secret,
		JWTIssuer:     cf.JWT.Issuer,
		TokenTTL:      tokenTTL,
		RememberTTL:   rememberTTL,
		OTPTTL:        otpTTL,
		CookieSecure:  cf.Cookie.Secure,
		Google:        cf.OAuth.Google,
		GitHub:        cf.OAuth.GitHub,
		OAuthStateTTL: stateTTL,
		Email:         cf.Email,
		AdminEmail:    cf.Admin.Email,
		AdminPassword: cf.Admin.Password,
		CasbinModel:   cf.Casbin.ModelPath,
	}, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.TokenTTL <= 0 || c.RememberTTL < c.TokenTTL {
		return fmt.Errorf("invalid token lifetimes: ttl=%s remember=%s", c.TokenTTL, c.RememberTTL)
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("invalid otp ttl: %s", c.OTPTTL)
	}
	switch c.Email.Provider {
	case "log":
	case "mailgun":
		if c.Email.MailgunDomain == "" || c.Email.MailgunKey == "" {
			return errors.New("mailgun domain and key are required")
		}
	case "sendgrid":
		if c.Email.SendGridKey == "" {
			return errors.New("sendgrid key is required")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	return nil
}

// OAuthEnabled reports whether a provider has credentials configured
func (c OAuthClientConfig) OAuthEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
