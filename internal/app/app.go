package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/you/marketauth/internal/config"
	httpx "github.com/you/marketauth/internal/http"
	"github.com/you/marketauth/internal/http/handlers"
	"github.com/you/marketauth/internal/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// NewLogger builds the process logger from config
func NewLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// Router wires handlers and middleware for the container's services
func (c *Container) Router() *gin.Engine {
	cookie := handlers.CookieConfig{Secure: c.Config.CookieSecure}

	rt := httpx.Routes{
		Auth:     handlers.NewAuthHandlers(c.AuthSvc, c.UserRepo, cookie, c.Logger),
		Admin:    handlers.NewAdminHandlers(c.UserRepo, c.RoleSvc, c.Logger),
		Profile:  handlers.NewProfileHandlers(c.RoleSvc, c.Logger),
		Policy:   handlers.NewPolicyHandlers(c.PolicySvc, c.Logger),
		Gateway:  handlers.NewGatewayAuthzHandlers(c.AuthSvc, c.PolicySvc, c.Logger),
		AuthMW:   middleware.NewAuthMW(c.AuthSvc, c.Logger),
		CasbinMW: middleware.NewCasbinMW(c.PolicySvc, c.AuditLogger, c.Logger),
		Metrics:  c.Metrics,
		Logger:   c.Logger,
	}
	if c.OAuthSvc != nil {
		rt.OAuth = handlers.NewOAuthHandlers(c.OAuthSvc, cookie, c.Config.FrontendURL, c.Logger)
		rt.Providers = c.OAuthSvc.Providers()
	}
	return httpx.BuildRouter(rt)
}

// Run starts the service and blocks until ctx is cancelled or the server fails
func Run(ctx context.Context, cfg *config.Config) error {
	log := NewLogger(cfg)
	gin.SetMode(cfg.GinMode)

	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Bootstrap(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
