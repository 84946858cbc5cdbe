package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/http/handlers"
	"github.com/you/marketauth/internal/http/middleware"
	"github.com/you/marketauth/internal/metrics"
)

// Routes bundles everything the router mounts. OAuth is nil when no provider is configured.
type Routes struct {
	Auth      *handlers.AuthHandlers
	OAuth     *handlers.OAuthHandlers
	Providers []domain.Provider
	Admin     *handlers.AdminHandlers
	Profile   *handlers.ProfileHandlers
	Policy    *handlers.PolicyHandlers
	Gateway   *handlers.GatewayAuthzHandlers
	AuthMW    *middleware.AuthMW
	CasbinMW  *middleware.CasbinMW
	Metrics   *metrics.Metrics
	Logger    logrus.FieldLogger
}

func BuildRouter(rt Routes) *gin.Engine {
	if rt.Logger == nil {
		rt.Logger = logrus.StandardLogger()
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.ClientContext(), middleware.RequestLogger(rt.Logger, rt.Metrics))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(rt.Metrics.Handler()))

	// Gateway forward-auth for the other marketplace services
	r.POST("/external/authz", rt.Gateway.Check)

	api := r.Group("/api/v1")
	protected := []gin.HandlerFunc{rt.AuthMW.WithCookie(), rt.CasbinMW.Enforce()}

	auth := api.Group("/auth")
	auth.POST("/signup", rt.Auth.Signup)
	auth.POST("/verify-signup-otp", rt.Auth.VerifySignupOTP)
	auth.POST("/login", rt.Auth.Login)
	auth.POST("/resend-otp", rt.Auth.ResendOTP)
	auth.POST("/forgot-password", rt.Auth.ForgotPassword)
	auth.POST("/reset-password", rt.Auth.ResetPassword)
	auth.GET("/me", append(protected, rt.Auth.Me)...)
	auth.POST("/logout", append(protected, rt.Auth.Logout)...)

	if rt.OAuth != nil {
		for _, p := range rt.Providers {
			auth.GET("/"+string(p), rt.OAuth.Start(p))
			auth.GET("/"+string(p)+"/callback", rt.OAuth.Callback(p))
		}
	}

	api.GET("/profile", append(protected, rt.Profile.Profile)...)

	mod := api.Group("/moderator", protected...)
	mod.GET("/dashboard", rt.Profile.ModeratorDashboard)

	adm := api.Group("/admin", protected...)
	adm.GET("/users", rt.Admin.ListUsers)
	adm.PUT("/users/:id/role", rt.Admin.ChangeRole)
	adm.DELETE("/users/:id", rt.Admin.DeleteUser)
	adm.GET("/users/:id/profile", rt.Admin.GetUserProfile)
	adm.GET("/users/:id/archives", rt.Admin.GetUserArchives)
	adm.GET("/policies", rt.Policy.List)
	adm.POST("/policies", rt.Policy.Add)
	adm.DELETE("/policies", rt.Policy.Remove)

	return r
}
