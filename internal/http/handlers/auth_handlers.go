package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc  domain.AuthService
	userRepo domain.UserRepository
	cookie   CookieConfig
	log      logrus.FieldLogger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, userRepo domain.UserRepository, cookie CookieConfig, log logrus.FieldLogger) *AuthHandlers {
	return &AuthHandlers{
		authSvc:  authSvc,
		userRepo: userRepo,
		cookie:   cookie,
		log:      orStandard(log),
	}
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role,omitempty"`
}

// VerifyOTPRequest confirms a pending signup
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// ResendOTPRequest asks for a fresh code
type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Type  string `json:"type" binding:"required,oneof=signup forgot"`
}

// EmailRequest carries just an email
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// Signup handles user signup
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	dispatch, err := h.authSvc.Signup(c.Request.Context(), domain.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if h.dispatchFailed(c, dispatch, err) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "OTP sent to your email",
		"email":   dispatch.Email,
	})
}

// VerifySignupOTP promotes a pending signup and starts a session
func (h *AuthHandlers) VerifySignupOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.VerifySignupOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	setSessionCookie(c, h.cookie, result.Token, result.ExpiresIn)
	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"user":    result.User,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe)
	if result != nil && result.Status == domain.LoginPendingVerification {
		body := gin.H{
			"message":    "Please verify your email. A new OTP has been sent.",
			"isTempUser": true,
			"email":      result.Email,
		}
		if domain.IsDeliveryError(err) {
			body["message"] = "Please verify your email. We could not send a new OTP, please request another."
		}
		c.JSON(http.StatusForbidden, body)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	setSessionCookie(c, h.cookie, result.Auth.Token, result.Auth.ExpiresIn)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    result.Auth.User,
		"role":    result.Auth.User.Role,
	})
}

// ResendOTP issues a brand-new code
func (h *AuthHandlers) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	dispatch, err := h.authSvc.ResendOTP(c.Request.Context(), req.Email, domain.OTPType(req.Type))
	if h.dispatchFailed(c, dispatch, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP resent successfully",
		"email":   dispatch.Email,
	})
}

// ForgotPassword sends a reset code
func (h *AuthHandlers) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	dispatch, err := h.authSvc.ForgotPassword(c.Request.Context(), req.Email)
	if h.dispatchFailed(c, dispatch, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset OTP sent to your email",
		"email":   dispatch.Email,
	})
}

// ResetPassword sets a new password
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.authSvc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Me returns the authenticated user (requires authentication)
func (h *AuthHandlers) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	user, err := h.userRepo.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// Logout clears the session cookie (requires authentication)
func (h *AuthHandlers) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cookie)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// dispatchFailed writes the response for a failed OTP dispatch and reports whether it did.
// A delivery failure still reports the address because the code was stored.
func (h *AuthHandlers) dispatchFailed(c *gin.Context, dispatch *domain.OTPDispatch, err error) bool {
	if err == nil {
		return false
	}
	if domain.IsDeliveryError(err) && dispatch != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"message": "Failed to send OTP email, please request a new code",
			"email":   dispatch.Email,
		})
		return true
	}
	respondError(c, h.log, err)
	return true
}

func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}
