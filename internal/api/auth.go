package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/internal/service"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

// AuthHandler exposes registration, login, refresh and email
// verification.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{
		auth:   authSvc,
		logger: logging.GetLogger().With(zap.String("component", "auth-handler")),
	}
}

// Register handles POST /api/auth/register/
func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	user, pair, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":   userView(user),
		"tokens": TokenView{Refresh: pair.Refresh, Access: pair.Access},
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login/
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	user, pair, err := h.auth.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   userView(user),
		"tokens": TokenView{Refresh: pair.Refresh, Access: pair.Access},
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh handles POST /api/auth/refresh/
func (h *AuthHandler) Refresh(c *gin.Context) {
	var in refreshRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, apperror.ValidationFailed("", "Malformed request body"))
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), in.Refresh)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// VerifyEmail handles GET /api/auth/email-verify/?token=T. Failures use
// an "error" body key, matching what the activation link consumer
// expects.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	user, err := h.auth.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, apperror.ErrInvalidToken) && !errors.Is(err, apperror.ErrActivationExpired) {
			status = statusOf(err)
		}
		c.JSON(status, gin.H{"error": messageOf(err)})
		return
	}

	h.logger.Info("Email verified", zap.Int64("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"email": "Successfully activated"})
}
