// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"

	"instaup-service/internal/domain/auth"
	"instaup-service/internal/middleware"
	"instaup-service/internal/pkg/apperr"
	"instaup-service/internal/pkg/response"
	authUsecase "instaup-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles account creation (public endpoint)
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrPasswordMismatch):
			response.Error(c, http.StatusBadRequest, "passwords do not match", err)
		case errors.Is(err, apperr.ErrEmailTaken):
			response.Error(c, http.StatusConflict, "email already registered", err)
		default:
			h.logger.Error("registration failed",
				zap.String("email", req.Email),
				zap.Error(err),
			)
			response.Error(c, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", result)
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrRateLimited):
			response.Error(c, http.StatusTooManyRequests, "too many login attempts", err)
		case errors.Is(err, apperr.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "invalid email or password", err)
		default:
			h.logger.Error("login failed",
				zap.String("email", req.Email),
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			response.Error(c, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}

	h.logger.Info("user logged in",
		zap.String("user_id", result.Session.UserID),
	)

	response.Success(c, http.StatusOK, "login successful", result)
}

// Logout handles user logout (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		h.logger.Error("logout failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// GetMe returns the cached session snapshot (requires auth)
func (h *AuthHandler) GetMe(c *gin.Context) {
	userCore := middleware.MustGetCore(c)

	snap, ok := userCore.Session.Current()
	if !ok {
		response.Unauthorized(c, "session expired")
		return
	}

	response.Success(c, http.StatusOK, "session", snap)
}
