package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	log   *zap.Logger
	email *services.EmailService
}

func NewAuthHandler(log *zap.Logger, email *services.EmailService) *AuthHandler {
	return &AuthHandler{log: log, email: email}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}
	if !utils.IsValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}
	if !utils.IsComplexPassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters with upper, lower, number and special characters"})
		return
	}

	user, err := repository.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.log.Error("Failed to create user", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not register user"})
		return
	}

	// Issue the verification token and open the trial window.
	profile, err := repository.GetProfileByUserID(c.Request.Context(), user.ID)
	if err == nil {
		token, err := utils.GenerateSecureToken(32)
		if err != nil {
			// crypto/rand failing is not recoverable here; the user can
			// request a resend once the host is healthy.
			h.log.Error("Failed to mint verification token", zap.Uint("userID", user.ID), zap.Error(err))
		} else {
			now := time.Now().UTC()
			profile.VerificationToken = token
			profile.EmailVerified = false
			profile.TrialStartDate = &now
			if err := repository.SaveProfile(c.Request.Context(), profile); err != nil {
				h.log.Error("Failed to save verification state", zap.Uint("userID", user.ID), zap.Error(err))
			}

			verifyLink := fmt.Sprintf("%s/verify?token=%s", config.Conf.Server.FrontendURL, profile.VerificationToken)
			if err := h.email.SendVerificationEmail(user, verifyLink); err != nil {
				// Registration still succeeds; the user can request a resend.
				h.log.Error("Failed to send verification email", zap.String("email", user.Email), zap.Error(err))
			}
		}
		user.Profile = profile
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"profile":  user.Profile,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := repository.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil || !user.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	access, refresh, err := h.issueTokens(user.ID)
	if err != nil {
		h.log.Error("Failed to sign tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access, "refresh": refresh})
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token required"})
		return
	}

	userID, tokenType, err := utils.ParseToken(req.Refresh, config.Conf.Auth.JWTSecret)
	if err != nil || tokenType != utils.TokenTypeRefresh {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if _, err := repository.GetUserByID(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	access, refresh, err := h.issueTokens(userID)
	if err != nil {
		h.log.Error("Failed to sign tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access, "refresh": refresh})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	c.JSON(http.StatusOK, user)
}

type verifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token required"})
		return
	}

	profile, err := repository.GetProfileByVerificationToken(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}
	profile.EmailVerified = true
	profile.VerificationToken = "" // single use
	if err := repository.SaveProfile(c.Request.Context(), profile); err != nil {
		h.log.Error("Failed to mark email verified", zap.Uint("userID", profile.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not verify email"})
		return
	}

	username := ""
	if user, err := repository.GetUserByID(c.Request.Context(), profile.UserID); err == nil {
		username = user.Username
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified", "username": username})
}

func (h *AuthHandler) issueTokens(userID uint) (string, string, error) {
	authConf := config.Conf.Auth
	return utils.GenerateTokenPair(
		userID,
		authConf.JWTSecret,
		time.Duration(authConf.AccessTTLMinutes)*time.Minute,
		time.Duration(authConf.RefreshTTLMinutes)*time.Minute,
	)
}
