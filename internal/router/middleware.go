package router

import (
	"net/http"
	"strings"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bearerUser resolves the Authorization header to a user. Returns nil when
// the header is absent, malformed, expired, or names a deleted user.
func bearerUser(c *gin.Context, log *zap.Logger) *models.User {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}

	userID, tokenType, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "), config.Conf.Auth.JWTSecret)
	if err != nil || tokenType != utils.TokenTypeAccess {
		return nil
	}

	user, err := repository.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		// Token outlived the account.
		log.Debug("Token for missing user", zap.Uint("userID", userID))
		return nil
	}
	return user
}

// OptionalAuth loads the user into the context when a valid token is
// present and proceeds as a guest otherwise.
func OptionalAuth(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := bearerUser(c, log); user != nil {
			c.Set("user", user)
		}
		c.Next()
	}
}

// AuthRequired rejects requests that do not carry a valid access token.
func AuthRequired(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := bearerUser(c, log)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

// RequirePaid gates premium routes on the profile's paid flag. Must run
// after AuthRequired.
func RequirePaid() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*models.User)
		if user.Profile == nil || !user.Profile.IsPaid {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "An active plan is required for mock study sessions"})
			return
		}
		c.Next()
	}
}
