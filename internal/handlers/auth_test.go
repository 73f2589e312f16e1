package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAuthTest(t *testing.T) *AuthHandler {
	t.Helper()
	setupHandlerDB(t)
	config.Conf = &config.Config{
		Server: config.ServerConfig{FrontendURL: "http://localhost:5173"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", AccessTTLMinutes: 60, RefreshTTLMinutes: 10080},
	}
	// Zero email config: sends fail fast and registration stays best-effort.
	return NewAuthHandler(zap.NewNop(), services.NewEmailService(config.EmailConfig{}, zap.NewNop()))
}

func TestRegisterMintsOpaqueVerificationToken(t *testing.T) {
	h := setupAuthTest(t)

	w := postJSON(t, h.Register, nil, gin.H{
		"username": "newgrad",
		"email":    "newgrad@example.com",
		"password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	require.NoError(t, database.DB.First(&user, "username = ?", "newgrad").Error)
	profile, err := repository.GetProfileByUserID(context.Background(), user.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, profile.VerificationToken)
	// 32 random bytes base64url-encoded, not a UUID shape.
	assert.Len(t, profile.VerificationToken, 44)
	assert.NotContains(t, profile.VerificationToken, "-")
	assert.False(t, profile.EmailVerified)
	require.NotNil(t, profile.TrialStartDate)
}

func TestRegisterTokensDifferPerUser(t *testing.T) {
	h := setupAuthTest(t)

	for _, u := range []string{"alpha", "beta"} {
		w := postJSON(t, h.Register, nil, gin.H{
			"username": u,
			"email":    u + "@example.com",
			"password": "Str0ng!pass",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var profiles []models.UserProfile
	require.NoError(t, database.DB.Find(&profiles).Error)
	require.Len(t, profiles, 2)
	assert.NotEqual(t, profiles[0].VerificationToken, profiles[1].VerificationToken)
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	h := setupAuthTest(t)

	w := postJSON(t, h.Register, nil, gin.H{
		"username": "verifier",
		"email":    "verifier@example.com",
		"password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var profile models.UserProfile
	require.NoError(t, database.DB.First(&profile).Error)
	token := profile.VerificationToken
	require.NotEmpty(t, token)

	w = postJSON(t, h.VerifyEmail, nil, gin.H{"token": token})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&profile, "user_id = ?", profile.UserID).Error)
	assert.True(t, profile.EmailVerified)
	assert.Empty(t, profile.VerificationToken, "token is single use")

	// Replay is rejected.
	w = postJSON(t, h.VerifyEmail, nil, gin.H{"token": token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
