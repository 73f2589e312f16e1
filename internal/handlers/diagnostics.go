package handlers

import (
	"net/http"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DiagnosticsHandler struct {
	log   *zap.Logger
	email *services.EmailService
}

func NewDiagnosticsHandler(log *zap.Logger, email *services.EmailService) *DiagnosticsHandler {
	return &DiagnosticsHandler{log: log, email: email}
}

func (h *DiagnosticsHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "pong"})
}

// TestEmail fires a diagnostic message through the configured SMTP relay so
// deliverability can be checked without going through registration.
func (h *DiagnosticsHandler) TestEmail(c *gin.Context) {
	to := c.Query("email")
	if to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	if err := h.email.SendDiagnostic(to); err != nil {
		h.log.Error("Diagnostic email failed", zap.String("to", to), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent_to": to})
}
