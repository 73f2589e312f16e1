package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockStudyHandler exposes the timed mock study session lifecycle. Every
// route requires authentication; start, next, prefetch and pivot sit behind
// the paid gate as well.
type MockStudyHandler struct {
	log *zap.Logger
	svc *services.MockStudyService
}

func NewMockStudyHandler(log *zap.Logger, svc *services.MockStudyService) *MockStudyHandler {
	return &MockStudyHandler{log: log, svc: svc}
}

func (h *MockStudyHandler) Start(c *gin.Context) {
	var params services.StartParams
	_ = c.ShouldBindJSON(&params) // all fields default

	result, err := h.svc.Start(c.Request.Context(), currentUserID(c), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type submitRequest struct {
	SessionID     uint   `json:"session_id" binding:"required"`
	SelectedLabel string `json:"selected_label" binding:"required"`
}

func (h *MockStudyHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and selected_label are required"})
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), req.SessionID, req.SelectedLabel)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type sessionRequest struct {
	SessionID uint `json:"session_id" binding:"required"`
}

func (h *MockStudyHandler) Next(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	result, err := h.svc.Next(c.Request.Context(), req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MockStudyHandler) Prefetch(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	result, err := h.svc.Prefetch(c.Request.Context(), req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MockStudyHandler) Pivot(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	scenario, err := h.svc.Pivot(c.Request.Context(), req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}

type mockProgressRequest struct {
	SessionID  uint            `json:"session_id" binding:"required"`
	Highlights json.RawMessage `json:"highlights"`
}

func (h *MockStudyHandler) SaveProgress(c *gin.Context) {
	var req mockProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	if err := h.svc.SaveProgress(c.Request.Context(), req.SessionID, req.Highlights); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// GetActive returns the caller's most recent active session for resumption,
// or null when there is none.
func (h *MockStudyHandler) GetActive(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	session, err := h.svc.GetActive(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *MockStudyHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Session was modified concurrently. Please retry."})
	case errors.Is(err, services.ErrSessionCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session is already completed"})
	case errors.Is(err, services.ErrNoActiveQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active question"})
	case errors.Is(err, ai.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Question generation failed. Please try again."})
	default:
		h.log.Error("Mock study request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
