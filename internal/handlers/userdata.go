package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserDataHandler serves full-case progress, highlights and agent memory.
type UserDataHandler struct {
	log *zap.Logger
}

func NewUserDataHandler(log *zap.Logger) *UserDataHandler {
	return &UserDataHandler{log: log}
}

type saveProgressRequest struct {
	CaseStudyID  string `json:"case_study_id" binding:"required"`
	CurrentIndex int    `json:"current_index"`
	IsCompleted  bool   `json:"is_completed"`
}

// SaveProgress upserts the caller's resume pointer for one case.
func (h *UserDataHandler) SaveProgress(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req saveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "case_study_id is required"})
		return
	}
	if _, err := repository.GetCaseStudy(c.Request.Context(), req.CaseStudyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
			return
		}
		h.log.Error("Failed to load case for progress save", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save progress"})
		return
	}

	session, err := repository.UpsertUserSession(c.Request.Context(), user.ID, req.CaseStudyID, req.CurrentIndex, req.IsCompleted)
	if err != nil {
		h.log.Error("Failed to save progress", zap.Uint("userID", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save progress"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// Resume returns the caller's saved position for a case, or an empty object
// when nothing has been saved yet.
func (h *UserDataHandler) Resume(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	caseID := c.Query("case_id")
	if caseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "case_id is required"})
		return
	}

	session, err := repository.GetUserSession(c.Request.Context(), user.ID, caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		h.log.Error("Failed to load session", zap.Uint("userID", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

type createHighlightRequest struct {
	CaseStudyID string `json:"case_study" binding:"required"`
	StartIndex  int    `json:"start_index"`
	EndIndex    int    `json:"end_index"`
	Text        string `json:"text"`
}

func (h *UserDataHandler) CreateHighlight(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req createHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "case_study is required"})
		return
	}

	highlight := &models.Highlight{
		ID:          fmt.Sprintf("hl-%s", uuid.New().String()[:8]),
		UserID:      user.ID,
		CaseStudyID: req.CaseStudyID,
		StartIndex:  req.StartIndex,
		EndIndex:    req.EndIndex,
		Text:        req.Text,
	}
	if err := repository.CreateHighlight(c.Request.Context(), highlight); err != nil {
		h.log.Error("Failed to save highlight", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save highlight"})
		return
	}
	c.JSON(http.StatusCreated, highlight)
}

func (h *UserDataHandler) ListHighlights(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	highlights, err := repository.ListHighlights(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("Failed to list highlights", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load highlights"})
		return
	}
	c.JSON(http.StatusOK, highlights)
}

type upsertMemoryRequest struct {
	Key      string         `json:"key" binding:"required"`
	Value    datatypes.JSON `json:"value"`
	Category string         `json:"category"`
}

func (h *UserDataHandler) UpsertMemory(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req upsertMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	userID := user.ID
	memory := &models.AgentMemory{
		UserID:   &userID,
		Key:      req.Key,
		Value:    req.Value,
		Category: req.Category,
	}
	if err := repository.UpsertMemory(c.Request.Context(), memory); err != nil {
		h.log.Error("Failed to save memory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save memory"})
		return
	}
	c.JSON(http.StatusOK, memory)
}

func (h *UserDataHandler) ListMemories(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	memories, err := repository.ListMemories(c.Request.Context(), user.ID, c.Query("category"))
	if err != nil {
		h.log.Error("Failed to list memories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load memories"})
		return
	}
	c.JSON(http.StatusOK, memories)
}
