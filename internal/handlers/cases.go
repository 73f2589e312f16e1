package handlers

import (
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

type CasesHandler struct {
	log *zap.Logger
	svc *services.CaseGenService
}

func NewCasesHandler(log *zap.Logger, svc *services.CaseGenService) *CasesHandler {
	return &CasesHandler{log: log, svc: svc}
}

func (h *CasesHandler) List(c *gin.Context) {
	cases, err := repository.ListCaseStudies(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list case studies", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cases"})
		return
	}
	c.JSON(http.StatusOK, cases)
}

func (h *CasesHandler) Get(c *gin.Context) {
	cs, err := repository.GetCaseStudy(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
			return
		}
		h.log.Error("Failed to load case study", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load case"})
		return
	}
	c.JSON(http.StatusOK, cs)
}

type generateCaseRequest struct {
	Domain     string `json:"domain"`
	Difficulty string `json:"difficulty"`
}

// Generate creates a brand new AI case study and returns the full tree.
func (h *CasesHandler) Generate(c *gin.Context) {
	var req generateCaseRequest
	_ = c.ShouldBindJSON(&req) // all fields optional
	if req.Difficulty == "" {
		req.Difficulty = "Medium"
	}

	cs, err := h.svc.GenerateAndStore(c.Request.Context(), currentUserID(c), req.Domain, req.Difficulty, "AI-Generated")
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI generation failed. Please try again."})
			return
		}
		h.log.Error("Failed to store generated case", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save case"})
		return
	}
	c.JSON(http.StatusCreated, cs)
}

// Prefetch generates a case in the background sense: the client fires it
// ahead of need and only wants an id back, not the payload.
func (h *CasesHandler) Prefetch(c *gin.Context) {
	var req generateCaseRequest
	_ = c.ShouldBindJSON(&req)
	if req.Difficulty == "" {
		req.Difficulty = "Medium"
	}

	cs, err := h.svc.GenerateAndStore(c.Request.Context(), currentUserID(c), req.Domain, req.Difficulty, "Prefetched")
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "failed", "reason": "empty"})
			return
		}
		h.log.Error("Failed to store prefetched case", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failed", "reason": "storage"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "case_id": cs.ID})
}

// currentUserID returns the authenticated user's id if the request carries
// one. Case generation is open to anonymous users, so nil is a normal result.
func currentUserID(c *gin.Context) *uint {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	id := user.ID
	return &id
}
