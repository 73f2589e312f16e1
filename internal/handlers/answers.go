package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AnswersHandler struct {
	log *zap.Logger
	gen ai.Generator
}

func NewAnswersHandler(log *zap.Logger, gen ai.Generator) *AnswersHandler {
	return &AnswersHandler{log: log, gen: gen}
}

type createAnswerRequest struct {
	Question      string `json:"question" binding:"required"`
	SelectedLabel string `json:"selected_label" binding:"required"`
	Confidence    string `json:"confidence"`
}

// Create records an answer to a full-case question. Correctness is graded
// server-side at write time against the stored correct label.
func (h *AnswersHandler) Create(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req createAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and selected_label are required"})
		return
	}

	question, err := repository.GetQuestion(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		h.log.Error("Failed to load question", zap.String("id", req.Question), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save answer"})
		return
	}

	answer := &models.UserAnswer{
		UserID:        user.ID,
		QuestionID:    question.ID,
		SelectedLabel: req.SelectedLabel,
		Confidence:    req.Confidence,
		IsCorrect:     strings.EqualFold(req.SelectedLabel, question.CorrectLabel),
	}
	if err := repository.CreateUserAnswer(c.Request.Context(), answer); err != nil {
		h.log.Error("Failed to save answer", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save answer"})
		return
	}
	c.JSON(http.StatusCreated, answer)
}

type rationaleRequest struct {
	QuestionID     string `json:"question_id" binding:"required"`
	PreviousAnswer struct {
		IsCorrect     bool   `json:"is_correct"`
		SelectedLabel string `json:"selected_label"`
	} `json:"previous_answer"`
	AllPreviousCorrect bool `json:"all_previous_correct"`
}

// GetRationale returns an adaptive study tip conditioned on how the learner
// answered the previous question.
func (h *AnswersHandler) GetRationale(c *gin.Context) {
	var req rationaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question_id is required"})
		return
	}

	question, err := repository.GetQuestion(c.Request.Context(), req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		h.log.Error("Failed to load question", zap.String("id", req.QuestionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build rationale"})
		return
	}

	tip, err := h.gen.GenerateEvolvingTip(c.Request.Context(), ai.TipParams{
		QuestionStem:          question.Stem,
		CorrectRationale:      question.CorrectRationale,
		PreviousAnswerCorrect: req.PreviousAnswer.IsCorrect,
		PreviousSelectedLabel: req.PreviousAnswer.SelectedLabel,
		AllPreviousCorrect:    req.AllPreviousCorrect,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Rationale generation failed. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rationale": tip})
}

type evidenceLinkRequest struct {
	Vignette       string             `json:"vignette"`
	QuestionID     string             `json:"question_id"`
	UserHighlights []ai.HighlightSpan `json:"user_highlights"`
}

// EvidenceLink scores the learner's highlighted vignette spans against the
// clinical indicators the correct answer rests on. This endpoint never
// fails the client: any gap degrades to a zero-score payload with a tip.
func (h *AnswersHandler) EvidenceLink(c *gin.Context) {
	var req evidenceLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.QuestionID == "" {
		c.JSON(http.StatusOK, emptyEvidencePayload("Highlight the clinical findings that point to the correct answer."))
		return
	}

	question, err := repository.GetQuestion(c.Request.Context(), req.QuestionID)
	if err != nil {
		c.JSON(http.StatusOK, emptyEvidencePayload("Highlight the clinical findings that point to the correct answer."))
		return
	}

	// The correct answer's display text lives on its distractor row; fall
	// back to the bare label when the row is missing.
	correctAnswer := question.CorrectLabel
	for _, d := range question.Distractors {
		if strings.EqualFold(d.Label, question.CorrectLabel) {
			correctAnswer = d.Text
			break
		}
	}

	result := h.gen.AnalyzeEvidence(c.Request.Context(), req.Vignette, question.Stem, correctAnswer, question.CorrectRationale, req.UserHighlights)
	c.JSON(http.StatusOK, result)
}

func emptyEvidencePayload(tip string) *ai.EvidenceAnalysis {
	return &ai.EvidenceAnalysis{
		ExpertHighlights: []ai.ExpertHighlight{},
		MissedIndicators: []ai.ExpertHighlight{},
		PerceptualTip:    tip,
	}
}
