package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.CaseStudy{},
		&models.Question{},
		&models.Distractor{},
		&models.UserAnswer{},
	))
	database.DB = db
}

// stubGenerator only implements what the answers handler touches.
type stubGenerator struct {
	analysis *ai.EvidenceAnalysis
	tip      string
	tipErr   error
}

func (s *stubGenerator) GenerateCaseStudy(ctx context.Context, domain, difficulty string) (*ai.GeneratedCase, error) {
	return nil, ai.ErrUnavailable
}

func (s *stubGenerator) GeneratePracticeQuestion(ctx context.Context, domain, difficulty string, questionNumber, totalQuestions int, topicsCovered []string) (*ai.GeneratedQuestion, error) {
	return nil, ai.ErrUnavailable
}

func (s *stubGenerator) GenerateEvolvingTip(ctx context.Context, p ai.TipParams) (string, error) {
	return s.tip, s.tipErr
}

func (s *stubGenerator) GeneratePivot(ctx context.Context, stem, correctLabel, correctRationale string) (*ai.PivotScenario, error) {
	return nil, ai.ErrUnavailable
}

func (s *stubGenerator) AnalyzeEvidence(ctx context.Context, vignette, questionStem, correctAnswer, correctRationale string, userHighlights []ai.HighlightSpan) *ai.EvidenceAnalysis {
	return s.analysis
}

func seedQuestion(t *testing.T) *models.Question {
	t.Helper()
	cs := &models.CaseStudy{ID: "case-test0001", Title: "t", Vignette: "v"}
	require.NoError(t, database.DB.Create(cs).Error)
	q := &models.Question{
		ID:               "case-test0001-q1",
		CaseStudyID:      cs.ID,
		Stem:             "stem",
		Domain:           models.DomainOTExpertise,
		CorrectLabel:     "B",
		CorrectRationale: "because",
		Distractors: []models.Distractor{
			{QuestionID: "case-test0001-q1", Label: "A", Text: "a", IncorrectRationale: "nope"},
			{QuestionID: "case-test0001-q1", Label: "B", Text: "the right one"},
		},
	}
	require.NoError(t, database.DB.Create(q).Error)
	return q
}

func postJSON(t *testing.T, handler gin.HandlerFunc, user *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	if user != nil {
		c.Set("user", user)
	}
	handler(c)
	return w
}

func TestCreateAnswerGradesAgainstStoredLabel(t *testing.T) {
	setupHandlerDB(t)
	q := seedQuestion(t)
	user := &models.User{Username: "u", Email: "u@e.com", Password: "x"}
	require.NoError(t, database.DB.Create(user).Error)

	h := NewAnswersHandler(zap.NewNop(), &stubGenerator{})
	w := postJSON(t, h.Create, user, gin.H{"question": q.ID, "selected_label": "b", "confidence": "HIGH"})

	require.Equal(t, http.StatusCreated, w.Code)
	var got models.UserAnswer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.IsCorrect, "lowercase selection still matches the stored B")

	w = postJSON(t, h.Create, user, gin.H{"question": q.ID, "selected_label": "A"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.IsCorrect)
}

func TestCreateAnswerUnknownQuestion(t *testing.T) {
	setupHandlerDB(t)
	user := &models.User{Username: "u", Email: "u@e.com", Password: "x"}
	require.NoError(t, database.DB.Create(user).Error)

	h := NewAnswersHandler(zap.NewNop(), &stubGenerator{})
	w := postJSON(t, h.Create, user, gin.H{"question": "missing", "selected_label": "A"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvidenceLinkDegradesWithoutQuestion(t *testing.T) {
	setupHandlerDB(t)

	h := NewAnswersHandler(zap.NewNop(), &stubGenerator{})

	// Missing question_id and unknown question_id both answer 200 with a
	// zero-score payload; the client never sees this endpoint fail.
	for _, body := range []gin.H{
		{"vignette": "v", "user_highlights": []gin.H{}},
		{"vignette": "v", "question_id": "missing"},
	} {
		w := postJSON(t, h.EvidenceLink, nil, body)
		require.Equal(t, http.StatusOK, w.Code)

		var got ai.EvidenceAnalysis
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Zero(t, got.Score)
		assert.Empty(t, got.ExpertHighlights)
		assert.NotEmpty(t, got.PerceptualTip)
	}
}

func TestEvidenceLinkPassesCorrectAnswerText(t *testing.T) {
	setupHandlerDB(t)
	q := seedQuestion(t)

	analysis := &ai.EvidenceAnalysis{
		ExpertHighlights: []ai.ExpertHighlight{},
		MissedIndicators: []ai.ExpertHighlight{},
		PerceptualTip:    "look closer",
		Score:            50,
	}
	h := NewAnswersHandler(zap.NewNop(), &stubGenerator{analysis: analysis})
	w := postJSON(t, h.EvidenceLink, nil, gin.H{"vignette": "v", "question_id": q.ID})

	require.Equal(t, http.StatusOK, w.Code)
	var got ai.EvidenceAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 50, got.Score)
	assert.Equal(t, "look closer", got.PerceptualTip)
}

func TestGetRationaleUnavailable(t *testing.T) {
	setupHandlerDB(t)
	q := seedQuestion(t)

	h := NewAnswersHandler(zap.NewNop(), &stubGenerator{tipErr: ai.ErrUnavailable})
	w := postJSON(t, h.GetRationale, nil, gin.H{"question_id": q.ID})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
