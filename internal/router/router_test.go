package router

import (
	"context"
	"testing"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type noopGenerator struct{}

func (noopGenerator) GenerateCaseStudy(ctx context.Context, domain, difficulty string) (*ai.GeneratedCase, error) {
	return nil, ai.ErrUnavailable
}

func (noopGenerator) GeneratePracticeQuestion(ctx context.Context, domain, difficulty string, questionNumber, totalQuestions int, topicsCovered []string) (*ai.GeneratedQuestion, error) {
	return nil, ai.ErrUnavailable
}

func (noopGenerator) GenerateEvolvingTip(ctx context.Context, p ai.TipParams) (string, error) {
	return "", ai.ErrUnavailable
}

func (noopGenerator) GeneratePivot(ctx context.Context, stem, correctLabel, correctRationale string) (*ai.PivotScenario, error) {
	return nil, ai.ErrUnavailable
}

func (noopGenerator) AnalyzeEvidence(ctx context.Context, vignette, questionStem, correctAnswer, correctRationale string, userHighlights []ai.HighlightSpan) *ai.EvidenceAnalysis {
	return &ai.EvidenceAnalysis{}
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Conf = &config.Config{
		Server: config.ServerConfig{FrontendURL: "http://localhost:5173"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret"},
	}

	log := zap.NewNop()
	gen := noopGenerator{}
	email := services.NewEmailService(config.EmailConfig{}, log)
	return Setup(log, Deps{
		Generator: gen,
		MockStudy: services.NewMockStudyService(gen, log),
		CaseGen:   services.NewCaseGenService(gen, log),
		Payments:  services.NewPaymentService(config.StripeConfig{}, email, log),
		Email:     email,
	})
}

func hasRoute(engine *gin.Engine, method, path string) bool {
	for _, r := range engine.Routes() {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}

func TestRouteTable(t *testing.T) {
	engine := setupTestRouter(t)

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/api/ping"},
		{"POST", "/api/auth/register"},
		{"POST", "/api/auth/login"},
		{"POST", "/api/auth/refresh"},
		{"GET", "/api/auth/me"},
		{"POST", "/api/verify-email"},
		{"GET", "/api/cases"},
		{"GET", "/api/cases/:id"},
		{"POST", "/api/cases/generate"},
		{"POST", "/api/cases/prefetch"},
		{"POST", "/api/answers"},
		{"POST", "/api/answers/get_rationale"},
		{"POST", "/api/answers/evidence_link"},
		{"POST", "/api/sessions/save_progress"},
		{"GET", "/api/sessions/resume"},
		{"POST", "/api/mock-study/start"},
		{"POST", "/api/mock-study/submit"},
		{"POST", "/api/mock-study/next"},
		{"POST", "/api/mock-study/prefetch"},
		{"POST", "/api/mock-study/pivot"},
		{"POST", "/api/mock-study/save_progress"},
		{"GET", "/api/mock-study/get_active"},
		{"POST", "/api/stripe/checkout"},
		{"POST", "/api/stripe/webhook"},
		{"POST", "/api/sync-payment"},
	}
	for _, route := range expected {
		assert.True(t, hasRoute(engine, route.method, route.path),
			"missing route %s %s", route.method, route.path)
	}
}

func TestGetActiveAliasRegistered(t *testing.T) {
	engine := setupTestRouter(t)
	assert.True(t, hasRoute(engine, "GET", "/api/mock-study/get_active"))
	assert.True(t, hasRoute(engine, "GET", "/api/mock-study/active"))
}
