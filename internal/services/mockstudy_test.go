package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// In-memory sqlite gives every connection its own database; pin the
	// pool to one so all queries see the same one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.CaseStudy{},
		&models.Question{},
		&models.Distractor{},
		&models.UserSession{},
		&models.UserAnswer{},
		&models.Highlight{},
		&models.AgentMemory{},
		&models.MockStudySession{},
	))
	database.DB = db
}

// fakeGenerator satisfies ai.Generator with canned responses and a call
// counter, so tests can assert exactly when generation happens.
type fakeGenerator struct {
	question    *ai.GeneratedQuestion
	questionErr error
	caseStudy   *ai.GeneratedCase
	caseErr     error
	pivot       *ai.PivotScenario

	questionCalls int
}

func (f *fakeGenerator) GenerateCaseStudy(ctx context.Context, domain, difficulty string) (*ai.GeneratedCase, error) {
	if f.caseErr != nil {
		return nil, f.caseErr
	}
	return f.caseStudy, nil
}

func (f *fakeGenerator) GeneratePracticeQuestion(ctx context.Context, domain, difficulty string, questionNumber, totalQuestions int, topicsCovered []string) (*ai.GeneratedQuestion, error) {
	f.questionCalls++
	if f.questionErr != nil {
		return nil, f.questionErr
	}
	q := *f.question
	q.Stem = fmt.Sprintf("%s #%d", f.question.Stem, questionNumber)
	return &q, nil
}

func (f *fakeGenerator) GenerateEvolvingTip(ctx context.Context, p ai.TipParams) (string, error) {
	return "Keep linking symptoms to function.", nil
}

func (f *fakeGenerator) GeneratePivot(ctx context.Context, stem, correctLabel, correctRationale string) (*ai.PivotScenario, error) {
	if f.pivot == nil {
		return nil, ai.ErrUnavailable
	}
	return f.pivot, nil
}

func (f *fakeGenerator) AnalyzeEvidence(ctx context.Context, vignette, questionStem, correctAnswer, correctRationale string, userHighlights []ai.HighlightSpan) *ai.EvidenceAnalysis {
	return &ai.EvidenceAnalysis{ExpertHighlights: []ai.ExpertHighlight{}, MissedIndicators: []ai.ExpertHighlight{}}
}

func sampleQuestion() *ai.GeneratedQuestion {
	return &ai.GeneratedQuestion{
		Stem: "Which assessment fits best",
		Options: []ai.Option{
			{Label: "A", Text: "Option A"},
			{Label: "B", Text: "Option B"},
			{Label: "C", Text: "Option C"},
			{Label: "D", Text: "Option D"},
		},
		CorrectLabel:        "B",
		CorrectRationale:    "B matches the functional goal.",
		IncorrectRationales: map[string]string{"A": "A is a screen, not an assessment."},
		Topic:               "Assessment selection",
	}
}

func newTestService(t *testing.T, gen *fakeGenerator) *MockStudyService {
	t.Helper()
	setupTestDB(t)
	return NewMockStudyService(gen, zap.NewNop())
}

func TestStartClampsInvalidPracticeCount(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	result, err := svc.Start(context.Background(), nil, StartParams{TotalQuestions: 33})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultPracticeCount, result.TotalQuestions)
	assert.Equal(t, 1, result.CurrentQuestion)
	assert.Equal(t, models.DomainOTExpertise, result.Domain)
	assert.Equal(t, "Medium", result.Difficulty)
}

func TestStartAcceptsAllowedPracticeCounts(t *testing.T) {
	for _, count := range models.PracticeQuestionCounts {
		svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})
		result, err := svc.Start(context.Background(), nil, StartParams{TotalQuestions: count})
		require.NoError(t, err)
		assert.Equal(t, count, result.TotalQuestions)
	}
}

func TestStartExamDefaultsToFullBlueprint(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	result, err := svc.Start(context.Background(), nil, StartParams{Mode: models.ModeExam})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultExamCount, result.TotalQuestions)

	session, err := repository.GetMockSession(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"book":1,"total_books":2}`, string(session.ExamConfig))
	assert.NotNil(t, session.TimerStart)
}

func TestStartHidesAnswerFromQuestionPayload(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	result, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Question.Stem)
	assert.Len(t, result.Question.Options, 4)
}

func TestStartRollsBackSessionOnGenerationFailure(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{questionErr: ai.ErrUnavailable})

	_, err := svc.Start(context.Background(), nil, StartParams{})
	require.ErrorIs(t, err, ai.ErrUnavailable)

	var count int64
	require.NoError(t, database.DB.Model(&models.MockStudySession{}).Count(&count).Error)
	assert.Zero(t, count, "failed start must not leave a session row behind")
}

func TestSubmitGradesCaseInsensitively(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), started.SessionID, "b")
	require.NoError(t, err)
	require.NotNil(t, result.Feedback)
	assert.True(t, result.Feedback.IsCorrect)
	assert.Equal(t, "Correct! 🎉", result.Feedback.FeedbackMessage)
	assert.Equal(t, 1, result.Progress.Correct)
}

func TestSubmitWrongAnswerExplainsBothSides(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), started.SessionID, "a")
	require.NoError(t, err)
	require.NotNil(t, result.Feedback)
	assert.False(t, result.Feedback.IsCorrect)
	assert.Equal(t, "Not quite. The correct answer is B.", result.Feedback.FeedbackMessage)
	assert.Contains(t, result.Feedback.Explanation, "A is a screen")
	assert.Contains(t, result.Feedback.Explanation, "B matches the functional goal.")
	assert.Zero(t, result.Progress.Correct)
}

func TestSubmitExamModeWithholdsFeedback(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{Mode: models.ModeExam, TotalQuestions: 4})
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), started.SessionID, "B")
	require.NoError(t, err)
	assert.Nil(t, result.Feedback, "exam takers must not see correctness mid-session")
	require.NotNil(t, result.NextQuestionReady)
	assert.True(t, *result.NextQuestionReady)
	assert.Equal(t, 1, result.Progress.Correct, "scoring still happens silently")
}

func TestSubmitLastQuestionIsForwardLooking(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	// Exam mode accepts arbitrary totals, which keeps the walk short.
	started, err := svc.Start(context.Background(), nil, StartParams{Mode: models.ModeExam, TotalQuestions: 1})
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), started.SessionID, "B")
	require.NoError(t, err)
	assert.True(t, result.IsComplete)

	// The session itself stays active; only Next performs the terminal
	// transition.
	session, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	assert.Nil(t, session.CompletedAt)
}

func TestSubmitCompletedSessionRejected(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{Mode: models.ModeExam, TotalQuestions: 1})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), started.SessionID, "B")
	require.NoError(t, err)
	_, err = svc.Next(context.Background(), started.SessionID)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), started.SessionID, "B")
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestNextFinalizesWithRoundedPercentage(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{Mode: models.ModeExam, TotalQuestions: 3})
	require.NoError(t, err)

	answers := []string{"B", "B", "A"} // 2 of 3 correct
	for i, label := range answers {
		_, err = svc.Submit(context.Background(), started.SessionID, label)
		require.NoError(t, err)
		if i < len(answers)-1 {
			_, err = svc.Next(context.Background(), started.SessionID)
			require.NoError(t, err)
		}
	}

	result, err := svc.Next(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.True(t, result.IsComplete)
	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 2, result.FinalScore.Correct)
	assert.Equal(t, 3, result.FinalScore.Total)
	assert.Equal(t, 67, result.FinalScore.Percentage, "2/3 rounds to 67, not truncates to 66")

	session, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.False(t, session.IsActive)
	assert.NotNil(t, session.CompletedAt)
}

func TestNextGenerationFailureLeavesSessionResumable(t *testing.T) {
	gen := &fakeGenerator{question: sampleQuestion()}
	svc := newTestService(t, gen)

	started, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), started.SessionID, "B")
	require.NoError(t, err)

	gen.questionErr = ai.ErrUnavailable
	_, err = svc.Next(context.Background(), started.SessionID)
	require.ErrorIs(t, err, ai.ErrUnavailable)

	session, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentQuestion, "failed advance must not move the counter")
	assert.True(t, session.IsActive)
}

func TestPrefetchThenNextConsumesSlot(t *testing.T) {
	gen := &fakeGenerator{question: sampleQuestion()}
	svc := newTestService(t, gen)

	started, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)

	prefetch, err := svc.Prefetch(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "prefetched", prefetch.Status)
	assert.Equal(t, 2, prefetch.QuestionNumber)

	callsBefore := gen.questionCalls
	result, err := svc.Next(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CurrentQuestion)
	assert.Equal(t, callsBefore, gen.questionCalls, "next must serve the prefetched question, not regenerate")

	session, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Empty(t, session.NextQuestionData, "prefetch slot is consumed by advancing")
}

func TestPrefetchNeverOverwrites(t *testing.T) {
	gen := &fakeGenerator{question: sampleQuestion()}
	svc := newTestService(t, gen)

	started, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)

	_, err = svc.Prefetch(context.Background(), started.SessionID)
	require.NoError(t, err)
	callsBefore := gen.questionCalls

	again, err := svc.Prefetch(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "already_prefetched", again.Status)
	assert.Equal(t, callsBefore, gen.questionCalls)
}

func TestPrefetchOnLastQuestion(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{Mode: models.ModeExam, TotalQuestions: 1})
	require.NoError(t, err)

	result, err := svc.Prefetch(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "no_more_questions", result.Status)
}

func TestPrefetchGenerationFailureIsQuiet(t *testing.T) {
	gen := &fakeGenerator{question: sampleQuestion()}
	svc := newTestService(t, gen)

	started, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)

	gen.questionErr = ai.ErrUnavailable
	result, err := svc.Prefetch(context.Background(), started.SessionID)
	require.NoError(t, err, "prefetch is advisory and never surfaces generation errors")
	assert.Equal(t, "already_prefetched", result.Status)
}

func TestConcurrentSaveLosesCleanly(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{})
	require.NoError(t, err)

	first, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)
	second, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)

	first.CorrectCount = 1
	require.NoError(t, repository.SaveMockSession(context.Background(), first))

	second.CorrectCount = 5
	err = repository.SaveMockSession(context.Background(), second)
	require.ErrorIs(t, err, repository.ErrConflict)

	// The winner's write is intact.
	current, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.CorrectCount)
}

func TestTopicCoverageDeduplicates(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	started, err := svc.Start(context.Background(), nil, StartParams{Mode: models.ModeExam, TotalQuestions: 3})
	require.NoError(t, err)

	// Every generated question shares one topic; coverage must hold a
	// single entry after several submissions.
	for i := 0; i < 2; i++ {
		_, err = svc.Submit(context.Background(), started.SessionID, "B")
		require.NoError(t, err)
		_, err = svc.Next(context.Background(), started.SessionID)
		require.NoError(t, err)
	}

	session, err := repository.GetMockSession(context.Background(), started.SessionID)
	require.NoError(t, err)
	assert.JSONEq(t, `["Assessment selection"]`, string(session.TopicsCovered))
}

func TestSaveProgressAndGetActive(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	user := &models.User{Username: "taker", Email: "taker@example.com", Password: "x"}
	require.NoError(t, database.DB.Create(user).Error)
	userID := user.ID

	started, err := svc.Start(context.Background(), &userID, StartParams{})
	require.NoError(t, err)

	require.NoError(t, svc.SaveProgress(context.Background(), started.SessionID, []byte(`[{"start":3,"end":9,"text":"patient"}]`)))

	active, err := svc.GetActive(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, started.SessionID, active.SessionID)
	assert.JSONEq(t, `[{"start":3,"end":9,"text":"patient"}]`, string(active.Highlights))
	assert.Equal(t, 1, active.CurrentQuestion)
}

func TestGetActiveSkipsCompletedSessions(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{question: sampleQuestion()})

	user := &models.User{Username: "done", Email: "done@example.com", Password: "x"}
	require.NoError(t, database.DB.Create(user).Error)
	userID := user.ID

	started, err := svc.Start(context.Background(), &userID, StartParams{Mode: models.ModeExam, TotalQuestions: 1})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), started.SessionID, "B")
	require.NoError(t, err)
	_, err = svc.Next(context.Background(), started.SessionID)
	require.NoError(t, err)

	_, err = svc.GetActive(context.Background(), userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
