package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	// ErrSessionCompleted is returned when a mutation targets a session that
	// already finished.
	ErrSessionCompleted = errors.New("session is already completed")
	// ErrNoActiveQuestion is returned when a session has no in-flight
	// question to grade or pivot from.
	ErrNoActiveQuestion = errors.New("no active question")
)

// MockStudyService drives the mock study session state machine: question
// delivery, grading, prefetching, and completion, across practice and exam
// modes.
type MockStudyService struct {
	gen ai.Generator
	log *zap.Logger
}

func NewMockStudyService(gen ai.Generator, log *zap.Logger) *MockStudyService {
	return &MockStudyService{gen: gen, log: log}
}

// StartParams are the client-supplied session settings. Zero values mean
// "use the default", matching the lenient validation posture: invalid
// practice counts clamp to the default instead of rejecting.
type StartParams struct {
	Domain         string `json:"domain"`
	Difficulty     string `json:"difficulty"`
	TotalQuestions int    `json:"total_questions"`
	Mode           string `json:"mode"`
}

// PublicQuestion is the client-facing view of a generated question. The
// correct label and rationales never appear here.
type PublicQuestion struct {
	Stem    string      `json:"stem"`
	Options []ai.Option `json:"options"`
}

// Progress summarizes a session's position and score.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Correct    int `json:"correct"`
	Percentage int `json:"percentage"`
}

// Feedback is the graded outcome of one submitted answer.
type Feedback struct {
	IsCorrect       bool   `json:"is_correct"`
	FeedbackMessage string `json:"feedback_message"`
	Explanation     string `json:"explanation"`
}

// StartResult is the response to a successful session start.
type StartResult struct {
	SessionID      uint           `json:"session_id"`
	Domain         string         `json:"domain"`
	Difficulty     string         `json:"difficulty"`
	TotalQuestions int            `json:"total_questions"`
	CurrentQuestion int           `json:"current_question"`
	Question       PublicQuestion `json:"question"`
}

// SubmitResult reports grading and progress. IsComplete is forward-looking:
// it signals that the just-answered question was the last one, but the
// session stays active until the following Next call performs the terminal
// transition. Feedback is always null in exam mode.
type SubmitResult struct {
	Progress          Progress  `json:"progress"`
	IsComplete        bool      `json:"is_complete"`
	Feedback          *Feedback `json:"feedback"`
	NextQuestionReady *bool     `json:"next_question_ready,omitempty"`
}

// FinalScore summarizes a finished session.
type FinalScore struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// NextResult is either the next question or, on exhaustion, the summary.
type NextResult struct {
	IsComplete      bool            `json:"is_complete"`
	FinalScore      *FinalScore     `json:"final_score,omitempty"`
	CurrentQuestion int             `json:"current_question,omitempty"`
	TotalQuestions  int             `json:"total_questions,omitempty"`
	Question        *PublicQuestion `json:"question,omitempty"`
	Highlights      json.RawMessage `json:"highlights,omitempty"`
}

// PrefetchResult reports what the prefetch call did.
type PrefetchResult struct {
	Status         string `json:"status"`
	QuestionNumber int    `json:"question_number,omitempty"`
}

// ActiveSession is the resumption payload for a disconnected client.
type ActiveSession struct {
	SessionID       uint            `json:"session_id"`
	Domain          string          `json:"domain"`
	Difficulty      string          `json:"difficulty"`
	TotalQuestions  int             `json:"total_questions"`
	CurrentQuestion int             `json:"current_question"`
	Question        PublicQuestion  `json:"question"`
	Highlights      json.RawMessage `json:"highlights"`
	Progress        Progress        `json:"progress"`
}

type historyItem struct {
	QuestionNumber int    `json:"question_number"`
	Stem           string `json:"stem"`
	SelectedLabel  string `json:"selected_label"`
	CorrectLabel   string `json:"correct_label"`
	IsCorrect      bool   `json:"is_correct"`
	Timestamp      string `json:"timestamp"`
}

// Start validates the requested shape, creates the session row, and
// generates question #1 synchronously. If generation fails the row is
// rolled back so no dangling session remains.
func (s *MockStudyService) Start(ctx context.Context, userID *uint, p StartParams) (*StartResult, error) {
	if p.Domain == "" {
		p.Domain = models.DomainOTExpertise
	}
	if p.Difficulty == "" {
		p.Difficulty = "Medium"
	}
	mode := p.Mode
	if mode == "" {
		mode = models.ModePractice
	}

	total := p.TotalQuestions
	examConfig := datatypes.JSON(nil)
	var timerStart *time.Time
	if mode == models.ModeExam {
		if total == 0 {
			total = models.DefaultExamCount
		}
		// Two exam books at 200 questions, one otherwise. Exam counts other
		// than the defaults are accepted as-is.
		books := 1
		if total == models.DefaultExamCount {
			books = 2
		}
		examConfig = mustJSON(map[string]int{"book": 1, "total_books": books})
		now := time.Now().UTC()
		timerStart = &now
	} else {
		if total == 0 || !models.IsValidPracticeCount(total) {
			total = models.DefaultPracticeCount
		}
	}

	session := &models.MockStudySession{
		UserID:          userID,
		Domain:          p.Domain,
		Difficulty:      p.Difficulty,
		Mode:            mode,
		TotalQuestions:  total,
		CurrentQuestion: 1,
		TopicsCovered:   mustJSON([]string{}),
		SessionHistory:  mustJSON([]historyItem{}),
		IsActive:        true,
		ExamConfig:      examConfig,
		TimerStart:      timerStart,
	}
	if err := repository.CreateMockSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	question, err := s.gen.GeneratePracticeQuestion(ctx, p.Domain, p.Difficulty, 1, total, nil)
	if err != nil {
		// No dangling half-started session rows.
		if delErr := repository.DeleteMockSession(ctx, session.ID); delErr != nil {
			s.log.Error("Failed to roll back session after generation failure",
				zap.Uint("sessionID", session.ID), zap.Error(delErr))
		}
		return nil, err
	}

	session.CurrentQuestionData = mustJSON(question)
	if err := repository.SaveMockSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &StartResult{
		SessionID:       session.ID,
		Domain:          p.Domain,
		Difficulty:      p.Difficulty,
		TotalQuestions:  total,
		CurrentQuestion: 1,
		Question:        publicView(question),
	}, nil
}

// Submit grades the in-flight question and records the outcome. It never
// deactivates the session; the terminal transition belongs to Next.
func (s *MockStudyService) Submit(ctx context.Context, sessionID uint, selectedLabel string) (*SubmitResult, error) {
	session, err := repository.GetMockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, ErrSessionCompleted
	}

	question, err := decodeQuestion(session.CurrentQuestionData)
	if err != nil {
		return nil, ErrNoActiveQuestion
	}

	selectedLabel = strings.ToUpper(selectedLabel)
	feedback := gradeAnswer(question, selectedLabel)

	if feedback.IsCorrect {
		session.CorrectCount++
	}

	// Topic coverage dedups by exact string membership.
	if question.Topic != "" {
		topics := decodeStrings(session.TopicsCovered)
		if !containsString(topics, question.Topic) {
			topics = append(topics, question.Topic)
			session.TopicsCovered = mustJSON(topics)
		}
	}

	var history []historyItem
	_ = json.Unmarshal(session.SessionHistory, &history)
	history = append(history, historyItem{
		QuestionNumber: session.CurrentQuestion,
		Stem:           question.Stem,
		SelectedLabel:  selectedLabel,
		CorrectLabel:   question.CorrectLabel,
		IsCorrect:      feedback.IsCorrect,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
	session.SessionHistory = mustJSON(history)

	// Forward-looking: true when the just-answered question was the last,
	// even though the session stays active until Next finalizes it.
	isComplete := session.CurrentQuestion >= session.TotalQuestions

	if err := repository.SaveMockSession(ctx, session); err != nil {
		return nil, err
	}

	result := &SubmitResult{
		Progress: Progress{
			Current:    session.CurrentQuestion,
			Total:      session.TotalQuestions,
			Correct:    session.CorrectCount,
			Percentage: session.CurrentQuestion * 100 / session.TotalQuestions,
		},
		IsComplete: isComplete,
	}

	if session.Mode == models.ModeExam {
		// Exam takers must not learn correctness until the session ends.
		result.Feedback = nil
		ready := true
		result.NextQuestionReady = &ready
	} else {
		result.Feedback = feedback
	}
	return result, nil
}

// Next either finalizes an exhausted session or advances to the following
// question, consuming the prefetch slot when one is waiting. Generation runs
// before any state is persisted, so a failed call leaves the session
// resumable at the same question number.
func (s *MockStudyService) Next(ctx context.Context, sessionID uint) (*NextResult, error) {
	session, err := repository.GetActiveMockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.CurrentQuestion >= session.TotalQuestions {
		now := time.Now().UTC()
		session.IsActive = false
		session.CompletedAt = &now
		if err := repository.SaveMockSession(ctx, session); err != nil {
			return nil, err
		}
		return &NextResult{
			IsComplete: true,
			FinalScore: &FinalScore{
				Correct:    session.CorrectCount,
				Total:      session.TotalQuestions,
				Percentage: int(math.Round(float64(session.CorrectCount) / float64(session.TotalQuestions) * 100)),
			},
		}, nil
	}

	nextNumber := session.CurrentQuestion + 1

	var question *ai.GeneratedQuestion
	if len(session.NextQuestionData) > 0 {
		question, err = decodeQuestion(session.NextQuestionData)
		if err != nil {
			s.log.Warn("Discarding unreadable prefetched question",
				zap.Uint("sessionID", session.ID), zap.Error(err))
			question = nil
		}
	}
	if question == nil {
		question, err = s.gen.GeneratePracticeQuestion(ctx, session.Domain, session.Difficulty,
			nextNumber, session.TotalQuestions, decodeStrings(session.TopicsCovered))
		if err != nil {
			return nil, err
		}
	}

	session.CurrentQuestion = nextNumber
	session.CurrentQuestionData = mustJSON(question)
	session.NextQuestionData = nil // consumed or superseded
	if err := repository.SaveMockSession(ctx, session); err != nil {
		return nil, err
	}

	q := publicView(question)
	return &NextResult{
		IsComplete:      false,
		CurrentQuestion: session.CurrentQuestion,
		TotalQuestions:  session.TotalQuestions,
		Question:        &q,
		Highlights:      rawOrEmptyArray(session.Highlights),
	}, nil
}

// Prefetch generates question N+1 ahead of time. It is a no-op when a
// prefetched question is already waiting or the current question is the
// last; an existing prefetch is never overwritten.
func (s *MockStudyService) Prefetch(ctx context.Context, sessionID uint) (*PrefetchResult, error) {
	session, err := repository.GetActiveMockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.CurrentQuestion >= session.TotalQuestions {
		return &PrefetchResult{Status: "no_more_questions"}, nil
	}

	if len(session.NextQuestionData) == 0 {
		nextNumber := session.CurrentQuestion + 1
		question, genErr := s.gen.GeneratePracticeQuestion(ctx, session.Domain, session.Difficulty,
			nextNumber, session.TotalQuestions, decodeStrings(session.TopicsCovered))
		if genErr == nil {
			session.NextQuestionData = mustJSON(question)
			if err := repository.SaveMockSession(ctx, session); err != nil {
				return nil, err
			}
			return &PrefetchResult{Status: "prefetched", QuestionNumber: nextNumber}, nil
		}
		s.log.Warn("Prefetch generation failed", zap.Uint("sessionID", session.ID), zap.Error(genErr))
	}

	return &PrefetchResult{Status: "already_prefetched"}, nil
}

// Pivot derives a hypothetical variant of the current question. Read-only
// with respect to session state and independent of mode.
func (s *MockStudyService) Pivot(ctx context.Context, sessionID uint) (*ai.PivotScenario, error) {
	session, err := repository.GetMockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	question, err := decodeQuestion(session.CurrentQuestionData)
	if err != nil {
		return nil, ErrNoActiveQuestion
	}
	return s.gen.GeneratePivot(ctx, question.Stem, question.CorrectLabel, question.CorrectRationale)
}

// SaveProgress stores the client's in-session highlight scratchpad.
func (s *MockStudyService) SaveProgress(ctx context.Context, sessionID uint, highlights json.RawMessage) error {
	session, err := repository.GetActiveMockSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Highlights = datatypes.JSON(highlights)
	return repository.SaveMockSession(ctx, session)
}

// GetActive returns the user's most recently touched active session, or nil
// when there is none.
func (s *MockStudyService) GetActive(ctx context.Context, userID uint) (*ActiveSession, error) {
	session, err := repository.GetLatestActiveSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	question, err := decodeQuestion(session.CurrentQuestionData)
	if err != nil {
		return nil, ErrNoActiveQuestion
	}
	return &ActiveSession{
		SessionID:       session.ID,
		Domain:          session.Domain,
		Difficulty:      session.Difficulty,
		TotalQuestions:  session.TotalQuestions,
		CurrentQuestion: session.CurrentQuestion,
		Question:        publicView(question),
		Highlights:      rawOrEmptyArray(session.Highlights),
		Progress: Progress{
			Current: session.CurrentQuestion,
			Total:   session.TotalQuestions,
			Correct: session.CorrectCount,
		},
	}, nil
}

// gradeAnswer compares labels case-insensitively and shapes learner-facing
// feedback. Deterministic; no provider call involved.
func gradeAnswer(q *ai.GeneratedQuestion, selectedLabel string) *Feedback {
	if strings.EqualFold(selectedLabel, q.CorrectLabel) {
		return &Feedback{
			IsCorrect:       true,
			FeedbackMessage: "Correct! 🎉",
			Explanation:     q.CorrectRationale,
		}
	}

	incorrectReason, ok := q.IncorrectRationales[strings.ToUpper(selectedLabel)]
	if !ok {
		incorrectReason = "This option does not align with best practices."
	}
	return &Feedback{
		IsCorrect:       false,
		FeedbackMessage: fmt.Sprintf("Not quite. The correct answer is %s.", q.CorrectLabel),
		Explanation: fmt.Sprintf("**Why %s is incorrect:** %s\n\n**Correct answer (%s):** %s",
			selectedLabel, incorrectReason, q.CorrectLabel, q.CorrectRationale),
	}
}

func publicView(q *ai.GeneratedQuestion) PublicQuestion {
	return PublicQuestion{Stem: q.Stem, Options: q.Options}
}

func decodeQuestion(data datatypes.JSON) (*ai.GeneratedQuestion, error) {
	if len(data) == 0 {
		return nil, ErrNoActiveQuestion
	}
	var q ai.GeneratedQuestion
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	if q.Stem == "" {
		return nil, ErrNoActiveQuestion
	}
	return &q, nil
}

func decodeStrings(data datatypes.JSON) []string {
	var out []string
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable types, which would be a
		// programming error.
		panic(err)
	}
	return datatypes.JSON(b)
}

func rawOrEmptyArray(data datatypes.JSON) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(data)
}
