package models

import (
	"time"

	"gorm.io/datatypes"
)

// Mock study modes.
const (
	ModePractice = "practice"
	ModeExam     = "exam"
)

// PracticeQuestionCounts are the allowed session lengths in practice mode.
// An invalid count falls back to DefaultPracticeCount.
var PracticeQuestionCounts = []int{10, 25, 50}

const (
	DefaultPracticeCount = 10
	DefaultExamCount     = 200
)

// MockStudySession tracks a user's mock study practice session. Unlike full
// case studies, these sessions generate individual questions on-the-fly
// without a connecting vignette narrative.
//
// The stored question payloads include the correct answer and rationales;
// handlers must shape responses so those never reach the client while the
// question is live. Version is an optimistic lock: every mutation is a
// compare-and-swap on it, so two racing writers cannot both win.
type MockStudySession struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         *uint  `gorm:"index" json:"-"`
	Domain         string `gorm:"size:50" json:"domain"`
	Difficulty     string `gorm:"size:20" json:"difficulty"`
	Mode           string `gorm:"size:20;default:practice" json:"mode"`
	TotalQuestions int    `json:"total_questions"`

	// 1-indexed position of the in-flight question.
	CurrentQuestion int `json:"current_question"`
	CorrectCount    int `json:"correct_count"`

	TopicsCovered datatypes.JSON `json:"-"`

	// The in-flight generated question, needed to validate answers.
	CurrentQuestionData datatypes.JSON `json:"-"`
	// Prefetch slot for the question after the current one; cleared exactly
	// when consumed by advancing.
	NextQuestionData datatypes.JSON `json:"-"`

	SessionHistory datatypes.JSON `json:"-"`
	Highlights     datatypes.JSON `json:"-"`
	ExamConfig     datatypes.JSON `json:"-"`

	IsActive     bool       `gorm:"default:true" json:"is_active"`
	Version      int        `gorm:"default:0" json:"-"`
	TimerStart   *time.Time `json:"timer_start,omitempty"`
	StartedAt    time.Time  `gorm:"autoCreateTime" json:"started_at"`
	LastAccessed time.Time  `gorm:"autoUpdateTime;index" json:"-"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// IsValidPracticeCount reports whether n is an allowed practice-mode length.
func IsValidPracticeCount(n int) bool {
	for _, c := range PracticeQuestionCounts {
		if c == n {
			return true
		}
	}
	return false
}
