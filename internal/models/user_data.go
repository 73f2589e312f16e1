package models

import (
	"time"

	"gorm.io/datatypes"
)

// Confidence levels a learner can attach to a full-case answer.
const (
	ConfidenceLow  = "LOW"
	ConfidenceMed  = "MED"
	ConfidenceHigh = "HIGH"
)

// UserSession is the resume pointer for a user working through a full case:
// one row per (user, case), tracking the last question index viewed.
type UserSession struct {
	ID                   uint   `gorm:"primaryKey" json:"-"`
	UserID               uint   `gorm:"uniqueIndex:idx_user_case" json:"-"`
	CaseStudyID          string `gorm:"size:50;uniqueIndex:idx_user_case" json:"case_study"`
	CurrentQuestionIndex int    `json:"current_question_index"`
	IsCompleted          bool   `json:"is_completed"`
	LastAccessed         time.Time `gorm:"autoUpdateTime" json:"last_accessed"`
}

// UserAnswer is the immutable audit record of one answer to a full-case
// question. is_correct is computed at write time and never revised.
type UserAnswer struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UserID        uint      `gorm:"index" json:"-"`
	QuestionID    string    `gorm:"size:50" json:"question"`
	SelectedLabel string    `gorm:"size:1" json:"selected_label"`
	Confidence    string    `gorm:"size:4" json:"confidence"`
	IsCorrect     bool      `json:"is_correct"`
	Timestamp     time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

// Highlight is a user's selected text span within a case vignette. Offsets
// are stored raw; they are not recomputed if the vignette changes.
type Highlight struct {
	ID          string    `gorm:"primaryKey;size:50" json:"id"`
	UserID      uint      `gorm:"index" json:"-"`
	CaseStudyID string    `gorm:"size:50" json:"case_study"`
	StartIndex  int       `json:"start_index"`
	EndIndex    int       `json:"end_index"`
	Text        string    `gorm:"type:text" json:"text"`
	CreatedAt   time.Time `json:"-"`
}

// AgentMemory is a free-form key/value store per user, upserted by key.
// Generation events write audit entries here.
type AgentMemory struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index:idx_memory_user_key" json:"-"`
	Key       string         `gorm:"size:255;index:idx_memory_user_key" json:"key"`
	Value     datatypes.JSON `json:"value"`
	Category  string         `gorm:"size:50;default:general" json:"category"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
}
