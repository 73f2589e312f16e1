package repository

import (
	"context"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"

	"gorm.io/gorm/clause"
)

// UpsertUserSession writes the resume pointer for one (user, case) pair.
func UpsertUserSession(ctx context.Context, userID uint, caseID string, index int, completed bool) (*models.UserSession, error) {
	session := &models.UserSession{
		UserID:               userID,
		CaseStudyID:          caseID,
		CurrentQuestionIndex: index,
		IsCompleted:          completed,
	}
	err := database.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "case_study_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_question_index", "is_completed", "last_accessed"}),
		}).
		Create(session).Error
	return session, err
}

func GetUserSession(ctx context.Context, userID uint, caseID string) (*models.UserSession, error) {
	var session models.UserSession
	result := database.DB.WithContext(ctx).
		First(&session, "user_id = ? AND case_study_id = ?", userID, caseID)
	return &session, result.Error
}

func CreateUserAnswer(ctx context.Context, answer *models.UserAnswer) error {
	return database.DB.WithContext(ctx).Create(answer).Error
}

func CreateHighlight(ctx context.Context, highlight *models.Highlight) error {
	return database.DB.WithContext(ctx).Create(highlight).Error
}

func ListHighlights(ctx context.Context, userID uint) ([]models.Highlight, error) {
	var highlights []models.Highlight
	result := database.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&highlights)
	return highlights, result.Error
}

// UpsertMemory stores one memory item per (user, key), updating in place on
// repeat writes.
func UpsertMemory(ctx context.Context, memory *models.AgentMemory) error {
	var existing models.AgentMemory
	query := database.DB.WithContext(ctx).Where("key = ?", memory.Key)
	if memory.UserID != nil {
		query = query.Where("user_id = ?", *memory.UserID)
	} else {
		query = query.Where("user_id IS NULL")
	}
	if err := query.First(&existing).Error; err == nil {
		existing.Value = memory.Value
		existing.Category = memory.Category
		*memory = existing
		return database.DB.WithContext(ctx).Save(&existing).Error
	}
	return database.DB.WithContext(ctx).Create(memory).Error
}

func ListMemories(ctx context.Context, userID uint, category string) ([]models.AgentMemory, error) {
	var memories []models.AgentMemory
	query := database.DB.WithContext(ctx).Where("user_id = ?", userID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	result := query.Find(&memories)
	return memories, result.Error
}
