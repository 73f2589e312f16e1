package repository

import (
	"context"
	"errors"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
)

// ErrConflict means a concurrent writer updated the session between our read
// and our write. The caller lost the race and should not retry blindly.
var ErrConflict = errors.New("session was modified concurrently")

func CreateMockSession(ctx context.Context, session *models.MockStudySession) error {
	return database.DB.WithContext(ctx).Create(session).Error
}

func GetMockSession(ctx context.Context, id uint) (*models.MockStudySession, error) {
	var session models.MockStudySession
	result := database.DB.WithContext(ctx).First(&session, id)
	return &session, result.Error
}

func GetActiveMockSession(ctx context.Context, id uint) (*models.MockStudySession, error) {
	var session models.MockStudySession
	result := database.DB.WithContext(ctx).First(&session, "id = ? AND is_active = ?", id, true)
	return &session, result.Error
}

// GetLatestActiveSession returns the most recently touched active session
// for a user, for resumption after a disconnect.
func GetLatestActiveSession(ctx context.Context, userID uint) (*models.MockStudySession, error) {
	var session models.MockStudySession
	result := database.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_accessed DESC").
		First(&session)
	return &session, result.Error
}

// SaveMockSession persists every mutable field of the session with a
// compare-and-swap on the version column. Two racing writers both read
// version N; only the first write matching N succeeds, the second gets
// ErrConflict with zero rows touched.
func SaveMockSession(ctx context.Context, session *models.MockStudySession) error {
	readVersion := session.Version
	session.Version = readVersion + 1

	result := database.DB.WithContext(ctx).
		Model(&models.MockStudySession{}).
		Where("id = ? AND version = ?", session.ID, readVersion).
		Updates(map[string]interface{}{
			"current_question":      session.CurrentQuestion,
			"correct_count":         session.CorrectCount,
			"topics_covered":        session.TopicsCovered,
			"current_question_data": session.CurrentQuestionData,
			"next_question_data":    session.NextQuestionData,
			"session_history":       session.SessionHistory,
			"highlights":            session.Highlights,
			"is_active":             session.IsActive,
			"completed_at":          session.CompletedAt,
			"version":               session.Version,
		})
	if result.Error != nil {
		session.Version = readVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		session.Version = readVersion
		return ErrConflict
	}
	return nil
}

// DeleteMockSession removes a session row, used to roll back a session whose
// first question could not be generated.
func DeleteMockSession(ctx context.Context, id uint) error {
	return database.DB.WithContext(ctx).Delete(&models.MockStudySession{}, id).Error
}
