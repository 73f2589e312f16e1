package repository

import (
	"context"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"

	"gorm.io/gorm"
)

func ListCaseStudies(ctx context.Context) ([]models.CaseStudy, error) {
	var cases []models.CaseStudy
	result := database.DB.WithContext(ctx).
		Preload("Questions.Distractors").
		Preload("Questions").
		Find(&cases)
	return cases, result.Error
}

func GetCaseStudy(ctx context.Context, id string) (*models.CaseStudy, error) {
	var cs models.CaseStudy
	result := database.DB.WithContext(ctx).
		Preload("Questions.Distractors").
		Preload("Questions").
		First(&cs, "id = ?", id)
	return &cs, result.Error
}

func GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	result := database.DB.WithContext(ctx).Preload("Distractors").First(&q, "id = ?", id)
	return &q, result.Error
}

// CreateCaseStudyTree persists a case with its questions and distractors,
// parent before children, inside one all-or-nothing transaction.
func CreateCaseStudyTree(ctx context.Context, cs *models.CaseStudy) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := cs.Questions
		cs.Questions = nil
		if err := tx.Create(cs).Error; err != nil {
			return err
		}
		for i := range questions {
			q := &questions[i]
			distractors := q.Distractors
			q.Distractors = nil
			q.CaseStudyID = cs.ID
			if err := tx.Create(q).Error; err != nil {
				return err
			}
			for j := range distractors {
				distractors[j].QuestionID = q.ID
				if err := tx.Create(&distractors[j]).Error; err != nil {
					return err
				}
			}
			q.Distractors = distractors
		}
		cs.Questions = questions
		return nil
	})
}
