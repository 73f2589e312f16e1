package repository

import (
	"context"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser creates the user row and its empty profile together.
func CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserProfile{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	result := database.DB.WithContext(ctx).Preload("Profile").First(&user, "username = ?", username)
	return &user, result.Error
}

func GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := database.DB.WithContext(ctx).Preload("Profile").First(&user, id)
	return &user, result.Error
}

func GetProfileByUserID(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	result := database.DB.WithContext(ctx).First(&profile, "user_id = ?", userID)
	return &profile, result.Error
}

func GetProfileByVerificationToken(ctx context.Context, token string) (*models.UserProfile, error) {
	var profile models.UserProfile
	result := database.DB.WithContext(ctx).First(&profile, "verification_token = ?", token)
	return &profile, result.Error
}

func SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	return database.DB.WithContext(ctx).Save(profile).Error
}
