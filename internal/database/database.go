package database

import (
	"fmt"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	logging "github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/logging"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// It will NOT create custom indexes, so we handle that separately.
	err := DB.AutoMigrate(
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
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	// get_active scans for the most recently touched active session per user.
	activeIndex := `CREATE INDEX IF NOT EXISTS idx_mock_sessions_active ON mock_study_sessions (user_id, is_active, last_accessed DESC);`
	if err := DB.Exec(activeIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on mock study sessions", zap.Error(err))
	}
	log.Info("Custom indexes ensured successfully.")
}
