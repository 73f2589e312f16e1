package main

import (
	"time"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/database"
	logger "github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/logging"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/router"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"

	"go.uber.org/zap"
)

func main() {
	log, err := logger.Init(".")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	database.Init(log)

	generator := ai.NewClient(ai.Config{
		APIKey:  config.Conf.AI.APIKey,
		BaseURL: config.Conf.AI.BaseURL,
		Model:   config.Conf.AI.Model,
		Timeout: time.Duration(config.Conf.AI.TimeoutSeconds) * time.Second,
	}, log)

	emailSvc := services.NewEmailService(config.Conf.Email, log)
	paymentSvc := services.NewPaymentService(config.Conf.Stripe, emailSvc, log)

	r := router.Setup(log, router.Deps{
		Generator: generator,
		MockStudy: services.NewMockStudyService(generator, log),
		CaseGen:   services.NewCaseGenService(generator, log),
		Payments:  paymentSvc,
		Email:     emailSvc,
	})

	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
