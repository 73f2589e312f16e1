package router

import (
	"time"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/ai"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/config"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/handlers"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Deps are the shared services the route handlers close over.
type Deps struct {
	Generator ai.Generator
	MockStudy *services.MockStudyService
	CaseGen   *services.CaseGenService
	Payments  *services.PaymentService
	Email     *services.EmailService
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitExceeded(c *gin.Context, info ratelimit.Info) {
	c.JSON(429, gin.H{"error": "Too many requests. Try again later."})
}

func Setup(log *zap.Logger, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.Conf.Server.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	authHandler := handlers.NewAuthHandler(log, deps.Email)
	casesHandler := handlers.NewCasesHandler(log, deps.CaseGen)
	answersHandler := handlers.NewAnswersHandler(log, deps.Generator)
	userDataHandler := handlers.NewUserDataHandler(log)
	mockStudyHandler := handlers.NewMockStudyHandler(log, deps.MockStudy)
	paymentsHandler := handlers.NewPaymentsHandler(log, deps.Payments)
	diagHandler := handlers.NewDiagnosticsHandler(log, deps.Email)

	// Credential endpoints get a per-IP limiter; nothing else does.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 10,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: rateLimitExceeded,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	{
		api.GET("/ping", diagHandler.Ping)
		api.GET("/test-email", diagHandler.TestEmail)

		api.POST("/auth/register", limiter, authHandler.Register)
		api.POST("/auth/login", limiter, authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.GET("/auth/me", AuthRequired(log), authHandler.Me)
		api.POST("/verify-email", authHandler.VerifyEmail)

		// Case browsing and generation are open; generation records the
		// requesting user when one is present.
		cases := api.Group("/cases", OptionalAuth(log))
		{
			cases.GET("", casesHandler.List)
			cases.GET("/:id", casesHandler.Get)
			cases.POST("/generate", casesHandler.Generate)
			cases.POST("/prefetch", casesHandler.Prefetch)
		}

		authorized := api.Group("/", AuthRequired(log))
		{
			authorized.POST("/answers", answersHandler.Create)
			authorized.POST("/answers/get_rationale", answersHandler.GetRationale)
			authorized.POST("/answers/evidence_link", answersHandler.EvidenceLink)

			authorized.POST("/highlights", userDataHandler.CreateHighlight)
			authorized.GET("/highlights", userDataHandler.ListHighlights)
			authorized.POST("/memory", userDataHandler.UpsertMemory)
			authorized.GET("/memory", userDataHandler.ListMemories)

			authorized.POST("/sessions/save_progress", userDataHandler.SaveProgress)
			authorized.GET("/sessions/resume", userDataHandler.Resume)

			mock := authorized.Group("/mock-study")
			{
				paid := mock.Group("", RequirePaid())
				{
					paid.POST("/start", mockStudyHandler.Start)
					paid.POST("/next", mockStudyHandler.Next)
					paid.POST("/prefetch", mockStudyHandler.Prefetch)
					paid.POST("/pivot", mockStudyHandler.Pivot)
				}
				mock.POST("/submit", mockStudyHandler.Submit)
				mock.POST("/save_progress", mockStudyHandler.SaveProgress)
				mock.GET("/get_active", mockStudyHandler.GetActive)
				mock.GET("/active", mockStudyHandler.GetActive) // alias
			}

			authorized.POST("/stripe/checkout", paymentsHandler.Checkout)
			authorized.POST("/sync-payment", paymentsHandler.Sync)
		}

		// Signed by Stripe, not by a user token.
		api.POST("/stripe/webhook", paymentsHandler.Webhook)
	}

	return router
}
