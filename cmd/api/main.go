package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nudgebot/api/internal/agent"
	"github.com/nudgebot/api/internal/ai"
	"github.com/nudgebot/api/internal/config"
	"github.com/nudgebot/api/internal/database"
	"github.com/nudgebot/api/internal/jobs"
	applogger "github.com/nudgebot/api/internal/logger"
	"github.com/nudgebot/api/internal/middleware"
	"github.com/nudgebot/api/internal/notification"
	"github.com/nudgebot/api/internal/notification/whatsapp"
	"github.com/nudgebot/api/internal/repository"
	"github.com/nudgebot/api/internal/scheduler"
	"github.com/nudgebot/api/internal/service"
	"github.com/nudgebot/api/internal/session"
	"github.com/nudgebot/api/internal/timeexpr"
	"github.com/nudgebot/api/internal/timezone"
)

func main() {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = applogger.NewProductionLogger(false)
	} else {
		logger, err = applogger.NewDevelopmentLogger(true)
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer applogger.Sync(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	sessionStore, err := session.NewStore(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer sessionStore.Close()

	// Repositories
	reminderRepo := repository.NewReminderRepository(db)
	timezoneRepo := repository.NewUserTimezoneRepository(db)

	// Language model client, shared by extraction and timezone inference
	aiClient := ai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)

	timezoneResolver := timezone.NewResolver(aiClient, timezoneRepo, cfg.DefaultTimezone, logger)
	expressionResolver := timeexpr.NewResolver(logger)

	// Delivery
	whatsappClient := whatsapp.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	dispatcher := notification.NewDispatcher(whatsappClient, logger)

	// Services and conversation agent
	reminderService := service.NewReminderService(reminderRepo)
	conversationAgent := agent.New(aiClient, sessionStore, reminderService, timezoneResolver, expressionResolver, logger)

	// Scheduling
	scanner := scheduler.NewScanner(reminderRepo, timezoneResolver, logger)
	reminderJob := jobs.NewReminderJob(scanner, reminderRepo, dispatcher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(reminderJob, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Set up Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware(logger))

	// Rate limit inbound messages per sender, everything else per IP
	rateLimiter := middleware.NewRateLimiter(60, time.Minute)
	defer rateLimiter.Stop()
	r.Use(middleware.RateLimitMiddleware(rateLimiter, func(c *gin.Context) string {
		return c.PostForm("From")
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "app": "nudgebot"})
	})

	// Inbound WhatsApp messages from Twilio. The reply rides back as TwiML so
	// no outbound API call is needed for conversational turns.
	r.POST("/webhook/whatsapp", func(c *gin.Context) {
		from := c.PostForm("From")
		body := c.PostForm("Body")
		if from == "" || body == "" {
			c.JSON(400, gin.H{"error": "missing From or Body"})
			return
		}

		reply, err := conversationAgent.HandleMessage(c.Request.Context(), from, body)
		if err != nil {
			logger.Error("message handling failed", zap.Error(err))
			reply = "Something went wrong on my end. Please try again."
		}

		c.XML(200, twiml{Message: reply})
	})

	// Cron endpoint for processing due reminders, an external fallback for
	// the in-process loop when running behind a platform scheduler
	r.POST("/api/cron/reminders", func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "Bearer "+cfg.CronSecret {
			c.JSON(401, gin.H{"error": "unauthorized"})
			return
		}

		tickCtx, tickCancel := context.WithTimeout(context.Background(), 55*time.Second)
		defer tickCancel()

		count, err := reminderJob.ProcessDueReminders(tickCtx, time.Now())
		if err != nil {
			logger.Error("cron tick failed", zap.Error(err))
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"processed": count})
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("Starting nudgebot API", zap.String("port", port))
	srv := &http.Server{Addr: ":" + port, Handler: r}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// twiml is the minimal Twilio messaging response document.
type twiml struct {
	XMLName struct{} `xml:"Response"`
	Message string   `xml:"Message"`
}
