package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/factlens/backend/internal/api/handlers"
	"github.com/factlens/backend/internal/evidence"
	"github.com/factlens/backend/internal/extract"
	"github.com/factlens/backend/internal/feedback"
	"github.com/factlens/backend/internal/metrics"
	"github.com/factlens/backend/internal/middleware/validation"
	"github.com/factlens/backend/internal/nlp"
	"github.com/factlens/backend/internal/pipeline"
	"github.com/factlens/backend/internal/session"
	"github.com/factlens/backend/internal/storage/sqlite"
	"github.com/factlens/backend/internal/verdict"
	"github.com/factlens/backend/pkg/config"
	appLogger "github.com/factlens/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting factlens API server")

	metrics.Init()

	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	sessions, err := session.NewStore(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.SessionTTL)*time.Second,
	)
	if err != nil {
		appLogger.Fatal("Failed to create session store", zap.Error(err))
	}
	defer sessions.Close()

	feedbackLog, err := feedback.NewStore(cfg.Feedback.Path)
	if err != nil {
		appLogger.Fatal("Failed to create feedback store", zap.Error(err))
	}

	extractor := extract.New(cfg.Extract.UserAgent, time.Duration(cfg.Extract.TimeoutSec)*time.Second)

	summarizer := nlp.NewHFSummarizer(nlp.HFSummarizerConfig{
		Endpoint:  cfg.Summary.Endpoint,
		Model:     cfg.Summary.Model,
		APIKey:    cfg.Summary.APIKey,
		MaxLength: cfg.Summary.MaxLength,
		MinLength: cfg.Summary.MinLength,
		Threshold: cfg.Summary.Threshold,
		Timeout:   time.Duration(cfg.Summary.TimeoutSec) * time.Second,
	})

	entities := nlp.NewProseExtractor(cfg.Entities.Max, cfg.Entities.Threshold)

	retriever := evidence.NewRetriever(evidence.Config{
		Endpoint:       cfg.Search.Endpoint,
		APIKey:         cfg.Search.APIKey,
		MaxResults:     cfg.Search.MaxResults,
		SkipEmptyQuery: cfg.Search.SkipEmptyQuery,
		Timeout:        time.Duration(cfg.Search.TimeoutSec) * time.Second,
	})

	synthesizer := verdict.NewSynthesizer(verdict.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	checkPipeline := pipeline.New(extractor, summarizer, entities, retriever, synthesizer, db, sessions)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	checkHandler := handlers.NewCheckHandler(checkPipeline, db)
	feedbackHandler := handlers.NewFeedbackHandler(sessions, db, feedbackLog)
	streamHandler := handlers.NewStreamHandler(checkPipeline)

	api := app.Group("/api/v1", validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	api.Post("/checks", checkHandler.HandleCheck)
	api.Get("/checks/history", checkHandler.GetHistory)
	api.Post("/feedback", feedbackHandler.HandleFeedback)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/checks", websocket.New(streamHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
