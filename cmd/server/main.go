package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/woodchat/woodchat-backend/internal/api"
	"github.com/woodchat/woodchat-backend/internal/auth"
	"github.com/woodchat/woodchat-backend/internal/chat"
	"github.com/woodchat/woodchat-backend/internal/config"
	"github.com/woodchat/woodchat-backend/internal/database"
	"github.com/woodchat/woodchat-backend/internal/relay"
	"github.com/woodchat/woodchat-backend/internal/repository/postgres"
	"github.com/woodchat/woodchat-backend/internal/upstream"
	"github.com/woodchat/woodchat-backend/internal/verification"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	jwtSecret := os.Getenv("WOODCHAT_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("WOODCHAT_JWT_SECRET is required")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database migrations applied")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.WithError(err).Fatal("Failed to connect to redis")
	}
	cancel()
	defer redisClient.Close()

	userRepo := postgres.NewUserRepository(db.DB)
	userSessionRepo := postgres.NewUserSessionRepository(db.DB)
	sessionRepo := postgres.NewSessionRepository(db.DB)
	messageRepo := postgres.NewMessageRepository(db.DB)
	modelRepo := postgres.NewChatModelRepository(db.DB)

	authService := auth.NewService(userRepo, userSessionRepo, jwtSecret, log)
	chatService := chat.NewService(sessionRepo, messageRepo, modelRepo, log)

	codeStore := verification.NewRedisCodeStore(redisClient)
	mailer := verification.NewSMTPMailer(cfg.SMTP, cfg.Site)
	verifyService := verification.NewService(codeStore, mailer, userRepo, log)

	upstreamClient := upstream.NewClient(cfg.Upstream, log)
	orchestrator := relay.NewOrchestrator(sessionRepo, messageRepo, modelRepo, upstreamClient, log)

	app := fiber.New(fiber.Config{
		AppName:               "woodchat-backend",
		DisableStartupMessage: true,
		// Streams can stay open for a long time; idle applies between
		// requests, not within one.
		IdleTimeout: 60 * time.Second,
	})

	api.Setup(app, api.Deps{
		Auth:         authService,
		Chat:         chatService,
		Relay:        orchestrator,
		Verification: verifyService,
		Log:          log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.WithField("addr", addr).Info("Server listening")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
