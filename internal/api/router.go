package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/woodchat/woodchat-backend/internal/api/handlers"
	"github.com/woodchat/woodchat-backend/internal/api/middleware"
	"github.com/woodchat/woodchat-backend/internal/auth"
	"github.com/woodchat/woodchat-backend/internal/chat"
	"github.com/woodchat/woodchat-backend/internal/relay"
	"github.com/woodchat/woodchat-backend/internal/verification"
)

// Deps bundles the services the HTTP surface is built from.
type Deps struct {
	Auth         *auth.Service
	Chat         *chat.Service
	Relay        *relay.Orchestrator
	Verification *verification.Service
	Log          *logrus.Logger
}

// Setup registers middleware and all routes on the app.
func Setup(app *fiber.App, deps Deps) {
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Verification)
	verifyHandler := handlers.NewVerifyHandler(deps.Verification)
	sessionHandler := handlers.NewSessionHandler(deps.Chat)
	modelHandler := handlers.NewModelHandler(deps.Chat)
	messageHandler := handlers.NewMessageHandler(deps.Chat, deps.Relay, deps.Log)

	requireAuth := middleware.RequireAuth(deps.Auth)

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/password/reset", authHandler.ResetPassword)
	authGroup.Get("/me", requireAuth, authHandler.Me)
	authGroup.Delete("/me", requireAuth, authHandler.Deactivate)
	authGroup.Patch("/password", requireAuth, authHandler.ChangePassword)
	authGroup.Put("/profile", requireAuth, authHandler.UpdateProfile)
	authGroup.Post("/logout", requireAuth, authHandler.Logout)

	verifyGroup := v1.Group("/verify")
	verifyGroup.Get("/email_code", verifyHandler.SendCode)
	verifyGroup.Get("/email_verify", verifyHandler.VerifyEmail)

	sessions := v1.Group("/sessions", requireAuth)
	sessions.Get("/", sessionHandler.List)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Put("/:id", sessionHandler.Update)
	sessions.Delete("/:id", sessionHandler.Delete)

	v1.Get("/models", requireAuth, modelHandler.List)

	messages := v1.Group("/messages", requireAuth)
	messages.Get("/", messageHandler.List)
	messages.Post("/", messageHandler.Create)
	messages.Post("/ai-response", messageHandler.StreamAIResponse)
}
