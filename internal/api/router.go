package api

import (
	"strings"

	"pfms/docs"
	"pfms/internal/api/handlers"
	"pfms/pkg/auth"
	"pfms/pkg/config"
	"pfms/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Chat         *handlers.ChatHandler
	Goals        *handlers.GoalHandler
	Transactions *handlers.TransactionHandler
	Gmail        *handlers.GmailHandler
	Dashboard    *handlers.DashboardHandler
	Health       *handlers.HealthHandler
}

// SetupRouter builds the fiber app. A nil jwtManager leaves /api open and
// callers are identified by the userId they send.
func SetupRouter(
	cfg *config.ServerConfig,
	h Handlers,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", h.Health.Health)

	// Google redirects here without a bearer token.
	app.Get("/api/gmail/callback", h.Gmail.Callback)

	api := app.Group("/api")
	if jwtManager != nil {
		appLogger.Info("Bearer authentication enabled")
		api.Use(middleware.AuthMiddleware(jwtManager, appLogger))
	}

	api.Post("/chat", h.Chat.Chat)

	goals := api.Group("/goals")
	goals.Get("", h.Goals.ListGoals)
	goals.Post("", h.Goals.CreateGoal)
	goals.Put("/:id", h.Goals.UpdateGoal)
	goals.Delete("/:id", h.Goals.DeleteGoal)

	api.Get("/transactions", h.Transactions.ListTransactions)
	api.Post("/transactions", h.Transactions.CreateTransaction)
	api.Post("/categorize", h.Transactions.Categorize)
	api.Post("/upload-csv", h.Transactions.UploadCSV)

	api.Get("/gmail-auth-url", h.Gmail.AuthURL)
	api.Get("/gmail-sync", h.Gmail.Sync)

	api.Get("/dashboard", h.Dashboard.Dashboard)

	return app
}
