package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/config"
	"alfredoptarigan/cv-analyzer-web/internal/handlers"
	"alfredoptarigan/cv-analyzer-web/internal/observability"
	"alfredoptarigan/cv-analyzer-web/internal/repositories"
	"alfredoptarigan/cv-analyzer-web/internal/services"
	"alfredoptarigan/cv-analyzer-web/internal/views"
)

// Dependencies are the collaborators the web app is built from.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    repositories.ResultStore
	Registry *services.IntakeRegistry
	Client   services.SubmissionClient
	Relay    services.BackendRelay
	Tokens   services.TokenProvider
	Limiter  *services.RateLimiter
	Metrics  *observability.Metrics
}

// New builds the Fiber app with every route registered.
func New(deps Dependencies) (*fiber.App, error) {
	cfg := deps.Config

	engine := views.NewEngine(views.AuthLinks{
		SignIn: cfg.Auth.SignInURL,
		SignUp: cfg.Auth.SignUpURL,
	})
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "CV Checker",
		Immutable:             true,
		ReadTimeout:           cfg.Server.RequestTimeout,
		WriteTimeout:          cfg.Server.RequestTimeout,
		BodyLimit:             int(cfg.Server.MaxFileSize) + 1<<20,
		Views:                 engine,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	session := handlers.SessionMiddleware(cfg.Server.SessionCookie)

	intakeHandler := handlers.NewIntakeHandler(
		deps.Registry,
		deps.Client,
		deps.Store,
		deps.Tokens,
		deps.Limiter,
		deps.Metrics,
		deps.Logger,
		cfg.Server.MaxFileSize,
	)
	resultsHandler := handlers.NewResultsHandler(deps.Store, deps.Tokens, deps.Logger)
	proxyHandler := handlers.NewProxyHandler(deps.Relay, deps.Metrics, deps.Logger)

	// Pages
	app.Get("/", session, intakeHandler.HandleIndex)
	app.Post("/analyze", session, intakeHandler.HandleAnalyze)
	app.Post("/analyze/remove", session, intakeHandler.HandleRemove)
	app.Get("/results", session, resultsHandler.HandleResults)

	api := app.Group("/api")
	api.Get("/intake/state", session, intakeHandler.HandleState)
	api.Post("/analyze-cv", handlers.RateLimit(deps.Limiter, deps.Metrics), proxyHandler.HandleAnalyzeCV)

	// Health check
	api.Get("/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	return app, nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
