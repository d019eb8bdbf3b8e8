package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-assessment-api/internal/config"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	AttemptHandler    *handler.AttemptHandler
	GradingHandler    *handler.GradingHandler
	ScoreHandler      *handler.ScoreHandler
	JWTMiddleware     fiber.Handler
	HealthProbes      map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	v2 := app.Group("/api/v2", jwtMiddleware, middleware.RequireUser())

	// Question bank
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(v2)
	}

	// Student attempts
	if deps.AttemptHandler != nil {
		deps.AttemptHandler.Register(v2, middleware.RateLimit("answers", cfg.AnswerRateLimit, time.Second))
	}

	// Tutor grading
	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(v2)
	}

	// Score inputs and final scores
	if deps.ScoreHandler != nil {
		deps.ScoreHandler.Register(v2)
	}
}
