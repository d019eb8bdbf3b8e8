package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// HeaderServerTime exposes the authoritative server clock so clients can
// correct their countdown for local clock skew.
const HeaderServerTime = "X-Server-Time"

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
	// AllowOrigins is the CORS origin list; empty allows every origin.
	AllowOrigins string
	Now          func() time.Time
}

// Register attaches the middlewares shared by every route.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}
	origins := cfg.AllowOrigins
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(ServerTime(cfg.Now))
	app.Use(Observability(requestLogger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + HeaderCorrelationID,
		AllowMethods:  "GET,POST,PUT,OPTIONS",
		ExposeHeaders: HeaderCorrelationID + ", " + HeaderServerTime,
	}))
}

// ServerTime stamps every response with the server clock in RFC 3339 UTC.
func ServerTime(now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		c.Set(HeaderServerTime, now().UTC().Format(time.RFC3339Nano))
		return c.Next()
	}
}
