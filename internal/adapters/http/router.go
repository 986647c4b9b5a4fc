package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/geoquery/internal/pkg/metrics"
)

const (
	// lookupTimeout bounds registry and gazetteer reads.
	lookupTimeout = 15 * time.Second
	// inferenceTimeout bounds routes that call the language model once.
	inferenceTimeout = 60 * time.Second
	// batchTimeout bounds the synchronous batch parse.
	batchTimeout = 5 * time.Minute
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Parsing (language model bound)
	v1.Post("/parse", timeout.NewWithContext(ParseHandler(deps), inferenceTimeout))
	v1.Post("/parse/batch", timeout.NewWithContext(ParseBatchHandler(deps), batchTimeout))
	v1.Post("/search-area", timeout.NewWithContext(SearchAreaHandler(deps), inferenceTimeout))

	// Asynchronous batches
	v1.Post("/batches", timeout.NewWithContext(SubmitBatchHandler(deps), lookupTimeout))
	v1.Get("/batches/:id", timeout.NewWithContext(GetBatchHandler(deps), lookupTimeout))

	// Geometry
	v1.Post("/transform", timeout.NewWithContext(TransformHandler(deps), lookupTimeout))

	// Relation registry
	v1.Get("/relations", timeout.NewWithContext(ListRelationsHandler(deps), lookupTimeout))
	v1.Get("/relations/describe", timeout.NewWithContext(DescribeRelationsHandler(deps), lookupTimeout))
	v1.Get("/relations/:name", timeout.NewWithContext(GetRelationHandler(deps), lookupTimeout))

	// Gazetteer
	v1.Get("/locations/search", timeout.NewWithContext(SearchLocationsHandler(deps), lookupTimeout))
	v1.Get("/locations/types", timeout.NewWithContext(LocationTypesHandler(deps), lookupTimeout))
	v1.Get("/locations/:id", timeout.NewWithContext(GetLocationHandler(deps), lookupTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
