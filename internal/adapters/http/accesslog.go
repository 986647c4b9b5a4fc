package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Locals keys set by parse handlers for the access log.
const (
	localRelation   = "geoquery.relation"
	localConfidence = "geoquery.confidence"
)

// annotate records the parse outcome so the access log line carries it.
func annotate(c *fiber.Ctx, q *domain.GeoQuery) {
	c.Locals(localRelation, q.SpatialRelation.Relation)
	c.Locals(localConfidence, q.ConfidenceBreakdown.Overall)
}

// AccessLogMiddleware writes one structured line per request through the
// request-scoped logger. Parse routes add the relation and overall
// confidence. 5xx and handler errors log at error, 4xx at warn.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if rel, ok := c.Locals(localRelation).(string); ok {
			attrs = append(attrs, slog.String("relation", rel))
		}
		if conf, ok := c.Locals(localConfidence).(float64); ok {
			attrs = append(attrs, slog.Float64("confidence", conf))
		}

		level := slog.LevelInfo
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		LoggerFromCtx(c.UserContext()).LogAttrs(c.UserContext(), level, method+" "+path, attrs...)
		return err
	}
}
