package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/relations"):
			ttl = "public, max-age=3600" // registry only changes on restart

		case path == "/v1/locations/types":
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/locations/search"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/locations/"):
			ttl = "public, max-age=600"

		case strings.HasPrefix(path, "/v1/batches/"):
			ttl = "private, max-age=0"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
