package middleware

import (
	"strings"

	"stockfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string // exact origins; "*" allows any
}

// CORS allows requests from the configured origins and answers their
// preflights. Requests without an Origin header pass through.
func CORS(cfg CORSConfig) fiber.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAny = true
		}
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = true
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		if !allowAny && !allowed[strings.ToLower(origin)] {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, nil)
		}
		setCORSHeaders(c, origin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, X-Trace-Id")
	c.Set(fiber.HeaderAccessControlExposeHeaders, traceIDHeader)
	c.Vary(fiber.HeaderOrigin)
}
