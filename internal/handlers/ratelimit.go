package handlers

import (
	"net"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-analyzer-web/internal/models"
	"alfredoptarigan/cv-analyzer-web/internal/observability"
	"alfredoptarigan/cv-analyzer-web/internal/services"
)

// RateLimit refuses clients that exceed their token bucket. Loopback callers
// are the app's own submission client, already limited per session at
// POST /analyze.
func RateLimit(limiter *services.RateLimiter, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if isLoopback(ip) || limiter.Allow(ip) {
			return c.Next()
		}

		metrics.RateLimited.Inc()
		return c.Status(fiber.StatusTooManyRequests).JSON(models.RelayError{
			Error:   "Too many requests",
			Details: "rate limit exceeded, try again later",
			Status:  fiber.StatusTooManyRequests,
		})
	}
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
