package middleware

import (
	"crypto/subtle"
	"strings"

	"shiftplay/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// WebhookAuthMiddleware checks the shared secret on settlement callbacks,
// sent as "Authorization: Bearer <secret>" or "X-Webhook-Secret".
// An empty secret disables the check.
func WebhookAuthMiddleware(secret string) fiber.Handler {
	if secret == "" {
		logger.Warn("⚠️  WEBHOOK_SECRET not set, settlement webhook is unauthenticated")
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		token := c.Get("X-Webhook-Secret")
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.Get("Authorization"), "Bearer "))
		}
		if token == "" {
			logger.Warnf("🚫 [WEBHOOK_AUTH] missing secret for %s from %s", c.Path(), c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "webhook secret missing",
			})
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			logger.Warnf("❌ [WEBHOOK_AUTH] invalid secret for %s from %s", c.Path(), c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "invalid webhook secret",
			})
		}
		return c.Next()
	}
}
