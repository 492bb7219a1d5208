package handlers

import (
	"shiftplay/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func SetupSystemRoutes(app *fiber.App) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"ok":      true,
			"service": "shiftplay-server",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}
