// handlers/progression_routes.go
package handlers

import (
	"shiftplay/middleware"
	"shiftplay/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, users *services.UserService, leaderboard *services.LeaderboardService, rewards *services.RewardService) {
	group := app.Group("/api/users", middleware.WalletContextMiddleware())

	group.Post("/connect", func(c *fiber.Ctx) error {
		var body struct {
			WalletAddress string `json:"walletAddress"`
			Username      string `json:"username"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
				"cause": err.Error(),
			})
		}
		// Fall back to the wallet the client identified itself with.
		if body.WalletAddress == "" {
			body.WalletAddress = middleware.WalletFromContext(c)
		}

		user, _, err := users.Connect(c.UserContext(), body.WalletAddress, body.Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(newUserResponse(user))
	})

	// Registered ahead of /:id so "leaderboard" is never read as a user id.
	group.Get("/leaderboard/top", func(c *fiber.Ctx) error {
		metric, err := services.ParseLeaderboardMetric(c.Query("metric"))
		if err != nil {
			return respondError(c, err)
		}
		entries, err := leaderboard.Top(c.UserContext(), metric)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(entries)
	})

	group.Get("/:id", func(c *fiber.Ctx) error {
		user, err := users.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(newUserResponse(user))
	})

	group.Get("/:id/swaps", func(c *fiber.Ctx) error {
		swaps, err := users.ListSwaps(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(swaps)
	})

	group.Get("/:id/rewards", func(c *fiber.Ctx) error {
		list, err := users.ListRewards(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})

	group.Get("/:id/rewards/stream", func(c *fiber.Ctx) error {
		user, err := users.Resolve(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		c.Locals("user_id", user.ID)
		return rewards.StreamUserRewardsSSE(c)
	})
}

func SetupRewardRoutes(app *fiber.App, rewards *services.RewardService) {
	app.Post("/api/rewards/:id/claim", func(c *fiber.Ctx) error {
		reward, err := rewards.Claim(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(reward)
	})
}
