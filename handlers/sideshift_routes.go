package handlers

import (
	"context"
	"time"

	"shiftplay/middleware"
	"shiftplay/pkg/logger"
	"shiftplay/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const archiveTimeout = 5 * time.Second

// WebhookArchiver stores raw settlement callbacks. Optional.
type WebhookArchiver interface {
	ArchiveWebhook(ctx context.Context, orderID string, body []byte, at time.Time) (string, error)
}

type webhookPayload struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	SettleAmount string `json:"settleAmount"`
}

func SetupSideShiftRoutes(app *fiber.App, swaps *services.SwapService, settlement *services.SettlementService, archiver WebhookArchiver, webhookSecret string) {
	group := app.Group("/api/sideshift")

	group.Get("/coins", func(c *fiber.Ctx) error {
		coins, err := swaps.Coins(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(coins)
	})

	group.Get("/pairs", func(c *fiber.Ctx) error {
		pairs, err := swaps.Pairs(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(pairs)
	})

	group.Post("/quote", func(c *fiber.Ctx) error {
		var req services.QuoteRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
				"cause": err.Error(),
			})
		}
		quote, err := swaps.Quote(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quote)
	})

	group.Post("/order", middleware.WalletContextMiddleware(), func(c *fiber.Ctx) error {
		var req services.PlaceOrderRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" && req.UserWallet == "" {
			req.UserWallet = middleware.WalletFromContext(c)
		}

		order, swap, err := swaps.PlaceOrder(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"order":  order,
			"swapId": swap.ID,
		})
	})

	group.Get("/order/:id", func(c *fiber.Ctx) error {
		order, err := swaps.GetOrder(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(order)
	})

	group.Post("/webhook", middleware.WebhookAuthMiddleware(webhookSecret), func(c *fiber.Ctx) error {
		var payload webhookPayload
		if err := c.BodyParser(&payload); err != nil || payload.ID == "" {
			logger.Warnf("[WEBHOOK] rejected callback without order id from %s", c.IP())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false})
		}

		fields := logrus.Fields{"order_id": payload.ID, "status": payload.Status}

		if archiver != nil {
			// fasthttp reuses the body buffer after the handler returns.
			body := append([]byte(nil), c.Body()...)
			ctx, cancel := context.WithTimeout(c.UserContext(), archiveTimeout)
			key, err := archiver.ArchiveWebhook(ctx, payload.ID, body, time.Now())
			cancel()
			if err != nil {
				logger.WithFields(fields).Warnf("[WEBHOOK] archive failed: %v", err)
			} else {
				logger.WithFields(fields).Debugf("[WEBHOOK] archived to %s", key)
			}
		}

		result, err := settlement.HandleNotification(c.UserContext(), services.Notification{
			OrderID:      payload.ID,
			Status:       payload.Status,
			SettleAmount: payload.SettleAmount,
		})
		if err != nil {
			// Acknowledge anyway so the notifier does not retry a poison callback.
			logger.WithFields(fields).Errorf("[WEBHOOK] settlement failed: %v", err)
			return c.JSON(fiber.Map{"ok": true})
		}

		logger.WithFields(fields).WithField("outcome", result.Outcome).Info("[WEBHOOK] 📬 processed")
		return c.JSON(fiber.Map{"ok": true})
	})
}
