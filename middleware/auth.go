package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const WalletLocalsKey = "wallet_address"

// WalletContextMiddleware stores the caller's X-Wallet-Address (lowercased)
// in Locals. The address is not verified.
func WalletContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if wallet := strings.ToLower(strings.TrimSpace(c.Get("X-Wallet-Address"))); wallet != "" {
			c.Locals(WalletLocalsKey, wallet)
		}
		return c.Next()
	}
}

// WalletFromContext returns the wallet set by WalletContextMiddleware, or "".
func WalletFromContext(c *fiber.Ctx) string {
	wallet, _ := c.Locals(WalletLocalsKey).(string)
	return wallet
}
