package handlers

import (
	"errors"

	"shiftplay/models"
	"shiftplay/pkg/apperrors"
	"shiftplay/pkg/logger"
	"shiftplay/services"

	"github.com/gofiber/fiber/v2"
)

// respondError writes {"error", "cause"} with the status the error maps to.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	body := fiber.Map{"error": err.Error()}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if cause := appErr.Cause(); cause != "" {
			body["cause"] = cause
		}
	}
	if status >= fiber.StatusInternalServerError {
		logger.Errorf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}

type userResponse struct {
	*models.User
	Tier string `json:"tier"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{User: u, Tier: services.LevelTier(u.Level)}
}
