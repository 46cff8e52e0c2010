package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/errs"
)

// respondError maps err onto a status and {"error": ...} body.
func respondError(c *fiber.Ctx, err error) error {
	status := errs.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"component": "http",
			"method":    c.Method(),
			"path":      c.Path(),
		}).WithError(err).Error("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"error": errs.PublicMessage(err),
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
	})
}
