package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"smarttrack/internal/repos"
)

const (
	serviceName = "SmartTrack Backend"
	version     = "1.0.0"
)

type HealthHandler struct {
	DB  *sqlx.DB
	Now func() time.Time
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := repos.Ping(ctx, h.DB); err != nil {
		return apiError(c, "health", err)
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": h.Now().Format(time.RFC3339),
		"version":   version,
		"service":   serviceName,
	})
}

func (h *HealthHandler) Banner(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "SmartTrack Business Analytics API",
		"version": version,
		"health":  "/health",
	})
}
