package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/services"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
	Now       func() time.Time
}

type dashboardResponse struct {
	services.DashboardSummary
	GeneratedAt time.Time `json:"generated_at"`
}

func (h *AnalyticsHandler) DashboardSummary(c *fiber.Ctx) error {
	now := h.Now()
	sum, err := h.Analytics.DashboardSummary(c.UserContext(), domain.Today(now))
	if err != nil {
		return apiError(c, "analytics.dashboard", err)
	}
	return c.JSON(dashboardResponse{DashboardSummary: sum, GeneratedAt: now})
}

func (h *AnalyticsHandler) ProductProfit(c *fiber.Ctx) error {
	rows, err := h.Analytics.ProductProfit(c.UserContext())
	if err != nil {
		return apiError(c, "analytics.profit", err)
	}
	return c.JSON(fiber.Map{"data": rows})
}
