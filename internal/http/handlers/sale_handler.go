package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
	"smarttrack/internal/services"
)

type SaleHandler struct {
	Sales *services.SaleService
	Now   func() time.Time
}

func (h *SaleHandler) List(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return apiError(c, "sale.list", err)
	}
	out, err := h.Sales.List(c.UserContext(), f)
	if err != nil {
		return apiError(c, "sale.list", err)
	}
	return c.JSON(out)
}

func (h *SaleHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "sale")
	if err != nil {
		return apiError(c, "sale.get", err)
	}
	s, err := h.Sales.Get(c.UserContext(), id)
	if err != nil {
		return apiError(c, "sale.get", err)
	}
	return c.JSON(s)
}

// Create records a sale from a JSON draft; sale_date defaults to today.
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	draft := domain.NewSaleDraft(domain.Today(h.Now()))
	if err := bindJSON(c, &draft); err != nil {
		return apiError(c, "sale.create", err)
	}
	s, err := h.Sales.Create(c.UserContext(), draft)
	if err != nil {
		return apiError(c, "sale.create", err)
	}
	log.Audit(c, "sale.create", map[string]any{
		"sale_id": s.ID, "total": s.TotalAmount.String(), "items": len(s.SaleItems),
	})
	return c.JSON(s)
}
