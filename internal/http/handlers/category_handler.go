package handlers

import (
	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
	"smarttrack/internal/services"
	"smarttrack/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	page, err := validate.Page(c.Query("skip"), c.Query("limit"))
	if err != nil {
		return apiError(c, "category.list", err)
	}
	typ, ok := validate.CategoryType(c.Query("category_type"))
	if !ok {
		return apiError(c, "category.list", domain.Invalid("category_type must be one of expense, product"))
	}
	out, err := h.Catalog.ListCategories(c.UserContext(), typ, page)
	if err != nil {
		return apiError(c, "category.list", err)
	}
	return c.JSON(out)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in domain.NewCategory
	if err := bindJSON(c, &in); err != nil {
		return apiError(c, "category.create", err)
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return apiError(c, "category.create", err)
	}
	log.Audit(c, "category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.JSON(cat)
}
