package handlers

import (
	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
	"smarttrack/internal/services"
	"smarttrack/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	page, err := validate.Page(c.Query("skip"), c.Query("limit"))
	if err != nil {
		return apiError(c, "product.list", err)
	}
	activeOnly, ok := validate.Bool(c.Query("active_only"), true)
	if !ok {
		return apiError(c, "product.list", domain.Invalid("active_only must be true or false"))
	}
	out, err := h.Catalog.ListProducts(c.UserContext(), activeOnly, page)
	if err != nil {
		return apiError(c, "product.list", err)
	}
	return c.JSON(out)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "product")
	if err != nil {
		return apiError(c, "product.get", err)
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return apiError(c, "product.get", err)
	}
	return c.JSON(p)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in := domain.DefaultNewProduct()
	if err := bindJSON(c, &in); err != nil {
		return apiError(c, "product.create", err)
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return apiError(c, "product.create", err)
	}
	log.Audit(c, "product.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return c.JSON(p)
}
