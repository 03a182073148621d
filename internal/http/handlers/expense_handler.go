package handlers

import (
	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
	"smarttrack/internal/services"
)

type ExpenseHandler struct {
	Expenses *services.ExpenseService
}

func (h *ExpenseHandler) List(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return apiError(c, "expense.list", err)
	}
	out, err := h.Expenses.List(c.UserContext(), f)
	if err != nil {
		return apiError(c, "expense.list", err)
	}
	return c.JSON(out)
}

func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	in := domain.DefaultNewExpense()
	if err := bindJSON(c, &in); err != nil {
		return apiError(c, "expense.create", err)
	}
	e, err := h.Expenses.Create(c.UserContext(), in)
	if err != nil {
		return apiError(c, "expense.create", err)
	}
	log.Audit(c, "expense.create", map[string]any{"expense_id": e.ID, "amount": e.Amount.String()})
	return c.JSON(e)
}
