package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
	"smarttrack/internal/validate"
)

// recentLimit is how many sales and expenses the dashboard lists.
const recentLimit = 5

var expensePaymentMethods = []domain.PaymentMethod{
	domain.PaymentCash, domain.PaymentCard, domain.PaymentBankTransfer, domain.PaymentCheck,
}

// historyTotals summarizes one page of a history table.
type historyTotals struct {
	Total    domain.Money
	Count    int
	Average  domain.Money
	Discount domain.Money
}

func (t *historyTotals) finish() {
	if t.Count > 0 {
		t.Average = domain.NewMoney(t.Total.Div(decimal.NewFromInt(int64(t.Count))).Round(2))
	}
}

// recent fills the dashboard's latest sales and expenses. Each list degrades on its own.
func (h *DashboardHandler) recent(c *fiber.Ctx, data fiber.Map) {
	f := domain.ListFilter{Page: domain.Page{Limit: recentLimit}}
	if sales, err := h.Sales.List(c.UserContext(), f); err != nil {
		log.Error(c, "dashboard.recent.fail", err, map[string]any{"list": "sales"})
		data["RecentSalesUnavailable"] = true
	} else {
		data["RecentSales"] = sales
	}
	if expenses, err := h.Expenses.List(c.UserContext(), f); err != nil {
		log.Error(c, "dashboard.recent.fail", err, map[string]any{"list": "expenses"})
		data["RecentExpensesUnavailable"] = true
	} else {
		data["RecentExpenses"] = expenses
	}
}

// SalesHistory lists sales for the optional date window, newest first.
func (h *DashboardHandler) SalesHistory(c *fiber.Ctx) error {
	data := fiber.Map{"Title": "Sales", "StartDate": c.Query("start_date"), "EndDate": c.Query("end_date")}
	f, err := listFilter(c)
	if err != nil {
		return h.historyError(c, "sales", "sale.history", data, err)
	}
	sales, err := h.Sales.List(c.UserContext(), f)
	if err != nil {
		return h.historyError(c, "sales", "sale.history", data, err)
	}
	var t historyTotals
	for _, s := range sales {
		t.Total = t.Total.Add(s.TotalAmount)
		t.Discount = t.Discount.Add(s.DiscountAmount)
		t.Count++
	}
	t.finish()
	data["Sales"] = sales
	data["Totals"] = t
	return render(c, "sales", data)
}

// ExpenseHistory lists expenses for the optional date window, newest first.
func (h *DashboardHandler) ExpenseHistory(c *fiber.Ctx) error {
	data := fiber.Map{"Title": "Expenses", "StartDate": c.Query("start_date"), "EndDate": c.Query("end_date")}
	f, err := listFilter(c)
	if err != nil {
		return h.historyError(c, "expenses", "expense.history", data, err)
	}
	expenses, err := h.Expenses.List(c.UserContext(), f)
	if err != nil {
		return h.historyError(c, "expenses", "expense.history", data, err)
	}
	var t historyTotals
	for _, e := range expenses {
		t.Total = t.Total.Add(e.Amount)
		t.Count++
	}
	t.finish()
	data["Expenses"] = expenses
	data["Totals"] = t
	return render(c, "expenses", data)
}

func (h *DashboardHandler) historyError(c *fiber.Ctx, tmpl, action string, data fiber.Map, err error) error {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= fiber.StatusInternalServerError {
		log.Error(c, action+".fail", err, nil)
	} else {
		log.Security(c, "validation.fail", map[string]any{"action": action, "kind": kind})
	}
	data["Err"] = publicMessage(err)
	c.Status(status)
	return render(c, tmpl, data)
}

func (h *DashboardHandler) NewExpense(c *fiber.Ctx) error {
	in := domain.DefaultNewExpense()
	in.ExpenseDate = domain.Today(h.Now())
	return h.renderExpenseForm(c, fiber.StatusOK, in, fiber.Map{})
}

// SubmitExpense records one expense from the form. On failure the entered values are shown again.
func (h *DashboardHandler) SubmitExpense(c *fiber.Ctx) error {
	in, err := h.expenseFromForm(c)
	if err != nil {
		return h.expenseFormError(c, in, err)
	}
	e, err := h.Expenses.Create(c.UserContext(), in)
	if err != nil {
		return h.expenseFormError(c, in, err)
	}
	log.Audit(c, "expense.create", map[string]any{"expense_id": e.ID, "amount": e.Amount.String(), "via": "form"})

	fresh := domain.DefaultNewExpense()
	fresh.ExpenseDate = domain.Today(h.Now())
	return h.renderExpenseForm(c, fiber.StatusOK, fresh, fiber.Map{
		"Flash": "Expense #" + strconv.FormatInt(e.ID, 10) + " recorded, amount " + e.Amount.String(),
	})
}

// expenseFromForm reads the posted fields. Whatever parsed is returned even on error.
func (h *DashboardHandler) expenseFromForm(c *fiber.Ctx) (domain.NewExpense, error) {
	in := domain.DefaultNewExpense()
	in.ExpenseDate = domain.Today(h.Now())
	in.Description = c.FormValue("description")

	if pm := c.FormValue("payment_method"); pm != "" {
		in.PaymentMethod = domain.PaymentMethod(pm)
	}
	if raw := c.FormValue("category_id"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return in, domain.Invalid("choose a valid category")
		}
		in.CategoryID = &id
	}
	var ok bool
	if in.VendorName, ok = validate.Name(c.FormValue("vendor_name"), 200); !ok {
		return in, domain.Invalid("vendor name is too long")
	}
	if in.ReceiptNumber, ok = validate.Name(c.FormValue("receipt_number"), 100); !ok {
		return in, domain.Invalid("receipt number is too long")
	}
	if in.Notes, ok = validate.Name(c.FormValue("notes"), 1000); !ok {
		return in, domain.Invalid("notes are too long")
	}
	if raw := c.FormValue("expense_date"); raw != "" {
		day, err := validate.Date(raw, "expense_date")
		if err != nil {
			return in, err
		}
		in.ExpenseDate = *day
	}
	if in.Amount, ok = validate.Money(c.FormValue("amount")); !ok {
		return in, domain.Invalid("amount must be a positive amount")
	}
	return in, nil
}

func (h *DashboardHandler) expenseFormError(c *fiber.Ctx, in domain.NewExpense, err error) error {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= fiber.StatusInternalServerError {
		log.Error(c, "expense.form.fail", err, nil)
	} else {
		log.Security(c, "validation.fail", map[string]any{"action": "expense.form", "kind": kind})
	}
	return h.renderExpenseForm(c, status, in, fiber.Map{"Err": publicMessage(err)})
}

func (h *DashboardHandler) renderExpenseForm(c *fiber.Ctx, status int, in domain.NewExpense, data fiber.Map) error {
	typ := domain.CategoryExpense
	cats, err := h.Catalog.ListCategories(c.UserContext(), &typ, domain.Page{Limit: domain.MaxPageLimit})
	if err != nil {
		log.Error(c, "expense.form.categories.fail", err, nil)
		data["CategoriesUnavailable"] = true
	}
	var catID int64
	if in.CategoryID != nil {
		catID = *in.CategoryID
	}
	data["Title"] = "Record expense"
	data["Expense"] = in
	data["CategoryID"] = catID
	data["Categories"] = cats
	data["PaymentMethods"] = expensePaymentMethods
	c.Status(status)
	return render(c, "expense_new", data)
}
