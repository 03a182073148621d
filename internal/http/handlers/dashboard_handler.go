package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
	"smarttrack/internal/services"
	"smarttrack/internal/validate"
)

// DashboardHandler serves the server-rendered pages. The in-progress sale lives
// in the page itself: every form post carries the serialized draft back.
// History pages and the expense form are in history_handler.go.
type DashboardHandler struct {
	Analytics *services.AnalyticsService
	Catalog   *services.CatalogService
	Sales     *services.SaleService
	Expenses  *services.ExpenseService
	Now       func() time.Time
}

var salePaymentMethods = []domain.PaymentMethod{
	domain.PaymentCash, domain.PaymentCard, domain.PaymentBankTransfer, domain.PaymentMobileMoney,
}

// Home renders the dashboard. Aggregation failures degrade the page instead of failing it.
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	now := h.Now()
	data := fiber.Map{"GeneratedAt": now.Format("2006-01-02 15:04")}
	h.recent(c, data)

	sum, err := h.Analytics.DashboardSummary(c.UserContext(), domain.Today(now))
	if err != nil {
		log.Error(c, "dashboard.summary.fail", err, nil)
		data["Degraded"] = true
		return render(c, "dashboard", data)
	}
	profit, err := h.Analytics.ProductProfit(c.UserContext())
	if err != nil {
		log.Error(c, "dashboard.profit.fail", err, nil)
		data["Degraded"] = true
		return render(c, "dashboard", data)
	}
	data["Summary"] = sum
	data["Profit"] = profit
	return render(c, "dashboard", data)
}

func (h *DashboardHandler) NewSale(c *fiber.Ctx) error {
	d := domain.NewSaleDraft(domain.Today(h.Now()))
	return h.renderSaleForm(c, fiber.StatusOK, d, fiber.Map{})
}

// Draft applies one edit (add or remove a line, or just header changes) and re-renders.
func (h *DashboardHandler) Draft(c *fiber.Ctx) error {
	d, err := h.draftFromForm(c)
	if err != nil {
		return h.formError(c, d, err)
	}

	switch c.FormValue("action") {
	case "add":
		id, ok := validate.ID(c.FormValue("product_id"))
		if !ok {
			return h.formError(c, d, domain.Invalid("choose a product"))
		}
		p, err := h.Catalog.GetProduct(c.UserContext(), id)
		if err != nil {
			return h.formError(c, d, err)
		}
		unit := p.SellingPrice
		if raw := strings.TrimSpace(c.FormValue("unit_price")); raw != "" {
			m, ok := validate.Money(raw)
			if !ok {
				return h.formError(c, d, domain.Invalid("unit price must be a non-negative amount"))
			}
			unit = m
		}
		d.AddItem(domain.SaleLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    validate.Qty(c.FormValue("quantity")),
			UnitPrice:   unit,
			CostPrice:   p.CostPrice,
		})
	case "remove":
		i, err := strconv.Atoi(c.FormValue("index"))
		if err != nil || !d.RemoveItem(i) {
			return h.formError(c, d, domain.Invalid("no such line"))
		}
	case "clear":
		d.Items = []domain.SaleLine{}
	}
	return h.renderSaleForm(c, fiber.StatusOK, d, fiber.Map{})
}

// Submit hands the draft to the sale writer. On failure the draft is shown again unchanged.
func (h *DashboardHandler) Submit(c *fiber.Ctx) error {
	d, err := h.draftFromForm(c)
	if err != nil {
		return h.formError(c, d, err)
	}
	s, err := h.Sales.Create(c.UserContext(), d)
	if err != nil {
		return h.formError(c, d, err)
	}
	log.Audit(c, "sale.create", map[string]any{"sale_id": s.ID, "total": s.TotalAmount.String(), "via": "form"})

	fresh := domain.NewSaleDraft(domain.Today(h.Now()))
	return h.renderSaleForm(c, fiber.StatusOK, fresh, fiber.Map{
		"Flash": "Sale #" + strconv.FormatInt(s.ID, 10) + " recorded, total " + s.TotalAmount.String(),
	})
}

// draftFromForm restores the posted draft and applies the header fields.
func (h *DashboardHandler) draftFromForm(c *fiber.Ctx) (domain.SaleDraft, error) {
	today := domain.Today(h.Now())
	d, err := domain.DecodeSaleDraft(c.FormValue("draft"), today)
	if err != nil {
		return domain.NewSaleDraft(today), err
	}

	if raw := c.FormValue("sale_date"); raw != "" {
		day, err := validate.Date(raw, "sale_date")
		if err != nil {
			return d, err
		}
		d.SaleDate = *day
	}
	if pm := c.FormValue("payment_method"); pm != "" {
		d.PaymentMethod = domain.PaymentMethod(pm)
	}
	name, ok := validate.Name(c.FormValue("customer_name"), 200)
	if !ok {
		return d, domain.Invalid("customer name is too long")
	}
	d.CustomerName = name
	notes, ok := validate.Name(c.FormValue("notes"), 1000)
	if !ok {
		return d, domain.Invalid("notes are too long")
	}
	d.Notes = notes
	if d.DiscountAmount, ok = validate.Money(c.FormValue("discount_amount")); !ok {
		return d, domain.Invalid("discount must be a non-negative amount")
	}
	if d.TaxAmount, ok = validate.Money(c.FormValue("tax_amount")); !ok {
		return d, domain.Invalid("tax must be a non-negative amount")
	}
	return d, nil
}

func (h *DashboardHandler) formError(c *fiber.Ctx, d domain.SaleDraft, err error) error {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= fiber.StatusInternalServerError || kind == domain.KindTransactionFailed {
		log.Error(c, "sale.form.fail", err, nil)
	} else {
		log.Security(c, "validation.fail", map[string]any{"action": "sale.form", "kind": kind})
	}
	return h.renderSaleForm(c, status, d, fiber.Map{"Err": publicMessage(err)})
}

func (h *DashboardHandler) renderSaleForm(c *fiber.Ctx, status int, d domain.SaleDraft, data fiber.Map) error {
	products, err := h.Catalog.ListProducts(c.UserContext(), true, domain.Page{Limit: domain.MaxPageLimit})
	if err != nil {
		log.Error(c, "sale.form.products.fail", err, nil)
		data["ProductsUnavailable"] = true
	}
	data["Draft"] = d
	data["DraftJSON"] = d.Encode()
	data["Subtotal"] = d.Subtotal()
	data["Total"] = d.Total()
	data["Products"] = products
	data["PaymentMethods"] = salePaymentMethods
	c.Status(status)
	return render(c, "sale_new", data)
}
