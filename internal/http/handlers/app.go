package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/google/uuid"

	"smarttrack/internal/config"
	"smarttrack/internal/log"
)

// NewApp builds the HTTP surface: middleware, JSON API and pages.
func NewApp(d *Deps, cfg config.Config) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(fiberrecover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(helmet.New())

	csrfMW := csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	})
	writer := RequireWriter(cfg)

	// ---------- Health ----------
	app.Get("/health", d.HealthHandler.Health)
	app.Get("/api", d.HealthHandler.Banner)

	// ---------- Pages ----------
	app.Get("/", csrfMW, func(c *fiber.Ctx) error {
		if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
			return d.HealthHandler.Banner(c)
		}
		return d.DashboardHandler.Home(c)
	})
	app.Get("/sales/new", csrfMW, d.DashboardHandler.NewSale)
	app.Post("/sales/draft", csrfMW, d.DashboardHandler.Draft)
	app.Post("/sales/submit", writer, csrfMW, d.DashboardHandler.Submit)
	app.Get("/sales", d.DashboardHandler.SalesHistory)
	app.Get("/expenses", d.DashboardHandler.ExpenseHistory)
	app.Get("/expenses/new", csrfMW, d.DashboardHandler.NewExpense)
	app.Post("/expenses/new", writer, csrfMW, d.DashboardHandler.SubmitExpense)

	// ---------- API ----------
	apiMW := []fiber.Handler{cors.New()}
	if cfg.RateLimitPerMin > 0 {
		apiMW = append(apiMW, limiter.New(limiter.Config{
			Max:        cfg.RateLimitPerMin,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				log.Security(c, "rate.api.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(errorBody{Error: errorDetail{
					Kind: "rate_limited", Message: "rate limit exceeded, retry soon",
				}})
			},
		}))
	}
	api := app.Group("/api/v1", apiMW...)

	products := api.Group("/products")
	// categories first: "/:id" would otherwise swallow them
	products.Get("/categories", d.CategoryHandler.List)
	products.Post("/categories", writer, d.CategoryHandler.Create)
	products.Get("/", d.ProductHandler.List)
	products.Post("/", writer, d.ProductHandler.Create)
	products.Get("/:id", d.ProductHandler.Get)

	sales := api.Group("/sales")
	sales.Get("/", d.SaleHandler.List)
	sales.Post("/", writer, d.SaleHandler.Create)
	sales.Get("/:id", d.SaleHandler.Get)

	expenses := api.Group("/expenses")
	expenses.Get("/", d.ExpenseHandler.List)
	expenses.Post("/", writer, d.ExpenseHandler.Create)

	analytics := api.Group("/analytics")
	analytics.Get("/dashboard/summary", d.AnalyticsHandler.DashboardSummary)
	analytics.Get("/products/profit", d.AnalyticsHandler.ProductProfit)

	app.Use(NotFound)
	return app
}
