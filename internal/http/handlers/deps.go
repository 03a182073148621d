package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/events"
	"smarttrack/internal/repos"
	"smarttrack/internal/services"
)

type Deps struct {
	HealthHandler    *HealthHandler
	ProductHandler   *ProductHandler
	CategoryHandler  *CategoryHandler
	ExpenseHandler   *ExpenseHandler
	SaleHandler      *SaleHandler
	AnalyticsHandler *AnalyticsHandler
	DashboardHandler *DashboardHandler
}

// NewDeps wires repos, services and handlers over one store. now is the clock
// used for "today" in the dashboard and for default sale dates.
func NewDeps(db *sqlx.DB, pub events.Publisher, now func() time.Time) *Deps {
	if now == nil {
		now = time.Now
	}
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	expRepo := repos.NewExpenseRepo(db)
	saleRepo := repos.NewSaleRepo(db)
	anaRepo := repos.NewAnalyticsRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	expenseSvc := services.NewExpenseService(expRepo)
	saleSvc := services.NewSaleService(db, prodRepo, saleRepo, pub)
	saleSvc.Now = now
	analyticsSvc := services.NewAnalyticsService(anaRepo)

	return &Deps{
		HealthHandler:    &HealthHandler{DB: db, Now: now},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ExpenseHandler:   &ExpenseHandler{Expenses: expenseSvc},
		SaleHandler:      &SaleHandler{Sales: saleSvc, Now: now},
		AnalyticsHandler: &AnalyticsHandler{Analytics: analyticsSvc, Now: now},
		DashboardHandler: &DashboardHandler{Analytics: analyticsSvc, Catalog: catalogSvc, Sales: saleSvc, Expenses: expenseSvc, Now: now},
	}
}
