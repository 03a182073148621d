package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"smarttrack/internal/domain"
	"smarttrack/internal/repos"
)

type MetricBlock struct {
	TotalSales    domain.Money `json:"total_sales"`
	TotalExpenses domain.Money `json:"total_expenses"`
	NetProfit     domain.Money `json:"net_profit"`
	ProfitMargin  float64      `json:"profit_margin"`
}

func newMetricBlock(sales, expenses domain.Money) MetricBlock {
	net := sales.Sub(expenses)
	return MetricBlock{
		TotalSales:    sales,
		TotalExpenses: expenses,
		NetProfit:     net,
		ProfitMargin:  domain.MarginPercent(net, sales),
	}
}

type DashboardMetrics struct {
	Today     MetricBlock `json:"today"`
	ThisMonth MetricBlock `json:"this_month"`
}

type DashboardAlerts struct {
	LowStockProducts int64 `json:"low_stock_products"`
	RecentSalesCount int64 `json:"recent_sales_count"`
}

type DashboardSummary struct {
	Metrics DashboardMetrics `json:"metrics"`
	Alerts  DashboardAlerts  `json:"alerts"`
}

type ProductProfit struct {
	ID                     int64        `json:"id"`
	Name                   string       `json:"name"`
	CategoryName           string       `json:"category_name"`
	TotalQuantitySold      int64        `json:"total_quantity_sold"`
	TotalRevenue           domain.Money `json:"total_revenue"`
	TotalCost              domain.Money `json:"total_cost"`
	TotalProfit            domain.Money `json:"total_profit"`
	ProfitMarginPercentage float64      `json:"profit_margin_percentage"`
}

// AnalyticsService derives read-only summaries; it never writes and never caches.
type AnalyticsService struct {
	Repo *repos.AnalyticsRepo
}

func NewAnalyticsService(repo *repos.AnalyticsRepo) *AnalyticsService {
	return &AnalyticsService{Repo: repo}
}

// DashboardSummary reports today's and this month's (first of month through today)
// sales, expenses and net profit, plus stock and activity alerts.
func (s *AnalyticsService) DashboardSummary(ctx context.Context, today domain.Date) (DashboardSummary, error) {
	monthStart := today.MonthStart()

	var (
		todaySales, todayExpenses domain.Money
		monthSales, monthExpenses domain.Money
		lowStock, salesToday      int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		todaySales, err = s.Repo.SumSales(gctx, today, today)
		return err
	})
	g.Go(func() (err error) {
		todayExpenses, err = s.Repo.SumExpenses(gctx, today, today)
		return err
	})
	g.Go(func() (err error) {
		monthSales, err = s.Repo.SumSales(gctx, monthStart, today)
		return err
	})
	g.Go(func() (err error) {
		monthExpenses, err = s.Repo.SumExpenses(gctx, monthStart, today)
		return err
	})
	g.Go(func() (err error) {
		lowStock, err = s.Repo.CountLowStock(gctx)
		return err
	})
	g.Go(func() (err error) {
		salesToday, err = s.Repo.CountSalesOn(gctx, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, domain.Wrap(domain.KindUpstreamUnavailable, err, "dashboard data unavailable")
	}

	return DashboardSummary{
		Metrics: DashboardMetrics{
			Today:     newMetricBlock(todaySales, todayExpenses),
			ThisMonth: newMetricBlock(monthSales, monthExpenses),
		},
		Alerts: DashboardAlerts{LowStockProducts: lowStock, RecentSalesCount: salesToday},
	}, nil
}

// ProductProfit lists every product exactly once with lifetime revenue, cost and margin.
func (s *AnalyticsService) ProductProfit(ctx context.Context) ([]ProductProfit, error) {
	rows, err := s.Repo.ProductProfitRows(ctx)
	if err != nil {
		return nil, domain.Wrap(domain.KindUpstreamUnavailable, err, "product profit data unavailable")
	}
	out := make([]ProductProfit, 0, len(rows))
	for _, r := range rows {
		revenue := domain.MoneyFromCents(r.RevenueCents)
		cost := domain.MoneyFromCents(r.CostCents)
		profit := revenue.Sub(cost)
		category := domain.UncategorizedName
		if r.CategoryName != nil && *r.CategoryName != "" {
			category = *r.CategoryName
		}
		out = append(out, ProductProfit{
			ID:                     r.ID,
			Name:                   r.Name,
			CategoryName:           category,
			TotalQuantitySold:      r.QuantitySold,
			TotalRevenue:           revenue,
			TotalCost:              cost,
			TotalProfit:            profit,
			ProfitMarginPercentage: domain.MarginPercent(profit, revenue),
		})
	}
	return out, nil
}
