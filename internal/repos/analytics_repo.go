package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/domain"
)

// AnalyticsRepo holds the read-only aggregate queries behind the dashboard.
type AnalyticsRepo struct{ db *sqlx.DB }

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// SumSales totals sale amounts with sale_date in [from, to].
func (r *AnalyticsRepo) SumSales(ctx context.Context, from, to domain.Date) (domain.Money, error) {
	var cents int64
	err := r.db.GetContext(ctx, &cents, `
		SELECT COALESCE(SUM(total_amount_cents), 0)
		FROM sales
		WHERE sale_date >= ? AND sale_date <= ?
	`, from.String(), to.String())
	if err != nil {
		return domain.Money{}, fmt.Errorf("sum sales: %w", err)
	}
	return domain.MoneyFromCents(cents), nil
}

// SumExpenses totals expense amounts with expense_date in [from, to].
func (r *AnalyticsRepo) SumExpenses(ctx context.Context, from, to domain.Date) (domain.Money, error) {
	var cents int64
	err := r.db.GetContext(ctx, &cents, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE expense_date >= ? AND expense_date <= ?
	`, from.String(), to.String())
	if err != nil {
		return domain.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return domain.MoneyFromCents(cents), nil
}

// CountLowStock counts active products at or below their minimum stock level.
func (r *AnalyticsRepo) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM products
		WHERE is_active = 1 AND current_stock <= minimum_stock_level
	`)
	if err != nil {
		return 0, fmt.Errorf("count low stock: %w", err)
	}
	return n, nil
}

func (r *AnalyticsRepo) CountSalesOn(ctx context.Context, day domain.Date) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sales WHERE sale_date = ?`, day.String()); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

// ProductProfitRow is the raw per-product aggregate; CategoryName is nil for uncategorized products.
type ProductProfitRow struct {
	ID           int64   `db:"id"`
	Name         string  `db:"name"`
	CategoryName *string `db:"category_name"`
	QuantitySold int64   `db:"total_quantity_sold"`
	RevenueCents int64   `db:"total_revenue_cents"`
	CostCents    int64   `db:"total_cost_cents"`
}

// ProductProfitRows returns exactly one row per product, including products that never sold.
func (r *AnalyticsRepo) ProductProfitRows(ctx context.Context) ([]ProductProfitRow, error) {
	var out []ProductProfitRow
	err := r.db.SelectContext(ctx, &out, `
		SELECT
			p.id,
			p.name,
			c.name AS category_name,
			COALESCE(SUM(si.quantity), 0) AS total_quantity_sold,
			COALESCE(SUM(si.total_price_cents), 0) AS total_revenue_cents,
			COALESCE(SUM(si.cost_price_cents * si.quantity), 0) AS total_cost_cents
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN sale_items si ON si.product_id = p.id
		GROUP BY p.id, p.name, c.name
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("product profit: %w", err)
	}
	return out, nil
}
