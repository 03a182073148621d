package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID                int64     `db:"id"`
	Name              string    `db:"name"`
	Description       *string   `db:"description"`
	CategoryID        *int64    `db:"category_id"`
	UnitOfMeasure     string    `db:"unit_of_measure"`
	CostPriceCents    int64     `db:"cost_price_cents"`
	SellingPriceCents int64     `db:"selling_price_cents"`
	CurrentStock      int       `db:"current_stock"`
	MinimumStockLevel int       `db:"minimum_stock_level"`
	IsActive          bool      `db:"is_active"`
	CreatedAt         timestamp `db:"created_at"`
	UpdatedAt         timestamp `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		CategoryID:        r.CategoryID,
		UnitOfMeasure:     r.UnitOfMeasure,
		CostPrice:         domain.MoneyFromCents(r.CostPriceCents),
		SellingPrice:      domain.MoneyFromCents(r.SellingPriceCents),
		CurrentStock:      r.CurrentStock,
		MinimumStockLevel: r.MinimumStockLevel,
		IsActive:          r.IsActive,
		CreatedAt:         r.CreatedAt.Time,
		UpdatedAt:         r.UpdatedAt.Time,
	}
}

const productColumns = `
	id, name, description, category_id, unit_of_measure, cost_price_cents, selling_price_cents,
	current_stock, minimum_stock_level, is_active, created_at, updated_at`

// List pages through products by id; activeOnly hides deactivated ones.
func (r *ProductRepo) List(ctx context.Context, activeOnly bool, page domain.Page) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY id LIMIT ? OFFSET ?`

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, q, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	if err := r.attachCategories(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.NotFound("product %d not found", id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	out := []domain.Product{row.toDomain()}
	if err := r.attachCategories(ctx, out); err != nil {
		return domain.Product{}, err
	}
	return out[0], nil
}

func (r *ProductRepo) Create(ctx context.Context, in domain.NewProduct) (domain.Product, error) {
	now := timestampNow()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products(
			name, description, category_id, unit_of_measure, cost_price_cents, selling_price_cents,
			current_stock, minimum_stock_level, is_active, created_at, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.Name, in.Description, in.CategoryID, in.UnitOfMeasure, in.CostPrice.Cents(), in.SellingPrice.Cents(),
		in.CurrentStock, in.MinimumStockLevel, in.IsActive, now, now)
	if isForeignKey(err) {
		return domain.Product{}, domain.Invalid("category %d does not exist", *in.CategoryID)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, id)
}

// GetForUpdate reads a product inside tx, locking the row where the store supports it.
// The bool is false when no such product exists.
func (r *ProductRepo) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (domain.Product, bool, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	if tx.DriverName() == DriverMySQL {
		q += ` FOR UPDATE`
	}
	var row productRow
	err := tx.GetContext(ctx, &row, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("lock product %d: %w", id, err)
	}
	return row.toDomain(), true, nil
}

// DecrementStock takes qty units off a product's stock. It reports false, leaving
// the row untouched, when fewer than qty units remain.
func (r *ProductRepo) DecrementStock(ctx context.Context, tx *sqlx.Tx, id int64, qty int) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET current_stock = current_stock - ?, updated_at = ?
		WHERE id = ? AND current_stock >= ?
	`, qty, timestampNow(), id, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock of product %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ProductRepo) attachCategories(ctx context.Context, products []domain.Product) error {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		if p.CategoryID != nil {
			ids = append(ids, *p.CategoryID)
		}
	}
	cats, err := NewCategoryRepo(r.db).ByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].CategoryID == nil {
			continue
		}
		if c, ok := cats[*products[i].CategoryID]; ok {
			products[i].Category = &c
		}
	}
	return nil
}
