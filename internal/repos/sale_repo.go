package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/domain"
)

type SaleRepo struct{ db *sqlx.DB }

func NewSaleRepo(db *sqlx.DB) *SaleRepo { return &SaleRepo{db: db} }

type saleRow struct {
	ID                  int64       `db:"id"`
	SaleDate            domain.Date `db:"sale_date"`
	TotalAmountCents    int64       `db:"total_amount_cents"`
	PaymentMethod       string      `db:"payment_method"`
	CustomerName        *string     `db:"customer_name"`
	DiscountAmountCents int64       `db:"discount_amount_cents"`
	TaxAmountCents      int64       `db:"tax_amount_cents"`
	Notes               *string     `db:"notes"`
	CreatedAt           timestamp   `db:"created_at"`
	UpdatedAt           timestamp   `db:"updated_at"`
}

func (r saleRow) toDomain() domain.Sale {
	return domain.Sale{
		ID:             r.ID,
		SaleDate:       r.SaleDate,
		TotalAmount:    domain.MoneyFromCents(r.TotalAmountCents),
		PaymentMethod:  domain.PaymentMethod(r.PaymentMethod),
		CustomerName:   r.CustomerName,
		DiscountAmount: domain.MoneyFromCents(r.DiscountAmountCents),
		TaxAmount:      domain.MoneyFromCents(r.TaxAmountCents),
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
		SaleItems:      []domain.SaleItem{},
	}
}

type saleItemRow struct {
	ID              int64     `db:"id"`
	SaleID          int64     `db:"sale_id"`
	ProductID       int64     `db:"product_id"`
	Quantity        int       `db:"quantity"`
	UnitPriceCents  int64     `db:"unit_price_cents"`
	CostPriceCents  int64     `db:"cost_price_cents"`
	TotalPriceCents int64     `db:"total_price_cents"`
	CreatedAt       timestamp `db:"created_at"`
}

func (r saleItemRow) toDomain() domain.SaleItem {
	return domain.SaleItem{
		ID:         r.ID,
		SaleID:     r.SaleID,
		ProductID:  r.ProductID,
		Quantity:   r.Quantity,
		UnitPrice:  domain.MoneyFromCents(r.UnitPriceCents),
		CostPrice:  domain.MoneyFromCents(r.CostPriceCents),
		TotalPrice: domain.MoneyFromCents(r.TotalPriceCents),
		CreatedAt:  r.CreatedAt.Time,
	}
}

const saleColumns = `
	id, sale_date, total_amount_cents, payment_method, customer_name, discount_amount_cents,
	tax_amount_cents, notes, created_at, updated_at`

const saleItemColumns = `
	id, sale_id, product_id, quantity, unit_price_cents, cost_price_cents, total_price_cents, created_at`

// InsertHeader writes the sale header inside tx and returns its new id.
func (r *SaleRepo) InsertHeader(ctx context.Context, tx *sqlx.Tx, s domain.Sale) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales(
			sale_date, total_amount_cents, payment_method, customer_name, discount_amount_cents,
			tax_amount_cents, notes, created_at, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.SaleDate, s.TotalAmount.Cents(), string(s.PaymentMethod), s.CustomerName,
		s.DiscountAmount.Cents(), s.TaxAmount.Cents(), s.Notes,
		s.CreatedAt.UTC().Format(timestampLayout), s.UpdatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}
	return res.LastInsertId()
}

// InsertItem writes one line of a sale inside tx and returns its new id.
func (r *SaleRepo) InsertItem(ctx context.Context, tx *sqlx.Tx, it domain.SaleItem) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sale_items(
			sale_id, product_id, quantity, unit_price_cents, cost_price_cents, total_price_cents, created_at
		) VALUES(?, ?, ?, ?, ?, ?, ?)
	`, it.SaleID, it.ProductID, it.Quantity, it.UnitPrice.Cents(), it.CostPrice.Cents(), it.TotalPrice.Cents(),
		it.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("insert sale item: %w", err)
	}
	return res.LastInsertId()
}

// Get returns a sale with its line items.
func (r *SaleRepo) Get(ctx context.Context, id int64) (domain.Sale, error) {
	var row saleRow
	err := r.db.GetContext(ctx, &row, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, domain.NotFound("sale %d not found", id)
	}
	if err != nil {
		return domain.Sale{}, fmt.Errorf("get sale %d: %w", id, err)
	}
	out := []domain.Sale{row.toDomain()}
	if err := r.attachItems(ctx, out); err != nil {
		return domain.Sale{}, err
	}
	return out[0], nil
}

// List returns sales newest date first within the inclusive range, items included.
func (r *SaleRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Sale, error) {
	where, args := dateWhere("sale_date", f.DateRange)
	q := `SELECT ` + saleColumns + ` FROM sales WHERE 1=1` + where + `
		ORDER BY sale_date DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Skip)

	var rows []saleRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SaleRepo) attachItems(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]int64, len(sales))
	pos := make(map[int64]int, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		pos[s.ID] = i
	}
	q, args, err := sqlx.In(`SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var rows []saleItemRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("load sale items: %w", err)
	}
	for _, row := range rows {
		i := pos[row.SaleID]
		sales[i].SaleItems = append(sales[i].SaleItems, row.toDomain())
	}
	return nil
}
