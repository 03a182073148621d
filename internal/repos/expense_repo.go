package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/domain"
)

type ExpenseRepo struct{ db *sqlx.DB }

func NewExpenseRepo(db *sqlx.DB) *ExpenseRepo { return &ExpenseRepo{db: db} }

type expenseRow struct {
	ID            int64       `db:"id"`
	Description   string      `db:"description"`
	AmountCents   int64       `db:"amount_cents"`
	CategoryID    *int64      `db:"category_id"`
	ExpenseDate   domain.Date `db:"expense_date"`
	PaymentMethod string      `db:"payment_method"`
	VendorName    *string     `db:"vendor_name"`
	ReceiptNumber *string     `db:"receipt_number"`
	Notes         *string     `db:"notes"`
	CreatedAt     timestamp   `db:"created_at"`
	UpdatedAt     timestamp   `db:"updated_at"`
}

func (r expenseRow) toDomain() domain.Expense {
	return domain.Expense{
		ID:            r.ID,
		Description:   r.Description,
		Amount:        domain.MoneyFromCents(r.AmountCents),
		CategoryID:    r.CategoryID,
		ExpenseDate:   r.ExpenseDate,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		VendorName:    r.VendorName,
		ReceiptNumber: r.ReceiptNumber,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
}

const expenseColumns = `
	id, description, amount_cents, category_id, expense_date, payment_method,
	vendor_name, receipt_number, notes, created_at, updated_at`

// dateWhere builds the inclusive date-range clause shared by dated lists.
func dateWhere(col string, rng domain.DateRange) (string, []any) {
	where := ""
	args := []any{}
	if rng.Start != nil {
		where += ` AND ` + col + ` >= ?`
		args = append(args, rng.Start.String())
	}
	if rng.End != nil {
		where += ` AND ` + col + ` <= ?`
		args = append(args, rng.End.String())
	}
	return where, args
}

// List returns expenses newest date first within the inclusive range.
func (r *ExpenseRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Expense, error) {
	where, args := dateWhere("expense_date", f.DateRange)
	q := `SELECT ` + expenseColumns + ` FROM expenses WHERE 1=1` + where + `
		ORDER BY expense_date DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Skip)

	var rows []expenseRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]domain.Expense, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	if err := r.attachCategories(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ExpenseRepo) Get(ctx context.Context, id int64) (domain.Expense, error) {
	var row expenseRow
	err := r.db.GetContext(ctx, &row, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Expense{}, domain.NotFound("expense %d not found", id)
	}
	if err != nil {
		return domain.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	out := []domain.Expense{row.toDomain()}
	if err := r.attachCategories(ctx, out); err != nil {
		return domain.Expense{}, err
	}
	return out[0], nil
}

func (r *ExpenseRepo) Create(ctx context.Context, in domain.NewExpense) (domain.Expense, error) {
	now := timestampNow()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses(
			description, amount_cents, category_id, expense_date, payment_method,
			vendor_name, receipt_number, notes, created_at, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.Description, in.Amount.Cents(), in.CategoryID, in.ExpenseDate, string(in.PaymentMethod),
		in.VendorName, in.ReceiptNumber, in.Notes, now, now)
	if isForeignKey(err) {
		return domain.Expense{}, domain.Invalid("category %d does not exist", *in.CategoryID)
	}
	if err != nil {
		return domain.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Expense{}, err
	}
	return r.Get(ctx, id)
}

func (r *ExpenseRepo) attachCategories(ctx context.Context, expenses []domain.Expense) error {
	ids := make([]int64, 0, len(expenses))
	for _, e := range expenses {
		if e.CategoryID != nil {
			ids = append(ids, *e.CategoryID)
		}
	}
	cats, err := NewCategoryRepo(r.db).ByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range expenses {
		if expenses[i].CategoryID == nil {
			continue
		}
		if c, ok := cats[*expenses[i].CategoryID]; ok {
			expenses[i].Category = &c
		}
	}
	return nil
}
