package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

type categoryRow struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Description  *string   `db:"description"`
	CategoryType string    `db:"category_type"`
	CreatedAt    timestamp `db:"created_at"`
	UpdatedAt    timestamp `db:"updated_at"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		CategoryType: domain.CategoryType(r.CategoryType),
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

const categoryColumns = `id, name, description, category_type, created_at, updated_at`

// List returns categories ordered by name, optionally narrowed to one type.
func (r *CategoryRepo) List(ctx context.Context, typ *domain.CategoryType, page domain.Page) ([]domain.Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM categories`
	args := []any{}
	if typ != nil {
		q += ` WHERE category_type = ?`
		args = append(args, string(*typ))
	}
	q += ` ORDER BY name, id LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Skip)

	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (domain.Category, error) {
	var row categoryRow
	err := r.db.GetContext(ctx, &row, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, domain.NotFound("category %d not found", id)
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// ByIDs loads the categories referenced by a page of products or expenses.
func (r *CategoryRepo) ByIDs(ctx context.Context, ids []int64) (map[int64]domain.Category, error) {
	out := make(map[int64]domain.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+categoryColumns+` FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

func (r *CategoryRepo) Create(ctx context.Context, in domain.NewCategory) (domain.Category, error) {
	now := timestampNow()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(name, description, category_type, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)
	`, in.Name, in.Description, string(in.CategoryType), now, now)
	if isDuplicate(err) {
		return domain.Category{}, domain.Invalid("category %q already exists", in.Name)
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, err
	}
	return r.Get(ctx, id)
}
