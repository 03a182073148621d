package services

import (
	"context"

	"smarttrack/internal/domain"
	"smarttrack/internal/repos"
)

type ExpenseService struct {
	Expenses *repos.ExpenseRepo
}

func NewExpenseService(expenses *repos.ExpenseRepo) *ExpenseService {
	return &ExpenseService{Expenses: expenses}
}

// List returns expenses newest first; the date range is inclusive on both ends.
func (s *ExpenseService) List(ctx context.Context, f domain.ListFilter) ([]domain.Expense, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.Expenses.List(ctx, f)
}

func (s *ExpenseService) Create(ctx context.Context, in domain.NewExpense) (domain.Expense, error) {
	if err := in.Validate(); err != nil {
		return domain.Expense{}, err
	}
	return s.Expenses.Create(ctx, in)
}
