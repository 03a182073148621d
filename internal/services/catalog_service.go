package services

import (
	"context"

	"smarttrack/internal/domain"
	"smarttrack/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

// ListCategories returns categories by name; typ narrows to one category type when set.
func (s *CatalogService) ListCategories(ctx context.Context, typ *domain.CategoryType, page domain.Page) ([]domain.Category, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if typ != nil && !typ.Valid() {
		return nil, domain.Invalid("category_type must be one of expense, product")
	}
	return s.Cats.List(ctx, typ, page)
}

func (s *CatalogService) CreateCategory(ctx context.Context, in domain.NewCategory) (domain.Category, error) {
	if err := in.Validate(); err != nil {
		return domain.Category{}, err
	}
	return s.Cats.Create(ctx, in)
}

func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool, page domain.Page) ([]domain.Product, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return s.Prods.List(ctx, activeOnly, page)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in domain.NewProduct) (domain.Product, error) {
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Create(ctx, in)
}
