package services

import (
	"context"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/domain"
	"smarttrack/internal/events"
	"smarttrack/internal/log"
	"smarttrack/internal/repos"
)

// SaleService records sales atomically: header, items and stock decrements
// commit together or not at all.
type SaleService struct {
	DB     *sqlx.DB
	Prods  *repos.ProductRepo
	Sales  *repos.SaleRepo
	Events events.Publisher
	Now    func() time.Time
}

func NewSaleService(db *sqlx.DB, prods *repos.ProductRepo, sales *repos.SaleRepo, pub events.Publisher) *SaleService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &SaleService{DB: db, Prods: prods, Sales: sales, Events: pub, Now: time.Now}
}

// Create validates the draft, checks every product's state and stock inside one
// transaction, then writes the sale and decrements stock. Business-rule failures
// come back with their own kind; anything else surfaces as transaction_failed.
// No retries are attempted.
func (s *SaleService) Create(ctx context.Context, draft domain.SaleDraft) (domain.Sale, error) {
	if err := draft.Validate(); err != nil {
		return domain.Sale{}, err
	}
	now := s.Now().UTC()

	var sale domain.Sale
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		ids, demand := draft.Demand()
		// lock rows in id order so concurrent writers cannot deadlock each other
		ids = slices.Clone(ids)
		slices.Sort(ids)
		for _, id := range ids {
			p, ok, err := s.Prods.GetForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if !ok {
				return domain.Errorf(domain.KindProductNotFound, "product %d not found", id)
			}
			if !p.IsActive {
				return domain.Errorf(domain.KindProductInactive, "product %q is inactive", p.Name)
			}
			if p.CurrentStock < demand[id] {
				return domain.Errorf(domain.KindInsufficientStock,
					"insufficient stock for %q: requested %d, available %d", p.Name, demand[id], p.CurrentStock)
			}
		}

		header := draft.Header()
		header.CreatedAt, header.UpdatedAt = now, now
		saleID, err := s.Sales.InsertHeader(ctx, tx, header)
		if err != nil {
			return err
		}
		header.ID = saleID
		header.SaleItems = make([]domain.SaleItem, 0, len(draft.Items))

		for _, line := range draft.Items {
			item := domain.SaleItem{
				SaleID:     saleID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				CostPrice:  line.CostPrice,
				TotalPrice: line.Total(),
				CreatedAt:  now,
			}
			if item.ID, err = s.Sales.InsertItem(ctx, tx, item); err != nil {
				return err
			}
			done, err := s.Prods.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !done {
				return domain.Errorf(domain.KindInsufficientStock, "insufficient stock for product %d", line.ProductID)
			}
			header.SaleItems = append(header.SaleItems, item)
		}
		sale = header
		return nil
	})
	if err != nil {
		if domain.KindOf(err) != domain.KindInternal {
			return domain.Sale{}, err
		}
		log.L().Error("sale.tx.fail", "err", err.Error())
		return domain.Sale{}, domain.Wrap(domain.KindTransactionFailed, err, "the sale could not be recorded; nothing was saved")
	}

	if err := s.Events.PublishSaleCreated(ctx, events.NewSaleCreated(sale, now)); err != nil {
		log.L().Warn("sale.event.fail", "sale_id", sale.ID, "err", err.Error())
	}
	return sale, nil
}

func (s *SaleService) Get(ctx context.Context, id int64) (domain.Sale, error) {
	return s.Sales.Get(ctx, id)
}

// List returns sales newest first; the date range is inclusive on both ends.
func (s *SaleService) List(ctx context.Context, f domain.ListFilter) ([]domain.Sale, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.Sales.List(ctx, f)
}
