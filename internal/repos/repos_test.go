package repos

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"smarttrack/internal/domain"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func mustProduct(t *testing.T, db *sqlx.DB, name string, catID *int64, stock int, price, cost string) domain.Product {
	t.Helper()
	in := domain.DefaultNewProduct()
	in.Name = name
	in.CategoryID = catID
	in.CurrentStock = stock
	in.SellingPrice = domain.MustMoney(price)
	in.CostPrice = domain.MustMoney(cost)
	p, err := NewProductRepo(db).Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	if _, err := OpenDB("oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestCategoryRepo_CreateListDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCategoryRepo(db)

	c, err := repo.Create(ctx, domain.NewCategory{Name: "Drinks", CategoryType: domain.CategoryProduct})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == 0 || c.CreatedAt.IsZero() {
		t.Fatalf("bad category: %+v", c)
	}
	if _, err := repo.Create(ctx, domain.NewCategory{Name: "Rent", CategoryType: domain.CategoryExpense}); err != nil {
		t.Fatal(err)
	}

	_, err = repo.Create(ctx, domain.NewCategory{Name: "drinks", CategoryType: domain.CategoryProduct})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("duplicate name: want validation error, got %v", err)
	}

	all, err := repo.List(ctx, nil, domain.DefaultPage())
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %v %d", err, len(all))
	}
	typ := domain.CategoryExpense
	exp, err := repo.List(ctx, &typ, domain.DefaultPage())
	if err != nil || len(exp) != 1 || exp[0].Name != "Rent" {
		t.Fatalf("list expense categories: %v %+v", err, exp)
	}
	page, err := repo.List(ctx, nil, domain.Page{Skip: 1, Limit: 1})
	if err != nil || len(page) != 1 || page[0].Name != "Rent" {
		t.Fatalf("paged list: %v %+v", err, page)
	}

	if _, err := repo.Get(ctx, 999); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestProductRepo_CreateEmbedsCategory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cat, err := NewCategoryRepo(db).Create(ctx, domain.NewCategory{Name: "Snacks", CategoryType: domain.CategoryProduct})
	if err != nil {
		t.Fatal(err)
	}

	p := mustProduct(t, db, "Chips", &cat.ID, 5, "1.20", "0.60")
	if p.Category == nil || p.Category.Name != "Snacks" {
		t.Fatalf("category not embedded: %+v", p.Category)
	}
	if !p.SellingPrice.Equal(domain.MustMoney("1.20")) || p.UnitOfMeasure != "piece" || !p.IsActive {
		t.Fatalf("unexpected product: %+v", p)
	}

	bare := mustProduct(t, db, "Loose", nil, 0, "2.00", "1.00")
	if bare.Category != nil {
		t.Fatalf("uncategorized product has category: %+v", bare.Category)
	}

	_, err = NewProductRepo(db).Create(ctx, domain.NewProduct{Name: "Ghost", CategoryID: ptr(int64(42)), UnitOfMeasure: "piece"})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("missing category: want validation error, got %v", err)
	}
}

func TestProductRepo_ListActiveOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "A", nil, 1, "1.00", "0.50")
	in := domain.DefaultNewProduct()
	in.Name = "B"
	in.IsActive = false
	if _, err := NewProductRepo(db).Create(ctx, in); err != nil {
		t.Fatal(err)
	}

	active, err := NewProductRepo(db).List(ctx, true, domain.DefaultPage())
	if err != nil || len(active) != 1 || active[0].Name != "A" {
		t.Fatalf("active only: %v %+v", err, active)
	}
	all, err := NewProductRepo(db).List(ctx, false, domain.DefaultPage())
	if err != nil || len(all) != 2 {
		t.Fatalf("all: %v %d", err, len(all))
	}
}

func TestProductRepo_DecrementStockGuard(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := mustProduct(t, db, "Water", nil, 5, "0.50", "0.25")
	repo := NewProductRepo(db)

	err := InTx(ctx, db, func(tx *sqlx.Tx) error {
		got, ok, err := repo.GetForUpdate(ctx, tx, p.ID)
		if err != nil || !ok || got.CurrentStock != 5 {
			t.Fatalf("get for update: %v %v %+v", err, ok, got)
		}
		if _, ok, _ := repo.GetForUpdate(ctx, tx, 999); ok {
			t.Fatal("missing product reported as found")
		}
		done, err := repo.DecrementStock(ctx, tx, p.ID, 6)
		if err != nil || done {
			t.Fatalf("over-decrement: done=%v err=%v", done, err)
		}
		done, err = repo.DecrementStock(ctx, tx, p.ID, 5)
		if err != nil || !done {
			t.Fatalf("exact decrement: done=%v err=%v", done, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	after, _ := repo.Get(ctx, p.ID)
	if after.CurrentStock != 0 {
		t.Fatalf("stock = %d, want 0", after.CurrentStock)
	}
}

func TestInTx_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := mustProduct(t, db, "Soap", nil, 3, "2.75", "1.50")
	repo := NewProductRepo(db)

	boom := domain.Invalid("boom")
	err := InTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := repo.DecrementStock(ctx, tx, p.ID, 2); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("want fn error back, got %v", err)
	}
	after, _ := repo.Get(ctx, p.ID)
	if after.CurrentStock != 3 {
		t.Fatalf("stock = %d after rollback, want 3", after.CurrentStock)
	}
}

func TestSaleRepo_InsertGetList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := mustProduct(t, db, "Juice", nil, 10, "2.99", "1.80")
	repo := NewSaleRepo(db)
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	insert := func(day domain.Date, qty int) int64 {
		var id int64
		err := InTx(ctx, db, func(tx *sqlx.Tx) error {
			total := domain.LineTotal(qty, p.SellingPrice)
			var err error
			id, err = repo.InsertHeader(ctx, tx, domain.Sale{
				SaleDate: day, TotalAmount: total, PaymentMethod: domain.PaymentCard,
				CreatedAt: now, UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			_, err = repo.InsertItem(ctx, tx, domain.SaleItem{
				SaleID: id, ProductID: p.ID, Quantity: qty,
				UnitPrice: p.SellingPrice, CostPrice: p.CostPrice, TotalPrice: total, CreatedAt: now,
			})
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	first := insert(domain.NewDate(2024, 3, 1), 2)
	insert(domain.NewDate(2024, 3, 5), 1)

	s, err := repo.Get(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.SaleItems) != 1 || !s.TotalAmount.Equal(domain.MustMoney("5.98")) {
		t.Fatalf("unexpected sale: %+v", s)
	}
	if !s.SaleDate.Equal(domain.NewDate(2024, 3, 1)) || !s.CreatedAt.Equal(now) {
		t.Fatalf("dates not round-tripped: %v %v", s.SaleDate, s.CreatedAt)
	}

	all, err := repo.List(ctx, domain.ListFilter{Page: domain.DefaultPage()})
	if err != nil || len(all) != 2 || all[0].SaleDate.Day() != 5 {
		t.Fatalf("list newest first: %v %+v", err, all)
	}
	start := domain.NewDate(2024, 3, 1)
	end := domain.NewDate(2024, 3, 1)
	ranged, err := repo.List(ctx, domain.ListFilter{Page: domain.DefaultPage(), DateRange: domain.DateRange{Start: &start, End: &end}})
	if err != nil || len(ranged) != 1 || ranged[0].ID != first || len(ranged[0].SaleItems) != 1 {
		t.Fatalf("inclusive range: %v %+v", err, ranged)
	}

	if _, err := repo.Get(ctx, 999); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestExpenseRepo_CreateList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cat, _ := NewCategoryRepo(db).Create(ctx, domain.NewCategory{Name: "Rent", CategoryType: domain.CategoryExpense})
	repo := NewExpenseRepo(db)

	for i, day := range []int{1, 15, 31} {
		in := domain.DefaultNewExpense()
		in.Description = "expense"
		in.Amount = domain.MoneyFromCents(int64(1000 * (i + 1)))
		in.ExpenseDate = domain.NewDate(2024, 1, day)
		in.CategoryID = &cat.ID
		if _, err := repo.Create(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.List(ctx, domain.ListFilter{Page: domain.DefaultPage()})
	if err != nil || len(all) != 3 {
		t.Fatalf("list: %v %d", err, len(all))
	}
	if all[0].ExpenseDate.Day() != 31 || all[2].ExpenseDate.Day() != 1 {
		t.Fatalf("not newest first: %v %v", all[0].ExpenseDate, all[2].ExpenseDate)
	}
	if all[0].Category == nil || all[0].Category.Name != "Rent" {
		t.Fatalf("category not embedded: %+v", all[0])
	}

	start := domain.NewDate(2024, 1, 15)
	ranged, err := repo.List(ctx, domain.ListFilter{Page: domain.DefaultPage(), DateRange: domain.DateRange{Start: &start}})
	if err != nil || len(ranged) != 2 {
		t.Fatalf("start bound inclusive: %v %d", err, len(ranged))
	}
}

func TestAnalyticsRepo_ProductProfitRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cat, _ := NewCategoryRepo(db).Create(ctx, domain.NewCategory{Name: "Snacks", CategoryType: domain.CategoryProduct})
	sold := mustProduct(t, db, "Chips", &cat.ID, 10, "10.00", "6.00")
	mustProduct(t, db, "Loose", nil, 10, "1.00", "0.50")

	sales := NewSaleRepo(db)
	day := domain.NewDate(2024, 5, 2)
	now := time.Now()
	for i := 0; i < 2; i++ {
		err := InTx(ctx, db, func(tx *sqlx.Tx) error {
			id, err := sales.InsertHeader(ctx, tx, domain.Sale{SaleDate: day, TotalAmount: domain.MustMoney("30.00"),
				PaymentMethod: domain.PaymentCash, CreatedAt: now, UpdatedAt: now})
			if err != nil {
				return err
			}
			_, err = sales.InsertItem(ctx, tx, domain.SaleItem{SaleID: id, ProductID: sold.ID, Quantity: 3,
				UnitPrice: sold.SellingPrice, CostPrice: sold.CostPrice, TotalPrice: domain.MustMoney("30.00"), CreatedAt: now})
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	repo := NewAnalyticsRepo(db)
	rows, err := repo.ProductProfitRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("want one row per product, got %d", len(rows))
	}
	if rows[0].QuantitySold != 6 || rows[0].RevenueCents != 6000 || rows[0].CostCents != 3600 {
		t.Fatalf("sold row: %+v", rows[0])
	}
	if rows[0].CategoryName == nil || *rows[0].CategoryName != "Snacks" {
		t.Fatalf("category name: %+v", rows[0])
	}
	if rows[1].CategoryName != nil || rows[1].QuantitySold != 0 || rows[1].RevenueCents != 0 {
		t.Fatalf("unsold uncategorized row: %+v", rows[1])
	}

	total, err := repo.SumSales(ctx, day, day)
	if err != nil || !total.Equal(domain.MustMoney("60.00")) {
		t.Fatalf("sum sales: %v %v", err, total)
	}
	n, err := repo.CountSalesOn(ctx, day)
	if err != nil || n != 2 {
		t.Fatalf("count sales: %v %d", err, n)
	}
	none, err := repo.SumExpenses(ctx, day.MonthStart(), day)
	if err != nil || !none.IsZero() {
		t.Fatalf("sum expenses: %v %v", err, none)
	}
}

func TestAnalyticsRepo_CountLowStock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProduct(t, db, "Low", nil, 10, "1.00", "0.50")
	mustProduct(t, db, "Fine", nil, 11, "1.00", "0.50")
	in := domain.DefaultNewProduct()
	in.Name = "Inactive"
	in.IsActive = false
	if _, err := NewProductRepo(db).Create(ctx, in); err != nil {
		t.Fatal(err)
	}

	n, err := NewAnalyticsRepo(db).CountLowStock(ctx)
	if err != nil || n != 1 {
		t.Fatalf("low stock = %d (%v), want 1", n, err)
	}
}

func TestSeedDemo_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := SeedDemo(ctx, db); err != nil {
		t.Fatal(err)
	}
	if err := SeedDemo(ctx, db); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil || n != 5 {
		t.Fatalf("categories = %d (%v), want 5", n, err)
	}
}

func TestTimestampScan(t *testing.T) {
	want := time.Date(2024, 2, 29, 13, 4, 5, 0, time.UTC)
	for _, src := range []any{"2024-02-29 13:04:05", []byte("2024-02-29T13:04:05Z"), want} {
		var ts timestamp
		if err := ts.Scan(src); err != nil {
			t.Fatalf("scan %v: %v", src, err)
		}
		if !ts.Equal(want) {
			t.Fatalf("scan %v = %v", src, ts.Time)
		}
	}
	var ts timestamp
	if err := ts.Scan(3.14); err == nil {
		t.Fatal("expected error for float")
	}
}
