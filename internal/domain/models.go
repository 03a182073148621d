package domain

import (
	"strings"
	"time"
)

type CategoryType string

const (
	CategoryExpense CategoryType = "expense"
	CategoryProduct CategoryType = "product"
)

func (t CategoryType) Valid() bool {
	return t == CategoryExpense || t == CategoryProduct
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheck        PaymentMethod = "check"
	PaymentMobileMoney  PaymentMethod = "mobile_money"
)

// ValidForSale: sales take cash | card | bank_transfer | mobile_money.
func (m PaymentMethod) ValidForSale() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentBankTransfer, PaymentMobileMoney:
		return true
	}
	return false
}

// ValidForExpense: expenses take cash | card | bank_transfer | check.
func (m PaymentMethod) ValidForExpense() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentBankTransfer, PaymentCheck:
		return true
	}
	return false
}

// UncategorizedName labels products without a category in reports.
const UncategorizedName = "Uncategorized"

type Category struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  *string      `json:"description"`
	CategoryType CategoryType `json:"category_type"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type NewCategory struct {
	Name         string       `json:"name"`
	Description  *string      `json:"description"`
	CategoryType CategoryType `json:"category_type"`
}

func (c *NewCategory) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Invalid("name is required")
	}
	if len(c.Name) > 100 {
		return Invalid("name must be at most 100 characters")
	}
	if !c.CategoryType.Valid() {
		return Invalid("category_type must be one of expense, product")
	}
	return nil
}

type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description"`
	CategoryID        *int64    `json:"category_id"`
	UnitOfMeasure     string    `json:"unit_of_measure"`
	CostPrice         Money     `json:"cost_price"`
	SellingPrice      Money     `json:"selling_price"`
	CurrentStock      int       `json:"current_stock"`
	MinimumStockLevel int       `json:"minimum_stock_level"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Category          *Category `json:"category"`
}

// LowStock reports whether stock has reached the reorder threshold.
func (p Product) LowStock() bool {
	return p.CurrentStock <= p.MinimumStockLevel
}

type NewProduct struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	CategoryID        *int64  `json:"category_id"`
	UnitOfMeasure     string  `json:"unit_of_measure"`
	CostPrice         Money   `json:"cost_price"`
	SellingPrice      Money   `json:"selling_price"`
	CurrentStock      int     `json:"current_stock"`
	MinimumStockLevel int     `json:"minimum_stock_level"`
	IsActive          bool    `json:"is_active"`
}

// DefaultNewProduct carries the defaults applied to fields a client omits.
func DefaultNewProduct() NewProduct {
	return NewProduct{UnitOfMeasure: "piece", MinimumStockLevel: 10, IsActive: true}
}

func (p *NewProduct) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Invalid("name is required")
	}
	if len(p.Name) > 200 {
		return Invalid("name must be at most 200 characters")
	}
	if strings.TrimSpace(p.UnitOfMeasure) == "" {
		p.UnitOfMeasure = "piece"
	}
	if p.CostPrice.IsNegative() || p.SellingPrice.IsNegative() {
		return Invalid("prices must be non-negative")
	}
	if !p.CostPrice.HasCents() || !p.SellingPrice.HasCents() {
		return Invalid("prices must have at most 2 fractional digits")
	}
	if !p.CostPrice.InRange() || !p.SellingPrice.InRange() {
		return Invalid("prices must not exceed %s", MaxAmount)
	}
	if p.CurrentStock < 0 {
		return Invalid("current_stock must be non-negative")
	}
	if p.MinimumStockLevel < 0 {
		return Invalid("minimum_stock_level must be non-negative")
	}
	if p.CategoryID != nil && *p.CategoryID <= 0 {
		return Invalid("category_id must be positive")
	}
	return nil
}

type Expense struct {
	ID            int64         `json:"id"`
	Description   string        `json:"description"`
	Amount        Money         `json:"amount"`
	CategoryID    *int64        `json:"category_id"`
	ExpenseDate   Date          `json:"expense_date"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	VendorName    *string       `json:"vendor_name"`
	ReceiptNumber *string       `json:"receipt_number"`
	Notes         *string       `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Category      *Category     `json:"category"`
}

type NewExpense struct {
	Description   string        `json:"description"`
	Amount        Money         `json:"amount"`
	CategoryID    *int64        `json:"category_id"`
	ExpenseDate   Date          `json:"expense_date"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	VendorName    *string       `json:"vendor_name"`
	ReceiptNumber *string       `json:"receipt_number"`
	Notes         *string       `json:"notes"`
}

func DefaultNewExpense() NewExpense {
	return NewExpense{PaymentMethod: PaymentCash}
}

func (e *NewExpense) Validate() error {
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return Invalid("description is required")
	}
	if len(e.Description) > 500 {
		return Invalid("description must be at most 500 characters")
	}
	if !e.Amount.IsPositive() {
		return Invalid("amount must be positive")
	}
	if !e.Amount.HasCents() {
		return Invalid("amount must have at most 2 fractional digits")
	}
	if !e.Amount.InRange() {
		return Invalid("amount must not exceed %s", MaxAmount)
	}
	if e.ExpenseDate.IsZero() {
		return Invalid("expense_date is required")
	}
	if !e.PaymentMethod.ValidForExpense() {
		return Invalid("payment_method must be one of cash, card, bank_transfer, check")
	}
	if e.CategoryID != nil && *e.CategoryID <= 0 {
		return Invalid("category_id must be positive")
	}
	return nil
}

type Sale struct {
	ID             int64         `json:"id"`
	SaleDate       Date          `json:"sale_date"`
	TotalAmount    Money         `json:"total_amount"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	CustomerName   *string       `json:"customer_name"`
	DiscountAmount Money         `json:"discount_amount"`
	TaxAmount      Money         `json:"tax_amount"`
	Notes          *string       `json:"notes"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	SaleItems      []SaleItem    `json:"sale_items"`
}

type SaleItem struct {
	ID         int64     `json:"id"`
	SaleID     int64     `json:"sale_id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  Money     `json:"unit_price"`
	CostPrice  Money     `json:"cost_price"`
	TotalPrice Money     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// Page is a skip/limit window over a list.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

func DefaultPage() Page { return Page{Limit: DefaultPageLimit} }

func (p Page) Validate() error {
	if p.Skip < 0 {
		return Invalid("skip must be >= 0")
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return Invalid("limit must be between 1 and %d", MaxPageLimit)
	}
	return nil
}

// DateRange is an optional inclusive [Start, End] filter.
type DateRange struct {
	Start *Date
	End   *Date
}

func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.End.Before(r.Start.Time) {
		return Invalid("end_date must not be before start_date")
	}
	return nil
}

// ListFilter narrows dated lists (sales, expenses).
type ListFilter struct {
	Page
	DateRange
}

func (f ListFilter) Validate() error {
	if err := f.Page.Validate(); err != nil {
		return err
	}
	return f.DateRange.Validate()
}
