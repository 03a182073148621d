package domain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// SaleLine is one requested line of a sale before it is persisted.
type SaleLine struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
	CostPrice   Money  `json:"cost_price"`
}

func (l SaleLine) Total() Money { return LineTotal(l.Quantity, l.UnitPrice) }

// SaleDraft is an in-progress sale owned by the caller. It holds no references to
// shared state; whoever builds it passes it to the writer explicitly.
type SaleDraft struct {
	ID             string        `json:"draft_id,omitempty"`
	SaleDate       Date          `json:"sale_date"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	CustomerName   *string       `json:"customer_name"`
	DiscountAmount Money         `json:"discount_amount"`
	TaxAmount      Money         `json:"tax_amount"`
	Notes          *string       `json:"notes"`
	Items          []SaleLine    `json:"items"`
}

func NewSaleDraft(saleDate Date) SaleDraft {
	return SaleDraft{
		ID:            uuid.NewString(),
		SaleDate:      saleDate,
		PaymentMethod: PaymentCash,
		Items:         []SaleLine{},
	}
}

// DecodeSaleDraft restores a draft serialized with Encode. An empty input yields a fresh draft.
func DecodeSaleDraft(s string, saleDate Date) (SaleDraft, error) {
	if strings.TrimSpace(s) == "" {
		return NewSaleDraft(saleDate), nil
	}
	var d SaleDraft
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return SaleDraft{}, Wrap(KindValidation, err, "malformed sale draft")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Items == nil {
		d.Items = []SaleLine{}
	}
	return d, nil
}

func (d SaleDraft) Encode() string {
	b, _ := json.Marshal(d)
	return string(b)
}

func (d *SaleDraft) AddItem(l SaleLine) {
	d.Items = append(d.Items, l)
}

// RemoveItem drops the line at index i; it reports false when i is out of range.
func (d *SaleDraft) RemoveItem(i int) bool {
	if i < 0 || i >= len(d.Items) {
		return false
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	return true
}

func (d SaleDraft) Subtotal() Money {
	return SaleTotal(d.Items, Money{}, Money{})
}

func (d SaleDraft) Total() Money {
	return SaleTotal(d.Items, d.DiscountAmount, d.TaxAmount)
}

// Demand sums requested quantities per product, in first-seen order.
func (d SaleDraft) Demand() ([]int64, map[int64]int) {
	order := make([]int64, 0, len(d.Items))
	qty := make(map[int64]int, len(d.Items))
	for _, l := range d.Items {
		if _, seen := qty[l.ProductID]; !seen {
			order = append(order, l.ProductID)
		}
		qty[l.ProductID] += l.Quantity
	}
	return order, qty
}

// Validate checks field constraints only; stock and product state are checked by the writer.
func (d SaleDraft) Validate() error {
	if d.SaleDate.IsZero() {
		return Invalid("sale_date is required")
	}
	if !d.PaymentMethod.ValidForSale() {
		return Invalid("payment_method must be one of cash, card, bank_transfer, mobile_money")
	}
	if len(d.Items) == 0 {
		return Invalid("a sale needs at least one item")
	}
	if d.DiscountAmount.IsNegative() || d.TaxAmount.IsNegative() {
		return Invalid("discount_amount and tax_amount must be non-negative")
	}
	if !d.DiscountAmount.HasCents() || !d.TaxAmount.HasCents() {
		return Invalid("discount_amount and tax_amount must have at most 2 fractional digits")
	}
	if !d.DiscountAmount.InRange() || !d.TaxAmount.InRange() {
		return Invalid("discount_amount and tax_amount must not exceed %s", MaxAmount)
	}
	for i, l := range d.Items {
		if l.ProductID <= 0 {
			return Invalid("item %d: product_id must be positive", i+1)
		}
		if l.Quantity <= 0 {
			return Invalid("item %d: quantity must be positive", i+1)
		}
		if l.UnitPrice.IsNegative() || l.CostPrice.IsNegative() {
			return Invalid("item %d: prices must be non-negative", i+1)
		}
		if !l.UnitPrice.HasCents() || !l.CostPrice.HasCents() {
			return Invalid("item %d: prices must have at most 2 fractional digits", i+1)
		}
		if !l.UnitPrice.InRange() || !l.CostPrice.InRange() || !l.Total().InRange() ||
			!LineTotal(l.Quantity, l.CostPrice).InRange() {
			return Invalid("item %d: amounts must not exceed %s", i+1, MaxAmount)
		}
	}
	if !d.Subtotal().InRange() || !d.Total().InRange() {
		return Invalid("sale total must not exceed %s", MaxAmount)
	}
	return nil
}

// Header builds the sale header with its derived total. Items are attached by the writer.
func (d SaleDraft) Header() Sale {
	return Sale{
		SaleDate:       d.SaleDate,
		TotalAmount:    d.Total(),
		PaymentMethod:  d.PaymentMethod,
		CustomerName:   d.CustomerName,
		DiscountAmount: d.DiscountAmount,
		TaxAmount:      d.TaxAmount,
		Notes:          d.Notes,
	}
}
