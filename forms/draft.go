// Package forms holds the editable draft of an order, purchase order or expense,
// its validation rules and its submission to a persister.
package forms

import (
	"time"

	"github.com/mmdatafocus/distribution_backend/pricing"
	"github.com/shopspring/decimal"
)

type DocumentKind string

const (
	KindOrder         DocumentKind = "ORDER"
	KindPurchaseOrder DocumentKind = "PURCHASE_ORDER"
	KindExpense       DocumentKind = "EXPENSE"
)

// Rules are the per-kind differences in validation.
type Rules struct {
	// AllowZeroPrice accepts price >= 0 instead of price > 0.
	AllowZeroPrice bool
	// RequireParty requires a customer (orders) or supplier (purchase orders).
	RequireParty bool
	PartyLabel   string
}

func (k DocumentKind) Rules() Rules {
	switch k {
	case KindPurchaseOrder:
		return Rules{AllowZeroPrice: true, RequireParty: true, PartyLabel: "supplier"}
	case KindExpense:
		return Rules{}
	default:
		return Rules{RequireParty: true, PartyLabel: "customer"}
	}
}

func (k DocumentKind) IsValid() bool {
	return k == KindOrder || k == KindPurchaseOrder || k == KindExpense
}

type Item struct {
	ProductId    int                  `json:"product_id"`
	Description  string               `json:"description"`
	Quantity     decimal.Decimal      `json:"quantity"`
	UnitPrice    decimal.Decimal      `json:"unit_price"`
	Discount     decimal.Decimal      `json:"discount"`
	DiscountType pricing.DiscountType `json:"discount_type"`
	TotalPrice   decimal.Decimal      `json:"total_price"`
}

func (i Item) line() pricing.Line {
	return pricing.Line{
		UnitPrice:    i.UnitPrice,
		Quantity:     i.Quantity,
		Discount:     i.Discount,
		DiscountType: i.DiscountType,
	}
}

// Draft is the in-progress document. Derived totals (Totals and each item's
// TotalPrice) are recomputed by every mutator and are never set directly.
type Draft struct {
	Kind              DocumentKind         `json:"kind"`
	Code              string               `json:"code"`
	PartyId           int                  `json:"party_id"`
	Date              *time.Time           `json:"date"`
	DueDate           *time.Time           `json:"due_date"`
	Notes             string               `json:"notes"`
	Category          string               `json:"category"`
	Items             []Item               `json:"items"`
	OrderDiscount     decimal.Decimal      `json:"order_discount"`
	OrderDiscountType pricing.DiscountType `json:"order_discount_type"`
	TaxPercentage     *decimal.Decimal     `json:"tax_percentage"`
	ShippingCost      decimal.Decimal      `json:"shipping_cost"`
	Totals            pricing.Totals       `json:"totals"`
}

func NewDraft(kind DocumentKind, code string, date time.Time) *Draft {
	d := &Draft{Kind: kind, Code: code, Date: &date, OrderDiscountType: pricing.DiscountTypeAmount}
	d.Recompute()
	return d
}

// Recompute re-derives all totals from the current inputs.
func (d *Draft) Recompute() {
	lines := make([]pricing.Line, len(d.Items))
	for i, item := range d.Items {
		lines[i] = item.line()
	}
	d.Totals = pricing.ComputeDocumentTotals(lines, d.OrderDiscount, d.OrderDiscountType, d.TaxPercentage, d.ShippingCost)
	for i := range d.Items {
		d.Items[i].TotalPrice = d.Totals.LineTotals[i]
	}
}

func (d *Draft) SetItems(items []Item) {
	d.Items = append([]Item(nil), items...)
	d.Recompute()
}

func (d *Draft) AddItem(item Item) {
	d.Items = append(d.Items, item)
	d.Recompute()
}

// UpdateItem replaces the item at index i. Out-of-range indexes are ignored.
func (d *Draft) UpdateItem(i int, item Item) {
	if i < 0 || i >= len(d.Items) {
		return
	}
	d.Items[i] = item
	d.Recompute()
}

func (d *Draft) RemoveItem(i int) {
	if i < 0 || i >= len(d.Items) {
		return
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	d.Recompute()
}

func (d *Draft) SetOrderDiscount(amount decimal.Decimal, discountType pricing.DiscountType) {
	d.OrderDiscount = amount
	d.OrderDiscountType = discountType
	d.Recompute()
}

// SetTaxPercentage sets the explicit tax choice; nil means "not chosen yet".
func (d *Draft) SetTaxPercentage(pct *decimal.Decimal) {
	if pct != nil {
		v := *pct
		pct = &v
	}
	d.TaxPercentage = pct
	d.Recompute()
}

func (d *Draft) SetShippingCost(cost decimal.Decimal) {
	d.ShippingCost = cost
	d.Recompute()
}

// Clone returns a deep copy, so a failed submission can hand back the untouched input.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Items = append([]Item(nil), d.Items...)
	c.Totals.LineTotals = append([]decimal.Decimal(nil), d.Totals.LineTotals...)
	if d.TaxPercentage != nil {
		v := *d.TaxPercentage
		c.TaxPercentage = &v
	}
	if d.Date != nil {
		v := *d.Date
		c.Date = &v
	}
	if d.DueDate != nil {
		v := *d.DueDate
		c.DueDate = &v
	}
	return &c
}
