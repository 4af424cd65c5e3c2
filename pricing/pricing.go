// Package pricing computes line and document totals for orders, purchase orders and expenses.
//
// Every function here is pure: inputs are values, results are new values, nothing is mutated.
// The same functions run for live previews, before every write, and in the recompute tool.
package pricing

import (
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypeAmount     DiscountType = "AMOUNT"
	DiscountTypePercentage DiscountType = "PERCENTAGE"
)

func (t DiscountType) IsValid() bool {
	return t == "" || t == DiscountTypeAmount || t == DiscountTypePercentage
}

func (t DiscountType) IsPercentage() bool {
	return t == DiscountTypePercentage
}

var hundred = decimal.NewFromInt(100)

// taxScale is the number of decimals kept on tax, matching the decimal(20,4)
// columns it is stored in.
const taxScale = 4

// Line is one priced row of a document.
type Line struct {
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType DiscountType    `json:"discount_type"`
}

type Totals struct {
	LineTotals    []decimal.Decimal `json:"line_totals"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	TotalDiscount decimal.Decimal   `json:"total_discount"`
	TaxableAmount decimal.Decimal   `json:"taxable_amount"`
	TotalTax      decimal.Decimal   `json:"total_tax"`
	TotalPayment  decimal.Decimal   `json:"total_payment"`
}

// DiscountAmount resolves a discount against base: a percentage of base, or the amount itself.
// Non-positive discounts resolve to zero. A percentage is exact (base*discount/100, never
// rounded), so it always equals the same discount given as an amount.
func DiscountAmount(base, discount decimal.Decimal, discountType DiscountType) decimal.Decimal {
	if discount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if discountType.IsPercentage() {
		return base.Mul(discount).Shift(-2)
	}
	return discount
}

// EffectiveDiscount is the per-unit discount applied to unitPrice.
func EffectiveDiscount(unitPrice, discount decimal.Decimal, discountType DiscountType) decimal.Decimal {
	return DiscountAmount(unitPrice, discount, discountType)
}

// ComputeLineTotal returns max(0, unitPrice - effectiveDiscount) * quantity.
// A discount above the unit price clamps the line at zero.
func ComputeLineTotal(unitPrice, quantity, discount decimal.Decimal, discountType DiscountType) decimal.Decimal {
	net := unitPrice.Sub(EffectiveDiscount(unitPrice, discount, discountType))
	if net.IsNegative() {
		net = decimal.Zero
	}
	return net.Mul(quantity)
}

func (l Line) Total() decimal.Decimal {
	return ComputeLineTotal(l.UnitPrice, l.Quantity, l.Discount, l.DiscountType)
}

// ComputeDocumentTotals derives subtotal, order-level discount, tax and grand total.
//
// A nil taxPercentage computes as zero. Callers must still block submission in that case.
// Tax is never negative: it is taken on max(0, taxableAmount).
func ComputeDocumentTotals(lines []Line, orderDiscount decimal.Decimal, discountType DiscountType,
	taxPercentage *decimal.Decimal, shippingCost decimal.Decimal) Totals {

	totals := Totals{LineTotals: make([]decimal.Decimal, len(lines))}

	subtotal := decimal.Zero
	for i, line := range lines {
		lineTotal := line.Total()
		totals.LineTotals[i] = lineTotal
		subtotal = subtotal.Add(lineTotal)
	}

	orderDiscountAmount := DiscountAmount(subtotal, orderDiscount, discountType)
	taxable := subtotal.Sub(orderDiscountAmount)

	tax := decimal.Zero
	if taxPercentage != nil && taxable.IsPositive() {
		tax = taxable.Mul(*taxPercentage).DivRound(hundred, taxScale)
	}

	payment := taxable.Add(tax).Add(shippingCost)
	if payment.IsNegative() {
		payment = decimal.Zero
	}

	totals.Subtotal = subtotal
	totals.TotalDiscount = orderDiscountAmount
	totals.TaxableAmount = taxable
	totals.TotalTax = tax
	totals.TotalPayment = payment
	return totals
}
