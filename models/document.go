package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/pricing"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentHeader holds the columns shared by orders, purchase orders and expenses.
// Stored totals are always the pricing result of the stored inputs.
type DocumentHeader struct {
	Code              string               `gorm:"size:20;not null;uniqueIndex" json:"code"`
	SequenceNo        int64                `gorm:"not null;default:0;index" json:"sequence_no"`
	Date              time.Time            `gorm:"not null;index" json:"date"`
	DueDate           *time.Time           `json:"due_date"`
	Notes             string               `gorm:"type:text" json:"notes"`
	OrderDiscount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"order_discount"`
	OrderDiscountType pricing.DiscountType `gorm:"size:20;not null;default:'AMOUNT'" json:"order_discount_type"`
	TaxPercentage     *decimal.Decimal     `gorm:"type:decimal(7,4)" json:"tax_percentage"`
	ShippingCost      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"shipping_cost"`
	Subtotal          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	TotalDiscount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_discount"`
	TaxableAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"taxable_amount"`
	TotalTax          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_tax"`
	TotalPayment      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_payment"`
	CreatedBy         int                  `gorm:"index;not null" json:"created_by"`
	CreatedByName     string               `gorm:"size:100" json:"created_by_name"`
}

// LineItem holds the columns shared by every document line.
type LineItem struct {
	ProductId    int                  `gorm:"index" json:"product_id"`
	Description  string               `gorm:"size:255" json:"description"`
	Quantity     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice    decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Discount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"discount"`
	DiscountType pricing.DiscountType `gorm:"size:20;not null;default:'AMOUNT'" json:"discount_type"`
	TotalPrice   decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_price"`
}

const (
	orderCodePrefix         = "SO"
	purchaseOrderCodePrefix = "PO"
	expenseCodePrefix       = "EX"
)

func documentCode(prefix string, seqNo int64) string {
	return fmt.Sprintf("%s-%06d", prefix, seqNo)
}

// parseSequence returns the number behind a code such as SO-000042.
func parseSequence(code, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(code, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// nextCode reserves the next code for T. The number is consumed even if the
// draft is never saved.
func nextCode[T any](ctx context.Context, prefix string) (string, error) {
	seqNo, err := utils.GetSequence[T](ctx)
	if err != nil {
		return "", err
	}
	return documentCode(prefix, seqNo), nil
}

// claimCode checks a reserved code before insert and returns its sequence number.
func claimCode[T any](ctx context.Context, code, prefix string) (int64, error) {
	seqNo, ok := parseSequence(code, prefix)
	if !ok {
		return 0, forms.FieldErrors{"code": fmt.Sprintf("must look like %s", documentCode(prefix, 1))}
	}
	if err := utils.ValidateUnique[T](ctx, "code", code, 0); err != nil {
		if errors.Is(err, utils.ErrorDuplicateValue) {
			return 0, utils.ErrorDuplicateCode
		}
		return 0, err
	}
	return seqNo, nil
}

func (h *DocumentHeader) applyDraft(d *forms.Draft) {
	if d.Date != nil {
		h.Date = *d.Date
	}
	h.DueDate = d.DueDate
	h.Notes = strings.TrimSpace(d.Notes)
	h.OrderDiscount = d.OrderDiscount
	h.OrderDiscountType = d.OrderDiscountType
	if h.OrderDiscountType == "" {
		h.OrderDiscountType = pricing.DiscountTypeAmount
	}
	h.TaxPercentage = d.TaxPercentage
	h.ShippingCost = d.ShippingCost
	h.Subtotal = d.Totals.Subtotal
	h.TotalDiscount = d.Totals.TotalDiscount
	h.TaxableAmount = d.Totals.TaxableAmount
	h.TotalTax = d.Totals.TotalTax
	h.TotalPayment = d.Totals.TotalPayment
}

func (h *DocumentHeader) setCreator(user appctx.CurrentUser) {
	h.CreatedBy = user.ID
	h.CreatedByName = user.Name
}

func lineItemsFromDraft(items []forms.Item) []LineItem {
	lines := make([]LineItem, len(items))
	for i, item := range items {
		discountType := item.DiscountType
		if discountType == "" {
			discountType = pricing.DiscountTypeAmount
		}
		lines[i] = LineItem{
			ProductId:    item.ProductId,
			Description:  strings.TrimSpace(item.Description),
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Discount:     item.Discount,
			DiscountType: discountType,
			TotalPrice:   item.TotalPrice,
		}
	}
	return lines
}

// toDraft rebuilds an editable draft from stored columns, recomputing totals.
func (h DocumentHeader) toDraft(kind forms.DocumentKind, partyId int, lines []LineItem) *forms.Draft {
	d := forms.NewDraft(kind, h.Code, h.Date)
	d.PartyId = partyId
	d.DueDate = h.DueDate
	d.Notes = h.Notes
	d.OrderDiscount = h.OrderDiscount
	d.OrderDiscountType = h.OrderDiscountType
	d.ShippingCost = h.ShippingCost
	d.SetTaxPercentage(h.TaxPercentage)
	items := make([]forms.Item, len(lines))
	for i, l := range lines {
		items[i] = forms.Item{
			ProductId:    l.ProductId,
			Description:  l.Description,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Discount:     l.Discount,
			DiscountType: l.DiscountType,
		}
	}
	d.SetItems(items)
	return d
}

// totalsDrifted reports whether the stored totals differ from a fresh computation.
func (h DocumentHeader) totalsDrifted(d *forms.Draft, lines []LineItem) bool {
	t := d.Totals
	if !h.Subtotal.Equal(t.Subtotal) || !h.TotalDiscount.Equal(t.TotalDiscount) ||
		!h.TaxableAmount.Equal(t.TaxableAmount) || !h.TotalTax.Equal(t.TotalTax) ||
		!h.TotalPayment.Equal(t.TotalPayment) {
		return true
	}
	for i, l := range lines {
		if i >= len(t.LineTotals) || !l.TotalPrice.Equal(t.LineTotals[i]) {
			return true
		}
	}
	return false
}

// validateReferences checks the party and products a draft points at.
func validateReferences[Party any](ctx context.Context, d *forms.Draft, partyLabel string) error {
	errs := forms.FieldErrors{}
	if d.PartyId > 0 {
		if err := utils.ValidateResourceId[Party](ctx, d.PartyId); err != nil {
			if !errors.Is(err, utils.ErrorRecordNotFound) {
				return err
			}
			errs["party_id"] = partyLabel + " not found"
		}
	}
	productIds := make([]int, 0, len(d.Items))
	for _, item := range d.Items {
		if item.ProductId > 0 {
			productIds = append(productIds, item.ProductId)
		}
	}
	missing := utils.ValidateResourcesId[Product](ctx, productIds)
	if missing != nil && !errors.Is(missing, utils.ErrorRecordNotFound) {
		return missing
	}
	// per-item lookups only run to name the missing lines
	for i, item := range d.Items {
		if missing == nil || item.ProductId <= 0 {
			continue
		}
		if err := utils.ValidateResourceId[Product](ctx, item.ProductId); err != nil {
			if !errors.Is(err, utils.ErrorRecordNotFound) {
				return err
			}
			errs[fmt.Sprintf("items[%d].product", i)] = "product not found"
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// contentOmits are the columns a content save never writes. Status only moves
// through the guarded status updates, so a concurrent status change survives an edit.
var contentOmits = []string{clause.Associations, "status", "created_by", "created_by_name"}

// saveContent writes the header row of doc without its items or status.
func saveContent(tx *gorm.DB, doc interface{}) *gorm.DB {
	return tx.Omit(contentOmits...).Save(doc)
}

// DocumentFilter narrows list queries. Zero values are ignored.
type DocumentFilter struct {
	Code      string
	PartyId   int
	Status    OrderStatus
	Category  ExpenseCategory
	CreatedBy int
	From      *time.Time
	// To is exclusive.
	To       *time.Time
	MinTotal *decimal.Decimal
	MaxTotal *decimal.Decimal
	Limit    int
	Offset   int
}

const defaultListLimit = 50

func (f DocumentFilter) apply(dbCtx *gorm.DB, partyColumn string) *gorm.DB {
	if f.Code != "" {
		dbCtx = dbCtx.Where("code LIKE ?", "%"+f.Code+"%")
	}
	if f.PartyId > 0 && partyColumn != "" {
		dbCtx = dbCtx.Where(partyColumn+" = ?", f.PartyId)
	}
	if f.Status != "" {
		dbCtx = dbCtx.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		dbCtx = dbCtx.Where("category = ?", f.Category)
	}
	if f.CreatedBy > 0 {
		dbCtx = dbCtx.Where("created_by = ?", f.CreatedBy)
	}
	if f.From != nil {
		dbCtx = dbCtx.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		dbCtx = dbCtx.Where("date < ?", *f.To)
	}
	if f.MinTotal != nil {
		dbCtx = dbCtx.Where("total_payment >= ?", *f.MinTotal)
	}
	if f.MaxTotal != nil {
		dbCtx = dbCtx.Where("total_payment <= ?", *f.MaxTotal)
	}
	return dbCtx
}

func (f DocumentFilter) page(dbCtx *gorm.DB) *gorm.DB {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	return dbCtx.Limit(limit).Offset(max(f.Offset, 0))
}

// scopedTo forces SALES users onto their own records.
func (f DocumentFilter) scopedTo(user appctx.CurrentUser) DocumentFilter {
	if !user.IsManager() {
		f.CreatedBy = user.ID
	}
	return f
}
