package forms

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldErrors maps a field path (e.g. "items[0].quantity") to a message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

var hundred = decimal.NewFromInt(100)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// decimals validate as float64 so numeric tags (gt, gte, lte) apply
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// struct-tag rules; cross-field and per-kind rules are checked in Validate
type draftRules struct {
	Code          string           `json:"code" validate:"required"`
	Date          *time.Time       `json:"date" validate:"required"`
	Items         []itemRules      `json:"items" validate:"min=1,dive"`
	OrderDiscount decimal.Decimal  `json:"order_discount" validate:"gte=0"`
	TaxPercentage *decimal.Decimal `json:"tax_percentage" validate:"required,gte=0,lte=100"`
	ShippingCost  decimal.Decimal  `json:"shipping_cost" validate:"gte=0"`
}

type itemRules struct {
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Discount  decimal.Decimal `json:"discount" validate:"gte=0"`
}

func rulesFor(d *Draft) draftRules {
	r := draftRules{
		Code:          strings.TrimSpace(d.Code),
		OrderDiscount: d.OrderDiscount,
		TaxPercentage: d.TaxPercentage,
		ShippingCost:  d.ShippingCost,
		Items:         make([]itemRules, len(d.Items)),
	}
	if d.Date != nil && !d.Date.IsZero() {
		r.Date = d.Date
	}
	for i, item := range d.Items {
		r.Items[i] = itemRules{Quantity: item.Quantity, UnitPrice: item.UnitPrice, Discount: item.Discount}
	}
	return r
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "at least one item is required"
	case "gt":
		return "must be greater than 0"
	case "gte":
		return "must not be negative"
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// fieldPath turns "draftRules.items[0].quantity" into "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func subtotalOf(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.line().Total())
	}
	return sum
}

// Validate checks a draft before submission. An empty result means the draft may be persisted.
func Validate(d *Draft) FieldErrors {
	errs := FieldErrors{}
	if d == nil {
		errs.add("_", "document is required")
		return errs
	}
	if !d.Kind.IsValid() {
		errs.add("kind", "is invalid")
	}
	rules := d.Kind.Rules()

	if err := validate.Struct(rulesFor(d)); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs.add(fieldPath(fe), messageForTag(fe))
			}
		} else {
			errs.add("_", err.Error())
		}
	}

	if rules.RequireParty && d.PartyId <= 0 {
		errs.add("party_id", rules.PartyLabel+" is required")
	}
	if d.Date != nil && d.DueDate != nil && d.DueDate.Before(*d.Date) {
		errs.add("due_date", "must not be earlier than date")
	}

	for i, item := range d.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if item.ProductId <= 0 && strings.TrimSpace(item.Description) == "" {
			errs.add(prefix+"product", "product or description is required")
		}
		if !rules.AllowZeroPrice && !item.UnitPrice.IsPositive() {
			errs.add(prefix+"unit_price", "must be greater than 0")
		}
		if !item.DiscountType.IsValid() {
			errs.add(prefix+"discount_type", "is invalid")
		} else if item.DiscountType.IsPercentage() && item.Discount.GreaterThan(hundred) {
			errs.add(prefix+"discount", "must be at most 100")
		}
	}

	if !d.OrderDiscountType.IsValid() {
		errs.add("order_discount_type", "is invalid")
	} else if d.OrderDiscountType.IsPercentage() {
		if d.OrderDiscount.GreaterThan(hundred) {
			errs.add("order_discount", "must be at most 100")
		}
	} else if len(d.Items) > 0 && d.OrderDiscount.GreaterThan(subtotalOf(d.Items)) {
		errs.add("order_discount", "must not exceed the subtotal")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
