package models

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseSequence(t *testing.T) {
	cases := []struct {
		code, prefix string
		want         int64
		ok           bool
	}{
		{"SO-000042", "SO", 42, true},
		{"PO-000001", "PO", 1, true},
		{"PO-000001", "SO", 0, false},
		{"SO-abc", "SO", 0, false},
		{"SO-000000", "SO", 0, false},
		{"SO-", "SO", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseSequence(tc.code, tc.prefix)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseSequence(%q, %q) = %d, %v; want %d, %v", tc.code, tc.prefix, got, ok, tc.want, tc.ok)
		}
	}
	if code := documentCode(expenseCodePrefix, 7); code != "EX-000007" {
		t.Fatalf("unexpected code %q", code)
	}
}

func storedOrder() *Order {
	tax := dec("11")
	o := &Order{ID: 9, CustomerId: 3, Status: OrderStatusNew}
	o.Code = "SO-000009"
	o.Date = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	o.TaxPercentage = &tax
	o.OrderDiscountType = pricing.DiscountTypeAmount
	o.Items = []OrderItem{{ID: 1, OrderId: 9, LineItem: LineItem{
		ProductId:    1,
		Quantity:     dec("2"),
		UnitPrice:    dec("100000"),
		Discount:     dec("10000"),
		DiscountType: pricing.DiscountTypeAmount,
	}}}
	return o
}

func TestOrderDraftRecomputesStoredInputs(t *testing.T) {
	o := storedOrder()
	d := o.Draft()
	if d.Kind != forms.KindOrder || d.PartyId != 3 || d.Code != "SO-000009" {
		t.Fatalf("unexpected draft header %+v", d)
	}
	if !d.Totals.TotalPayment.Equal(dec("199800")) || !d.Items[0].TotalPrice.Equal(dec("180000")) {
		t.Fatalf("expected 199800 / 180000, got %s / %s", d.Totals.TotalPayment, d.Items[0].TotalPrice)
	}
	if errs := forms.Validate(d); errs != nil {
		t.Fatalf("stored order should round-trip to a valid draft, got %v", errs)
	}
}

func TestTotalsDrifted(t *testing.T) {
	o := storedOrder()
	d := o.Draft()
	if !o.totalsDrifted(d, o.lines()) {
		t.Fatalf("zero stored totals must count as drifted")
	}

	o.applyDraft(d)
	o.Items[0].TotalPrice = d.Totals.LineTotals[0]
	if o.totalsDrifted(d, o.lines()) {
		t.Fatalf("freshly applied totals must not drift")
	}

	o.Items[0].TotalPrice = dec("1")
	if !o.totalsDrifted(d, o.lines()) {
		t.Fatalf("a stale line total must count as drifted")
	}
}

func TestApplyDraftDefaultsDiscountType(t *testing.T) {
	d := forms.NewDraft(forms.KindOrder, "SO-000001", time.Now())
	d.OrderDiscountType = ""
	var h DocumentHeader
	h.applyDraft(d)
	if h.OrderDiscountType != pricing.DiscountTypeAmount {
		t.Fatalf("expected AMOUNT, got %q", h.OrderDiscountType)
	}
	lines := lineItemsFromDraft([]forms.Item{{Description: "  crate  "}})
	if lines[0].DiscountType != pricing.DiscountTypeAmount || lines[0].Description != "crate" {
		t.Fatalf("unexpected line %+v", lines[0])
	}
}

func TestFilterScopedToUser(t *testing.T) {
	f := DocumentFilter{CreatedBy: 4}
	sales := appctx.CurrentUser{ID: 7, Role: appctx.RoleSales}
	owner := appctx.CurrentUser{ID: 1, Role: appctx.RoleOwner}

	if got := f.scopedTo(sales).CreatedBy; got != 7 {
		t.Fatalf("sales must only see own records, got created_by=%d", got)
	}
	if got := f.scopedTo(owner).CreatedBy; got != 4 {
		t.Fatalf("owner filter must be kept, got created_by=%d", got)
	}
	if got := (DocumentFilter{}).scopedTo(owner).CreatedBy; got != 0 {
		t.Fatalf("owner without filter sees all, got created_by=%d", got)
	}
}

func TestOrderStatusJSON(t *testing.T) {
	var s OrderStatus
	if err := json.Unmarshal([]byte(`"in_process"`), &s); err != nil || s != OrderStatusInProcess {
		t.Fatalf("expected IN_PROCESS, got %q (%v)", s, err)
	}
	if err := json.Unmarshal([]byte(`"SHIPPED"`), &s); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if OrderStatusPendingConfirmation.Label() != "Pending Confirmation" {
		t.Fatalf("unexpected label %q", OrderStatusPendingConfirmation.Label())
	}
	if !OrderStatusCanceled.IsTerminal() || OrderStatusInProcess.IsTerminal() {
		t.Fatalf("unexpected terminal set")
	}
}

func TestExpenseCategory(t *testing.T) {
	d := forms.NewDraft(forms.KindExpense, "EX-000001", time.Now())
	if c, err := expenseCategory(d); err != nil || c != ExpenseCategoryOther {
		t.Fatalf("empty category should default to OTHER, got %q (%v)", c, err)
	}
	d.Category = "transport"
	if c, err := expenseCategory(d); err != nil || c != ExpenseCategoryTransport {
		t.Fatalf("expected TRANSPORT, got %q (%v)", c, err)
	}
	d.Category = "fuel"
	_, err := expenseCategory(d)
	if fe, ok := err.(forms.FieldErrors); !ok || fe["category"] == "" {
		t.Fatalf("expected category field error, got %v", err)
	}
}

func TestValidateInputUsesJsonNames(t *testing.T) {
	err := validateInput(&NewCustomer{})
	fe, ok := err.(forms.FieldErrors)
	if !ok || fe["name"] != "required" {
		t.Fatalf("expected name required, got %v", err)
	}
}

func TestNewVisitCoordinates(t *testing.T) {
	lat := dec("-6.2")
	lon := dec("200")
	cases := []struct {
		name  string
		input NewVisit
		field string
	}{
		{"latitude alone", NewVisit{CustomerId: 1, Latitude: &lat}, "latitude"},
		{"longitude out of range", NewVisit{CustomerId: 1, Latitude: &lat, Longitude: &lon}, "longitude"},
		{"bad phone", NewVisit{CustomerId: 1, ContactPhone: "12"}, "contact_phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.validate(context.Background())
			fe, ok := err.(forms.FieldErrors)
			if !ok || fe[tc.field] == "" {
				t.Fatalf("expected %s error, got %v", tc.field, err)
			}
		})
	}
}

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "root:pw@tcp(127.0.0.1:3306)/distribution?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestSaveContentLeavesStatusAlone(t *testing.T) {
	db := dryRunDB(t)
	order := Order{ID: 5, CustomerId: 7, Status: OrderStatusNew}
	order.Code = "SO-000005"
	order.TotalPayment = dec("199800")
	order.CreatedBy = 2

	po := PurchaseOrder{ID: 6, Status: OrderStatusCompleted}
	po.Code = "PO-000006"

	for name, doc := range map[string]interface{}{"order": &order, "purchase order": &po} {
		res := saveContent(db, doc)
		if res.Error != nil {
			t.Fatalf("%s: %v", name, res.Error)
		}
		sql := res.Statement.SQL.String()
		if !strings.HasPrefix(sql, "UPDATE") || !strings.Contains(sql, "`total_payment`") {
			t.Fatalf("%s: expected a content update, got %s", name, sql)
		}
		for _, col := range []string{"`status`", "`created_by`"} {
			if strings.Contains(sql, col) {
				t.Fatalf("%s: content save must not write %s: %s", name, col, sql)
			}
		}
	}
}
