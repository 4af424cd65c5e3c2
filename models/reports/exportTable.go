package reports

import (
	"fmt"
	"time"

	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/shopspring/decimal"
)

// Table is a flat export: one header row then data rows.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.Format(time.DateOnly)
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format(time.DateOnly)
	case models.OrderStatus:
		return x.Label()
	}
	return fmt.Sprint(v)
}

// OrderTable lists orders with the customer shown by name when known.
func OrderTable(orders []*models.Order, customerNames map[int]string) Table {
	t := Table{
		Name:    "Orders",
		Headers: []string{"Code", "Date", "Customer", "Status", "Subtotal", "Discount", "Tax", "Shipping", "Total", "Created By"},
	}
	for _, o := range orders {
		t.Rows = append(t.Rows, []interface{}{
			o.Code, o.Date, customerNames[o.CustomerId], o.Status,
			o.Subtotal, o.TotalDiscount, o.TotalTax, o.ShippingCost, o.TotalPayment, o.CreatedByName,
		})
	}
	return t
}

func ExpenseTable(expenses []*models.Expense, supplierNames map[int]string) Table {
	t := Table{
		Name:    "Expenses",
		Headers: []string{"Code", "Date", "Category", "Supplier", "Subtotal", "Discount", "Tax", "Total", "Created By"},
	}
	for _, e := range expenses {
		t.Rows = append(t.Rows, []interface{}{
			e.Code, e.Date, string(e.Category), supplierNames[e.SupplierId],
			e.Subtotal, e.TotalDiscount, e.TotalTax, e.TotalPayment, e.CreatedByName,
		})
	}
	return t
}

func CashFlowTable(resp *CashFlowReponse) Table {
	t := Table{
		Name:    "Cash Flow",
		Headers: []string{"Month", "Opening Balance", "Incoming", "Outgoing", "Ending Balance"},
	}
	if resp == nil {
		return t
	}
	for _, d := range resp.CashFlowDetails {
		t.Rows = append(t.Rows, []interface{}{d.Month, d.OpeningBalance, d.IncomingAmount, d.OutgoingAmount, d.EndingBalance})
	}
	t.Rows = append(t.Rows, []interface{}{"Total", resp.TotalOpeningBalance, resp.TotalIncomingAmount, resp.TotalOutgoingAmount, resp.TotalEndingBalance})
	return t
}
