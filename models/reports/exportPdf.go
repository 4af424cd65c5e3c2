package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/pricing"
	"github.com/shopspring/decimal"
)

const PdfContentType = "application/pdf"

var orderPdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Product", 70, "L"},
	{"Qty", 20, "R"},
	{"Unit Price", 30, "R"},
	{"Discount", 30, "R"},
	{"Total", 40, "R"},
}

// WriteOrderPDF renders a printable sales order.
func WriteOrderPDF(w io.Writer, order *models.Order, customerName string, productNames map[int]string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(order.Code, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Sales Order "+order.Code, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Customer: "+customerName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+order.Date.Format(time.DateOnly), "", 1, "L", false, 0, "")
	if order.DueDate != nil {
		pdf.CellFormat(0, 6, "Due: "+order.DueDate.Format(time.DateOnly), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Status: "+order.Status.Label(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range orderPdfColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		name := productNames[item.ProductId]
		if item.Description != "" {
			name = fmt.Sprintf("%s (%s)", name, item.Description)
		}
		discount := money(item.Discount)
		if item.DiscountType == pricing.DiscountTypePercentage {
			discount = item.Discount.String() + "%"
		}
		cells := []string{tr(name), item.Quantity.String(), money(item.UnitPrice), discount, money(item.TotalPrice)}
		for i, c := range orderPdfColumns {
			pdf.CellFormat(c.width, 7, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	totals := [][2]string{
		{"Subtotal", money(order.Subtotal)},
		{"Discount", money(order.TotalDiscount)},
		{"Tax", money(order.TotalTax)},
		{"Shipping", money(order.ShippingCost)},
		{"Total", money(order.TotalPayment)},
	}
	for i, row := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Helvetica", "B", 10)
		}
		pdf.CellFormat(150, 6, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, row[1], "", 1, "R", false, 0, "")
	}
	if order.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(order.Notes), "", "L", false)
	}
	return pdf.Output(w)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
