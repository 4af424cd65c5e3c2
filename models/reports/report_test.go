package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildCashFlowChainsBalances(t *testing.T) {
	resp := BuildCashFlow(
		[]string{"2025-01", "2025-02", "2025-03"},
		d(1000),
		map[string]decimal.Decimal{"2025-01": d(500), "2025-03": d(300)},
		map[string]decimal.Decimal{"2025-01": d(200), "2025-02": d(100)},
	)
	if len(resp.CashFlowDetails) != 3 {
		t.Fatalf("expected 3 months, got %d", len(resp.CashFlowDetails))
	}
	wantEnding := []int64{1300, 1200, 1500}
	for i, detail := range resp.CashFlowDetails {
		if !detail.EndingBalance.Equal(d(wantEnding[i])) {
			t.Fatalf("month %d: expected ending %d, got %s", i, wantEnding[i], detail.EndingBalance)
		}
		if i > 0 && !detail.OpeningBalance.Equal(resp.CashFlowDetails[i-1].EndingBalance) {
			t.Fatalf("month %d opening does not carry previous ending", i)
		}
	}
	if resp.CashFlowDetails[1].Month != "2025-Feb" {
		t.Fatalf("unexpected month label %q", resp.CashFlowDetails[1].Month)
	}
	if !resp.TotalIncomingAmount.Equal(d(800)) || !resp.TotalOutgoingAmount.Equal(d(300)) ||
		!resp.TotalOpeningBalance.Equal(d(1000)) || !resp.TotalEndingBalance.Equal(d(1500)) {
		t.Fatalf("unexpected totals %+v", resp)
	}
}

func TestBuildCashFlowNoMonths(t *testing.T) {
	resp := BuildCashFlow(nil, d(50), nil, nil)
	if len(resp.CashFlowDetails) != 0 || !resp.TotalEndingBalance.Equal(d(50)) {
		t.Fatalf("unexpected %+v", resp)
	}
}

func TestForecastCashFlow(t *testing.T) {
	history := BuildCashFlow(
		[]string{"2025-10", "2025-11", "2025-12"},
		d(0),
		map[string]decimal.Decimal{"2025-10": d(900), "2025-11": d(300), "2025-12": d(600)},
		map[string]decimal.Decimal{"2025-10": d(100), "2025-11": d(200), "2025-12": d(300)},
	)
	forecast := ForecastCashFlow(history, 2, 2)
	if forecast.TrailingMonths != 2 {
		t.Fatalf("expected trailing 2, got %d", forecast.TrailingMonths)
	}
	if !forecast.AverageIncoming.Equal(d(450)) || !forecast.AverageOutgoing.Equal(d(250)) {
		t.Fatalf("unexpected averages in=%s out=%s", forecast.AverageIncoming, forecast.AverageOutgoing)
	}
	if len(forecast.Details) != 2 {
		t.Fatalf("expected 2 forecast months, got %d", len(forecast.Details))
	}
	first, second := forecast.Details[0], forecast.Details[1]
	if first.Month != "2026-Jan" || second.Month != "2026-Feb" {
		t.Fatalf("unexpected months %q %q", first.Month, second.Month)
	}
	// history ends at 1200
	if !first.OpeningBalance.Equal(d(1200)) || !first.EndingBalance.Equal(d(1400)) || !second.EndingBalance.Equal(d(1600)) {
		t.Fatalf("unexpected balances %+v %+v", first, second)
	}
	if !first.Forecast {
		t.Fatalf("forecast rows must be flagged")
	}
}

func TestForecastCashFlowEdges(t *testing.T) {
	if f := ForecastCashFlow(nil, 3, 3); len(f.Details) != 0 {
		t.Fatalf("nil history must not forecast")
	}
	history := BuildCashFlow([]string{"2025-01"}, d(0), map[string]decimal.Decimal{"2025-01": d(10)}, nil)
	f := ForecastCashFlow(history, 12, 1)
	if f.TrailingMonths != 1 || !f.AverageIncoming.Equal(d(10)) {
		t.Fatalf("trailing must clip to history, got %+v", f)
	}
	if f := ForecastCashFlow(history, 1, 0); len(f.Details) != 0 {
		t.Fatalf("zero months must not forecast")
	}
}

func TestSummarizeOrders(t *testing.T) {
	summary := summarizeOrders([]StatusCount{
		{Status: models.OrderStatusCompleted, Count: 2, Total: d(500)},
		{Status: models.OrderStatusNew, Count: 1, Total: d(100)},
		{Status: models.OrderStatusCanceled, Count: 4, Total: d(999)},
		{Status: models.OrderStatusInProcess, Count: 1, Total: d(50)},
	})
	if len(summary.Orders) != len(models.OrderStatusPipeline) {
		t.Fatalf("expected every status, got %d", len(summary.Orders))
	}
	for i, s := range models.OrderStatusPipeline {
		if summary.Orders[i].Status != s {
			t.Fatalf("row %d: expected %s, got %s", i, s, summary.Orders[i].Status)
		}
	}
	if summary.Orders[1].Count != 0 || !summary.Orders[1].Total.IsZero() {
		t.Fatalf("missing status must be zero-filled, got %+v", summary.Orders[1])
	}
	if summary.OrderCount != 8 || !summary.SalesTotal.Equal(d(500)) || !summary.OpenOrdersTotal.Equal(d(150)) {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func sampleOrders() []*models.Order {
	o := &models.Order{ID: 1, CustomerId: 7, Status: models.OrderStatusPendingConfirmation}
	o.Code = "SO-000001"
	o.Date = time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	o.Subtotal = d(200000)
	o.TotalDiscount = d(20000)
	o.TotalTax = d(19800)
	o.TotalPayment = d(199800)
	o.CreatedByName = "Sales, Jakarta"
	o.Items = []models.OrderItem{{}}
	o.Items[0].ProductId = 3
	o.Items[0].Quantity = d(2)
	o.Items[0].UnitPrice = d(100000)
	o.Items[0].TotalPrice = d(200000)
	return []*models.Order{o}
}

func TestOrderTableCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := OrderTable(sampleOrders(), map[int]string{7: "Toko Maju"}).WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "Code,Date,Customer,Status") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := `SO-000001,2025-03-04,Toko Maju,Pending Confirmation,200000.00,20000.00,19800.00,0.00,199800.00,"Sales, Jakarta"`
	if lines[1] != want {
		t.Fatalf("unexpected row\n got %q\nwant %q", lines[1], want)
	}
}

func TestCashFlowTableExcel(t *testing.T) {
	resp := BuildCashFlow([]string{"2025-01"}, d(100), map[string]decimal.Decimal{"2025-01": d(50)}, nil)
	var buf bytes.Buffer
	if err := CashFlowTable(resp).WriteExcel(&buf); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	header, _ := f.GetCellValue(excelSheet, "A1")
	month, _ := f.GetCellValue(excelSheet, "A2")
	ending, _ := f.GetCellValue(excelSheet, "E2")
	total, _ := f.GetCellValue(excelSheet, "A3")
	if header != "Month" || month != "2025-Jan" || ending != "150" || total != "Total" {
		t.Fatalf("unexpected cells %q %q %q %q", header, month, ending, total)
	}
}

func TestWriteOrderPDF(t *testing.T) {
	order := sampleOrders()[0]
	order.Notes = "Deliver before noon"
	var buf bytes.Buffer
	if err := WriteOrderPDF(&buf, order, "Toko Maju", map[int]string{3: "Crate"}); err != nil {
		t.Fatalf("WriteOrderPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf")
	}
}
