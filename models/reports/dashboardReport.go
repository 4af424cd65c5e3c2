package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
	Total  decimal.Decimal    `json:"total"`
}

type DashboardSummary struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	Orders          []StatusCount   `json:"orders"`
	OrderCount      int64           `json:"order_count"`
	SalesTotal      decimal.Decimal `json:"sales_total"`
	OpenOrdersTotal decimal.Decimal `json:"open_orders_total"`
	PurchaseTotal   decimal.Decimal `json:"purchase_total"`
	ExpenseTotal    decimal.Decimal `json:"expense_total"`
	NetTotal        decimal.Decimal `json:"net_total"`
}

// GetDashboardSummary aggregates documents dated in [from, to). Sales users only
// see what they created.
func GetDashboardSummary(ctx context.Context, user appctx.CurrentUser, from, to time.Time) (*DashboardSummary, error) {
	if user.IsZero() {
		return nil, utils.ErrorUnauthorized
	}
	start := time.Now()
	defer logSlowReport(ctx, "dashboard_summary", start, logrus.Fields{"from": from, "to": to})

	scope := 0
	if !user.IsManager() {
		scope = user.ID
	}
	key := fmt.Sprintf("report:dashboard_summary:%d:%s:%s", scope, from.Format(time.DateOnly), to.Format(time.DateOnly))
	return cached(key, func() (*DashboardSummary, error) {
		return querySummary(ctx, scope, from, to)
	})
}

func querySummary(ctx context.Context, createdBy int, from, to time.Time) (*DashboardSummary, error) {
	db := config.GetDB()
	scoped := func(dbCtx *gorm.DB) *gorm.DB {
		dbCtx = dbCtx.Where("date >= ? AND date < ?", from, to)
		if createdBy > 0 {
			dbCtx = dbCtx.Where("created_by = ?", createdBy)
		}
		return dbCtx
	}

	var rows []StatusCount
	err := scoped(db.WithContext(ctx).Model(&models.Order{})).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_payment), 0) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var purchases, expenses decimal.Decimal
	err = scoped(db.WithContext(ctx).Model(&models.PurchaseOrder{})).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(total_payment), 0)").
		Scan(&purchases).Error
	if err != nil {
		return nil, err
	}
	err = scoped(db.WithContext(ctx).Model(&models.Expense{})).
		Select("COALESCE(SUM(total_payment), 0)").
		Scan(&expenses).Error
	if err != nil {
		return nil, err
	}

	summary := summarizeOrders(rows)
	summary.From = from
	summary.To = to
	summary.PurchaseTotal = purchases
	summary.ExpenseTotal = expenses
	summary.NetTotal = summary.SalesTotal.Sub(purchases).Sub(expenses)
	return summary, nil
}

// summarizeOrders lays rows out in pipeline order, zero-filling missing statuses.
func summarizeOrders(rows []StatusCount) *DashboardSummary {
	byStatus := make(map[models.OrderStatus]StatusCount, len(rows))
	for _, r := range rows {
		byStatus[r.Status] = r
	}
	summary := &DashboardSummary{
		Orders:          make([]StatusCount, 0, len(models.OrderStatusPipeline)),
		SalesTotal:      decimal.Zero,
		OpenOrdersTotal: decimal.Zero,
	}
	for _, status := range models.OrderStatusPipeline {
		row, ok := byStatus[status]
		if !ok {
			row = StatusCount{Status: status, Total: decimal.Zero}
		}
		summary.Orders = append(summary.Orders, row)
		summary.OrderCount += row.Count
		switch {
		case status == models.OrderStatusCompleted:
			summary.SalesTotal = summary.SalesTotal.Add(row.Total)
		case !status.IsTerminal():
			summary.OpenOrdersTotal = summary.OpenOrdersTotal.Add(row.Total)
		}
	}
	return summary
}
