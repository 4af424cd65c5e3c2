package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const cashFlowMonthLayout = "2006-Jan"

type CashFlowReponse struct {
	TotalOpeningBalance decimal.Decimal   `json:"total_opening_balance"`
	TotalIncomingAmount decimal.Decimal   `json:"total_incoming_amount"`
	TotalOutgoingAmount decimal.Decimal   `json:"total_outgoing_amount"`
	TotalEndingBalance  decimal.Decimal   `json:"total_ending_balance"`
	CashFlowDetails     []CashFlowDetails `json:"cash_flow_details"`
}

type CashFlowDetails struct {
	Month          string          `json:"month"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	IncomingAmount decimal.Decimal `json:"incoming_amount"`
	OutgoingAmount decimal.Decimal `json:"outgoing_amount"`
	EndingBalance  decimal.Decimal `json:"ending_balance"`
	Forecast       bool            `json:"forecast,omitempty"`
}

type CashFlowForecast struct {
	TrailingMonths  int               `json:"trailing_months"`
	AverageIncoming decimal.Decimal   `json:"average_incoming"`
	AverageOutgoing decimal.Decimal   `json:"average_outgoing"`
	Details         []CashFlowDetails `json:"details"`
}

// cash movements: completed sales come in, completed purchases and all expenses go out
type cashSource struct {
	table    string
	status   models.OrderStatus
	incoming bool
}

var cashSources = []cashSource{
	{table: "orders", status: models.OrderStatusCompleted, incoming: true},
	{table: "purchase_orders", status: models.OrderStatusCompleted},
	{table: "expenses"},
}

// GetCashFlow returns month by month cash movement for [from, to). The opening
// balance is the net of everything dated before from.
func GetCashFlow(ctx context.Context, from, to time.Time) (*CashFlowReponse, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("to date is earlier than from date")
	}
	start := time.Now()
	defer logSlowReport(ctx, "cash_flow", start, logrus.Fields{"from": from, "to": to})

	key := fmt.Sprintf("report:cash_flow:%s:%s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	return cached(key, func() (*CashFlowReponse, error) {
		opening := decimal.Zero
		incoming := map[string]decimal.Decimal{}
		outgoing := map[string]decimal.Decimal{}
		for _, src := range cashSources {
			before, err := src.sumBefore(ctx, from)
			if err != nil {
				return nil, err
			}
			monthly, err := src.monthly(ctx, from, to)
			if err != nil {
				return nil, err
			}
			target := outgoing
			if src.incoming {
				opening = opening.Add(before)
				target = incoming
			} else {
				opening = opening.Sub(before)
			}
			for month, amount := range monthly {
				target[month] = target[month].Add(amount)
			}
		}
		// to is exclusive
		months := utils.MonthKeys(from, to.Add(-time.Nanosecond))
		return BuildCashFlow(months, opening, incoming, outgoing), nil
	})
}

func (src cashSource) where() (string, []interface{}) {
	if src.status == "" {
		return "", nil
	}
	return " AND status = ?", []interface{}{src.status}
}

func (src cashSource) sumBefore(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	cond, args := src.where()
	var total decimal.Decimal
	sql := "SELECT COALESCE(SUM(total_payment), 0) FROM " + src.table + " WHERE date < ?" + cond
	err := config.GetDB().WithContext(ctx).Raw(sql, append([]interface{}{from}, args...)...).Scan(&total).Error
	return total, err
}

func (src cashSource) monthly(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error) {
	cond, args := src.where()
	sql := `SELECT DATE_FORMAT(date, '%Y-%m') AS month, COALESCE(SUM(total_payment), 0) AS amount
		FROM ` + src.table + `
		WHERE date >= ? AND date < ?` + cond + `
		GROUP BY month`
	var rows []struct {
		Month  string
		Amount decimal.Decimal
	}
	err := config.GetDB().WithContext(ctx).Raw(sql, append([]interface{}{from, to}, args...)...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	results := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		results[r.Month] = r.Amount
	}
	return results, nil
}

// BuildCashFlow chains monthly balances starting from opening. Months are
// "YYYY-MM" keys; months with no movement still get a row.
func BuildCashFlow(months []string, opening decimal.Decimal, incoming, outgoing map[string]decimal.Decimal) *CashFlowReponse {
	response := &CashFlowReponse{
		TotalOpeningBalance: opening,
		TotalIncomingAmount: decimal.Zero,
		TotalOutgoingAmount: decimal.Zero,
		TotalEndingBalance:  opening,
		CashFlowDetails:     []CashFlowDetails{},
	}
	balance := opening
	for _, key := range months {
		in, out := incoming[key], outgoing[key]
		detail := CashFlowDetails{
			Month:          formatMonth(key),
			OpeningBalance: balance,
			IncomingAmount: in,
			OutgoingAmount: out,
			EndingBalance:  balance.Add(in).Sub(out),
		}
		balance = detail.EndingBalance
		response.CashFlowDetails = append(response.CashFlowDetails, detail)
		response.TotalIncomingAmount = response.TotalIncomingAmount.Add(in)
		response.TotalOutgoingAmount = response.TotalOutgoingAmount.Add(out)
	}
	response.TotalEndingBalance = balance
	return response
}

func formatMonth(key string) string {
	month, err := time.Parse(utils.MonthKeyLayout, key)
	if err != nil {
		return key
	}
	return month.Format(cashFlowMonthLayout)
}

// ForecastCashFlow projects months ahead by carrying forward the average
// incoming and outgoing amounts of the last trailing months of history.
func ForecastCashFlow(history *CashFlowReponse, trailing, months int) CashFlowForecast {
	forecast := CashFlowForecast{
		AverageIncoming: decimal.Zero,
		AverageOutgoing: decimal.Zero,
		Details:         []CashFlowDetails{},
	}
	if history == nil || len(history.CashFlowDetails) == 0 || months <= 0 {
		return forecast
	}
	details := history.CashFlowDetails
	if trailing <= 0 || trailing > len(details) {
		trailing = len(details)
	}
	window := details[len(details)-trailing:]
	for _, d := range window {
		forecast.AverageIncoming = forecast.AverageIncoming.Add(d.IncomingAmount)
		forecast.AverageOutgoing = forecast.AverageOutgoing.Add(d.OutgoingAmount)
	}
	n := decimal.NewFromInt(int64(trailing))
	forecast.TrailingMonths = trailing
	forecast.AverageIncoming = forecast.AverageIncoming.DivRound(n, 2)
	forecast.AverageOutgoing = forecast.AverageOutgoing.DivRound(n, 2)

	last := details[len(details)-1]
	month, err := time.Parse(cashFlowMonthLayout, last.Month)
	if err != nil {
		return forecast
	}
	balance := last.EndingBalance
	for i := 0; i < months; i++ {
		month = month.AddDate(0, 1, 0)
		detail := CashFlowDetails{
			Month:          month.Format(cashFlowMonthLayout),
			OpeningBalance: balance,
			IncomingAmount: forecast.AverageIncoming,
			OutgoingAmount: forecast.AverageOutgoing,
			EndingBalance:  balance.Add(forecast.AverageIncoming).Sub(forecast.AverageOutgoing),
			Forecast:       true,
		}
		balance = detail.EndingBalance
		forecast.Details = append(forecast.Details, detail)
	}
	return forecast
}
