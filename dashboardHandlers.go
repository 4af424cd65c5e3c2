package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/middlewares"
	"github.com/mmdatafocus/distribution_backend/models/reports"
	"github.com/mmdatafocus/distribution_backend/utils"
)

const (
	defaultForecastMonths = 3
	maxForecastMonths     = 24
)

func registerDashboard(r gin.IRouter) {
	g := r.Group("/dashboard", middlewares.RequireUser())
	g.GET("/summary", dashboardSummary)
	g.GET("/cashflow", middlewares.RequireManager(), cashFlow)
	g.GET("/cashflow/export", middlewares.RequireManager(), exportCashFlow)
}

func dateRange(c *gin.Context) (time.Time, time.Time, error) {
	from, to, err := utils.ParseDateRange(c.Query("from"), c.Query("to"), time.Now())
	if err != nil {
		return from, to, forms.FieldErrors{"from": err.Error()}
	}
	return from, to, nil
}

func dashboardSummary(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		respondError(c, "dashboardSummary", err)
		return
	}
	summary, err := reports.GetDashboardSummary(c.Request.Context(), currentUser(c), from, to)
	if err != nil {
		respondError(c, "dashboardSummary", err)
		return
	}
	respondOK(c, http.StatusOK, summary)
}

type cashFlowResponse struct {
	*reports.CashFlowReponse
	Forecast reports.CashFlowForecast `json:"forecast"`
}

// cashFlow defaults to the trailing six months when no range is given.
func cashFlow(c *gin.Context) {
	resp, ok := loadCashFlow(c, "cashFlow")
	if !ok {
		return
	}
	months, err := queryInt(c, "forecast_months")
	if err != nil {
		respondError(c, "cashFlow", err)
		return
	}
	if months == 0 {
		months = defaultForecastMonths
	}
	months = min(months, maxForecastMonths)
	trailing, err := queryInt(c, "trailing_months")
	if err != nil {
		respondError(c, "cashFlow", err)
		return
	}
	if trailing == 0 {
		trailing = defaultForecastMonths
	}
	respondOK(c, http.StatusOK, cashFlowResponse{
		CashFlowReponse: resp,
		Forecast:        reports.ForecastCashFlow(resp, trailing, months),
	})
}

func exportCashFlow(c *gin.Context) {
	resp, ok := loadCashFlow(c, "exportCashFlow")
	if !ok {
		return
	}
	writeTable(c, reports.CashFlowTable(resp), "cashflow")
}

func loadCashFlow(c *gin.Context, funcName string) (*reports.CashFlowReponse, bool) {
	var from, to time.Time
	if c.Query("from") == "" && c.Query("to") == "" {
		now := time.Now()
		to = utils.MonthStart(now).AddDate(0, 1, 0)
		from = to.AddDate(0, -6, 0)
	} else {
		var err error
		if from, to, err = dateRange(c); err != nil {
			respondError(c, funcName, err)
			return nil, false
		}
	}
	resp, err := reports.GetCashFlow(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, funcName, err)
		return nil, false
	}
	return resp, true
}
