package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/middlewares"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/models/reports"
)

func expenseDocuments() *documentHandlers[models.Expense] {
	return &documentHandlers[models.Expense]{
		kind:      forms.KindExpense,
		newDraft:  models.NewExpenseDraft,
		get:       models.GetExpense,
		list:      models.ListExpenses,
		create:    models.CreateExpense,
		update:    models.UpdateExpense,
		remove:    models.DeleteExpense,
		createdBy: func(e *models.Expense) int { return e.CreatedBy },
		code:      func(e *models.Expense) string { return e.Code },
	}
}

func registerExpenses(r gin.IRouter, uploader Uploader) {
	docs := expenseDocuments()
	g := r.Group("/expenses", middlewares.RequireUser())
	g.GET("/export", exportExpenses)
	docs.routes(g)
	g.POST("/:id/receipt", func(c *gin.Context) {
		expense, err := docs.load(c)
		if err != nil {
			respondError(c, "uploadReceipt", err)
			return
		}
		user := currentUser(c)
		file, err := readUpload(c, "file")
		if err != nil {
			respondError(c, "uploadReceipt", err)
			return
		}
		stored, err := uploader.Store(c.Request.Context(), "expenses", file)
		if err != nil {
			respondError(c, "uploadReceipt", err)
			return
		}
		updated, err := models.SetExpenseReceipt(c.Request.Context(), user, expense.ID, stored.URL, stored.ThumbnailURL)
		if err != nil {
			respondError(c, "uploadReceipt", err)
			return
		}
		respondOK(c, http.StatusOK, updated)
	})
}

func exportExpenses(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, "exportExpenses", err)
		return
	}
	if filter.Limit == 0 {
		filter.Limit = maxListLimit
	}
	expenses, _, err := models.ListExpenses(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, "exportExpenses", err)
		return
	}
	supplierIds := make([]int, 0, len(expenses))
	for _, e := range expenses {
		if e.SupplierId > 0 {
			supplierIds = append(supplierIds, e.SupplierId)
		}
	}
	table := reports.ExpenseTable(expenses, middlewares.SupplierNames(c.Request.Context(), supplierIds))
	writeTable(c, table, "expenses")
}
