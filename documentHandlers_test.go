package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
)

func newExpenseRouter(stored *models.Expense, updated **forms.Draft) *gin.Engine {
	gin.SetMode(gin.TestMode)
	docs := expenseDocuments()
	docs.get = func(_ context.Context, id int) (*models.Expense, error) {
		if id != stored.ID {
			return nil, utils.ErrorRecordNotFound
		}
		return stored, nil
	}
	docs.update = func(_ context.Context, _ appctx.CurrentUser, _ int, d *forms.Draft) (*models.Expense, error) {
		*updated = d
		out := *stored
		out.TotalPayment = d.Totals.TotalPayment
		return &out, nil
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.SetCurrentUser(c.Request.Context(), sales))
		c.Next()
	})
	docs.routes(r.Group("/expenses"))
	return r
}

func TestUpdateDocumentKeepsStoredCode(t *testing.T) {
	stored := &models.Expense{ID: 4}
	stored.Code = "EX-000009"
	stored.CreatedBy = sales.ID

	cases := []struct {
		name string
		code any
	}{
		{"code omitted", nil},
		{"code changed by client", "EX-999999"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var updated *forms.Draft
			body := validDraftBody()
			delete(body, "party_id")
			delete(body, "code")
			if tc.code != nil {
				body["code"] = tc.code
			}
			w, env := do(t, newExpenseRouter(stored, &updated), http.MethodPut, "/expenses/4", body)
			if w.Code != http.StatusOK || !env.Success {
				t.Fatalf("expected 200, got %d %+v", w.Code, env)
			}
			if updated == nil || updated.Code != "EX-000009" {
				t.Fatalf("update must receive the stored code, got %+v", updated)
			}
		})
	}
}
