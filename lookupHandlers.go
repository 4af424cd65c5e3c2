package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/middlewares"
	"github.com/mmdatafocus/distribution_backend/models"
)

func registerLookups(r gin.IRouter) {
	g := r.Group("/lookups", middlewares.RequireUser())
	g.GET("/customers", lookupHandler(models.ListCustomers))
	g.GET("/products", lookupHandler(models.ListProducts))
	g.GET("/suppliers", lookupHandler(models.ListSuppliers))

	m := r.Group("", middlewares.RequireManager())
	m.POST("/customers", createHandler(models.CreateCustomer))
	m.POST("/products", createHandler(models.CreateProduct))
	m.POST("/suppliers", createHandler(models.CreateSupplier))

	r.POST("/pricing/preview", middlewares.RequireUser(), pricingPreview)
}

func lookupHandler[T any](list func(ctx context.Context) ([]*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := list(c.Request.Context())
		if err != nil {
			respondError(c, "lookup", err)
			return
		}
		respondOK(c, http.StatusOK, results)
	}
}

func createHandler[In any, T any](save func(ctx context.Context, input *In) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input In
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, "create", forms.FieldErrors{"body": "invalid request body"})
			return
		}
		result, err := save(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "create", err)
			return
		}
		respondOK(c, http.StatusCreated, result)
	}
}

type previewResponse struct {
	Draft       *forms.Draft      `json:"draft"`
	FieldErrors forms.FieldErrors `json:"field_errors,omitempty"`
}

// pricingPreview recomputes totals for an unsaved draft. Validation problems
// are reported alongside the totals rather than failing the request.
func pricingPreview(c *gin.Context) {
	var d forms.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		respondError(c, "pricingPreview", forms.FieldErrors{"body": "invalid request body"})
		return
	}
	if !d.Kind.IsValid() {
		d.Kind = forms.KindOrder
	}
	d.Recompute()
	respondOK(c, http.StatusOK, previewResponse{Draft: &d, FieldErrors: forms.Validate(&d)})
}
