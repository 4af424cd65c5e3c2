package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/middlewares"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/workflow"
)

func purchaseOrderDocuments() *documentHandlers[models.PurchaseOrder] {
	return &documentHandlers[models.PurchaseOrder]{
		kind:      forms.KindPurchaseOrder,
		newDraft:  models.NewPurchaseOrderDraft,
		get:       models.GetPurchaseOrder,
		list:      models.ListPurchaseOrders,
		create:    models.CreatePurchaseOrder,
		update:    models.UpdatePurchaseOrder,
		remove:    models.DeletePurchaseOrder,
		createdBy: func(po *models.PurchaseOrder) int { return po.CreatedBy },
		code:      func(po *models.PurchaseOrder) string { return po.Code },
		canEdit: func(user appctx.CurrentUser, po *models.PurchaseOrder) error {
			return workflow.CanEditPurchaseOrder(user, po)
		},
	}
}

func registerPurchaseOrders(r gin.IRouter) {
	docs := purchaseOrderDocuments()
	g := r.Group("/purchase-orders", middlewares.RequireUser())
	docs.routes(g)
	g.PUT("/:id/status", middlewares.RequireManager(), changePurchaseOrderStatus)
	g.GET("/:id/history", func(c *gin.Context) {
		po, err := docs.load(c)
		if err != nil {
			respondError(c, "purchaseOrderHistory", err)
			return
		}
		rows, err := models.ListHistory(c.Request.Context(), models.ReferenceTypePurchaseOrder, po.ID)
		if err != nil {
			respondError(c, "purchaseOrderHistory", err)
			return
		}
		respondOK(c, http.StatusOK, rows)
	})
}

// Purchase orders have no transition rules; managers may set any status.
func changePurchaseOrderStatus(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		respondError(c, "changePurchaseOrderStatus", err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "changePurchaseOrderStatus", forms.FieldErrors{"status": "unknown status"})
		return
	}
	po, err := models.UpdatePurchaseOrderStatus(c.Request.Context(), currentUser(c), id, req.Status)
	if err != nil {
		respondError(c, "changePurchaseOrderStatus", err)
		return
	}
	respondOK(c, http.StatusOK, po)
}
