package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/middlewares"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/models/reports"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/mmdatafocus/distribution_backend/workflow"
)

// OrderStore is the persistence the order handlers need.
type OrderStore interface {
	NewDraft(ctx context.Context, now time.Time) (*forms.Draft, error)
	Get(ctx context.Context, id int) (*models.Order, error)
	List(ctx context.Context, user appctx.CurrentUser, filter models.DocumentFilter) ([]*models.Order, int64, error)
	Create(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (*models.Order, error)
	Update(ctx context.Context, user appctx.CurrentUser, id int, d *forms.Draft) (*models.Order, error)
	Delete(ctx context.Context, user appctx.CurrentUser, id int) (*models.Order, error)
	History(ctx context.Context, id int) ([]*models.History, error)
}

type gormOrders struct{}

func (gormOrders) NewDraft(ctx context.Context, now time.Time) (*forms.Draft, error) {
	return models.NewOrderDraft(ctx, now)
}

func (gormOrders) Get(ctx context.Context, id int) (*models.Order, error) {
	return models.GetOrder(ctx, id)
}

func (gormOrders) List(ctx context.Context, user appctx.CurrentUser, filter models.DocumentFilter) ([]*models.Order, int64, error) {
	return models.ListOrders(ctx, user, filter)
}

func (gormOrders) Create(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (*models.Order, error) {
	return models.CreateOrder(ctx, user, d)
}

func (gormOrders) Update(ctx context.Context, user appctx.CurrentUser, id int, d *forms.Draft) (*models.Order, error) {
	return models.UpdateOrder(ctx, user, id, d)
}

func (gormOrders) Delete(ctx context.Context, user appctx.CurrentUser, id int) (*models.Order, error) {
	return models.DeleteOrder(ctx, user, id)
}

func (gormOrders) History(ctx context.Context, id int) ([]*models.History, error) {
	return models.ListHistory(ctx, models.ReferenceTypeOrder, id)
}

type orderHandlers struct {
	store   OrderStore
	changer *workflow.StatusChanger
}

func newOrderHandlers(store OrderStore, changer *workflow.StatusChanger) *orderHandlers {
	return &orderHandlers{store: store, changer: changer}
}

func (h *orderHandlers) register(r gin.IRouter) {
	g := r.Group("/orders", middlewares.RequireUser())
	g.GET("", h.list)
	g.GET("/new", h.newDraft)
	g.GET("/export", h.export)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/transitions", h.transitions)
	g.PUT("/:id/status", h.changeStatus)
	g.GET("/:id/history", h.history)
	g.GET("/:id/pdf", h.pdf)
}

// load returns order id when the user may see it.
func (h *orderHandlers) load(c *gin.Context) (*models.Order, error) {
	id, err := paramId(c)
	if err != nil {
		return nil, err
	}
	order, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanViewOrder(currentUser(c), order) {
		return nil, utils.ErrorForbidden
	}
	return order, nil
}

func (h *orderHandlers) newDraft(c *gin.Context) {
	d, err := h.store.NewDraft(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, "newDraft", err)
		return
	}
	respondOK(c, http.StatusOK, d)
}

func (h *orderHandlers) list(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, "listOrders", err)
		return
	}
	orders, total, err := h.store.List(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, "listOrders", err)
		return
	}
	respondOK(c, http.StatusOK, listPage{Items: orders, Total: total})
}

func (h *orderHandlers) get(c *gin.Context) {
	order, err := h.load(c)
	if err != nil {
		respondError(c, "getOrder", err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

func (h *orderHandlers) create(c *gin.Context) {
	d, err := bindDraft(c, forms.KindOrder)
	if err != nil {
		respondError(c, "createOrder", err)
		return
	}
	res := forms.Submit(c.Request.Context(), currentUser(c), d, forms.PersisterFunc(
		func(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (any, error) {
			return h.store.Create(ctx, user, d)
		}))
	respondResult(c, res, http.StatusCreated)
}

func (h *orderHandlers) update(c *gin.Context) {
	order, err := h.load(c)
	if err != nil {
		respondError(c, "updateOrder", err)
		return
	}
	user := currentUser(c)
	if err := workflow.CanEditOrder(user, order); err != nil {
		respondError(c, "updateOrder", err)
		return
	}
	d, err := bindDraft(c, forms.KindOrder)
	if err != nil {
		respondError(c, "updateOrder", err)
		return
	}
	d.Code = order.Code
	res := forms.Submit(c.Request.Context(), user, d, forms.PersisterFunc(
		func(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (any, error) {
			return h.store.Update(ctx, user, order.ID, d)
		}))
	respondResult(c, res, http.StatusOK)
}

func (h *orderHandlers) delete(c *gin.Context) {
	order, err := h.load(c)
	if err != nil {
		respondError(c, "deleteOrder", err)
		return
	}
	user := currentUser(c)
	if err := workflow.CanEditOrder(user, order); err != nil {
		respondError(c, "deleteOrder", err)
		return
	}
	deleted, err := h.store.Delete(c.Request.Context(), user, order.ID)
	if err != nil {
		respondError(c, "deleteOrder", err)
		return
	}
	respondOK(c, http.StatusOK, deleted)
}

type transitionsResponse struct {
	Status      models.OrderStatus   `json:"status"`
	CanOperate  bool                 `json:"can_operate"`
	Transitions []models.OrderStatus `json:"transitions"`
}

// transitions lists the statuses the status control offers. Users who may not
// operate it get an empty list.
func (h *orderHandlers) transitions(c *gin.Context) {
	order, err := h.load(c)
	if err != nil {
		respondError(c, "orderTransitions", err)
		return
	}
	resp := transitionsResponse{Status: order.Status, Transitions: []models.OrderStatus{}}
	if workflow.CanOperateStatus(currentUser(c).Role) {
		resp.CanOperate = true
		resp.Transitions = workflow.AllowedTransitions(order.Status)
	}
	respondOK(c, http.StatusOK, resp)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *orderHandlers) changeStatus(c *gin.Context) {
	id, err := paramId(c)
	if err != nil {
		respondError(c, "changeOrderStatus", err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "changeOrderStatus", forms.FieldErrors{"status": "unknown status"})
		return
	}
	order, err := h.changer.ChangeOrderStatus(c.Request.Context(), currentUser(c), id, req.Status)
	if err != nil {
		respondError(c, "changeOrderStatus", err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

func (h *orderHandlers) history(c *gin.Context) {
	order, err := h.load(c)
	if err != nil {
		respondError(c, "orderHistory", err)
		return
	}
	rows, err := h.store.History(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, "orderHistory", err)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

func (h *orderHandlers) pdf(c *gin.Context) {
	order, err := h.load(c)
	if err != nil {
		respondError(c, "orderPdf", err)
		return
	}
	ctx := c.Request.Context()
	productIds := make([]int, len(order.Items))
	for i, item := range order.Items {
		productIds[i] = item.ProductId
	}
	customer := middlewares.CustomerNames(ctx, []int{order.CustomerId})[order.CustomerId]
	products := middlewares.ProductNames(ctx, productIds)

	c.Header("Content-Type", reports.PdfContentType)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", order.Code))
	if err := reports.WriteOrderPDF(c.Writer, order, customer, products); err != nil {
		respondError(c, "orderPdf", err)
	}
}

func (h *orderHandlers) export(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, "exportOrders", err)
		return
	}
	if filter.Limit == 0 {
		filter.Limit = maxListLimit
	}
	orders, _, err := h.store.List(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, "exportOrders", err)
		return
	}
	customerIds := make([]int, len(orders))
	for i, o := range orders {
		customerIds[i] = o.CustomerId
	}
	table := reports.OrderTable(orders, middlewares.CustomerNames(c.Request.Context(), customerIds))
	writeTable(c, table, "orders")
}

// writeTable sends table as xlsx (default) or csv depending on ?format.
func writeTable(c *gin.Context, table reports.Table, filename string) {
	var err error
	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		c.Header("Content-Type", reports.CsvContentType)
		c.Header("Content-Disposition", "attachment; filename="+filename+".csv")
		err = table.WriteCSV(c.Writer)
	case "xlsx":
		c.Header("Content-Type", reports.ExcelContentType)
		c.Header("Content-Disposition", "attachment; filename="+filename+".xlsx")
		err = table.WriteExcel(c.Writer)
	default:
		respondError(c, "writeTable", forms.FieldErrors{"format": "must be xlsx or csv"})
		return
	}
	if err != nil {
		respondError(c, "writeTable", err)
	}
}
