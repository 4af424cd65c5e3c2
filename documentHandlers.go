package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/mmdatafocus/distribution_backend/workflow"
)

// documentHandlers serves the draft based CRUD shared by purchase orders and expenses.
type documentHandlers[T any] struct {
	kind     forms.DocumentKind
	newDraft func(ctx context.Context, now time.Time) (*forms.Draft, error)
	get      func(ctx context.Context, id int) (*T, error)
	list     func(ctx context.Context, user appctx.CurrentUser, filter models.DocumentFilter) ([]*T, int64, error)
	create   func(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (*T, error)
	update   func(ctx context.Context, user appctx.CurrentUser, id int, d *forms.Draft) (*T, error)
	remove   func(ctx context.Context, user appctx.CurrentUser, id int) (*T, error)
	// createdBy returns the owner used for record access.
	createdBy func(doc *T) int
	// code returns the stored document code, which updates always keep.
	code func(doc *T) string
	// canEdit defaults to the ownership rule.
	canEdit func(user appctx.CurrentUser, doc *T) error
}

func (h *documentHandlers[T]) routes(g gin.IRouter) {
	g.GET("", h.handleList)
	g.GET("/new", h.handleNew)
	g.POST("", h.handleCreate)
	g.GET("/:id", h.handleGet)
	g.PUT("/:id", h.handleUpdate)
	g.DELETE("/:id", h.handleDelete)
}

func (h *documentHandlers[T]) funcName(op string) string {
	return op + " " + string(h.kind)
}

func (h *documentHandlers[T]) load(c *gin.Context) (*T, error) {
	id, err := paramId(c)
	if err != nil {
		return nil, err
	}
	doc, err := h.get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanAccessRecord(currentUser(c), h.createdBy(doc)) {
		return nil, utils.ErrorForbidden
	}
	return doc, nil
}

func (h *documentHandlers[T]) authorizeEdit(user appctx.CurrentUser, doc *T) error {
	if h.canEdit != nil {
		return h.canEdit(user, doc)
	}
	if !workflow.CanAccessRecord(user, h.createdBy(doc)) {
		return utils.ErrorForbidden
	}
	return nil
}

func (h *documentHandlers[T]) handleNew(c *gin.Context) {
	d, err := h.newDraft(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, h.funcName("new"), err)
		return
	}
	respondOK(c, http.StatusOK, d)
}

func (h *documentHandlers[T]) handleList(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.funcName("list"), err)
		return
	}
	docs, total, err := h.list(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, h.funcName("list"), err)
		return
	}
	respondOK(c, http.StatusOK, listPage{Items: docs, Total: total})
}

func (h *documentHandlers[T]) handleGet(c *gin.Context) {
	doc, err := h.load(c)
	if err != nil {
		respondError(c, h.funcName("get"), err)
		return
	}
	respondOK(c, http.StatusOK, doc)
}

func (h *documentHandlers[T]) handleCreate(c *gin.Context) {
	d, err := bindDraft(c, h.kind)
	if err != nil {
		respondError(c, h.funcName("create"), err)
		return
	}
	res := forms.Submit(c.Request.Context(), currentUser(c), d, forms.PersisterFunc(
		func(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (any, error) {
			return h.create(ctx, user, d)
		}))
	respondResult(c, res, http.StatusCreated)
}

func (h *documentHandlers[T]) handleUpdate(c *gin.Context) {
	doc, err := h.load(c)
	if err != nil {
		respondError(c, h.funcName("update"), err)
		return
	}
	user := currentUser(c)
	if err := h.authorizeEdit(user, doc); err != nil {
		respondError(c, h.funcName("update"), err)
		return
	}
	id, _ := paramId(c)
	d, err := bindDraft(c, h.kind)
	if err != nil {
		respondError(c, h.funcName("update"), err)
		return
	}
	d.Code = h.code(doc)
	res := forms.Submit(c.Request.Context(), user, d, forms.PersisterFunc(
		func(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (any, error) {
			return h.update(ctx, user, id, d)
		}))
	respondResult(c, res, http.StatusOK)
}

func (h *documentHandlers[T]) handleDelete(c *gin.Context) {
	doc, err := h.load(c)
	if err != nil {
		respondError(c, h.funcName("delete"), err)
		return
	}
	user := currentUser(c)
	if err := h.authorizeEdit(user, doc); err != nil {
		respondError(c, h.funcName("delete"), err)
		return
	}
	id, _ := paramId(c)
	deleted, err := h.remove(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, h.funcName("delete"), err)
		return
	}
	respondOK(c, http.StatusOK, deleted)
}
