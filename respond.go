package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/mmdatafocus/distribution_backend/workflow"
	"github.com/shopspring/decimal"
)

type listPage struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, forms.Result{Success: true, Data: data})
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	if !workflow.IsClientError(err) {
		return http.StatusInternalServerError
	}
	var fe forms.FieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrorInvalidTransition),
		errors.Is(err, utils.ErrorDocumentLocked),
		errors.Is(err, utils.ErrorDuplicateCode):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, funcName string, err error) {
	status := statusForError(err)
	res := forms.Result{Error: forms.PublicMessage(err)}
	var fe forms.FieldErrors
	if errors.As(err, &fe) {
		res.FieldErrors = fe
	}
	if !workflow.IsClientError(err) {
		config.LogError(config.GetLogger(), "main", funcName, c.Request.Method+" "+c.FullPath(), c.Param("id"), err)
		_ = c.Error(err)
	}
	c.JSON(status, res)
}

// resultSentinels pairs submit error messages with their errors, so a result
// can be answered with the same status a raw error would get.
var resultSentinels = []error{
	utils.ErrorUnauthorized,
	utils.ErrorForbidden,
	utils.ErrorRecordNotFound,
	utils.ErrorInvalidTransition,
	utils.ErrorDocumentLocked,
	utils.ErrorDuplicateCode,
}

func statusForResult(res forms.Result, success int) int {
	if res.Success {
		return success
	}
	if len(res.FieldErrors) > 0 {
		return http.StatusBadRequest
	}
	for _, e := range resultSentinels {
		if res.Error == e.Error() {
			return statusForError(e)
		}
	}
	return http.StatusInternalServerError
}

func respondResult(c *gin.Context, res forms.Result, success int) {
	c.JSON(statusForResult(res, success), res)
}

func currentUser(c *gin.Context) appctx.CurrentUser {
	user, _ := utils.GetCurrentUser(c.Request.Context())
	return user
}

func paramId(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, forms.FieldErrors{"id": "must be a positive number"}
	}
	return id, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, forms.FieldErrors{key: "must be a non-negative number"}
	}
	return n, nil
}

const maxListLimit = 500

// parseFilter reads the list query string shared by every document list.
// Date bounds are only applied when at least one is given.
func parseFilter(c *gin.Context) (models.DocumentFilter, error) {
	filter := models.DocumentFilter{
		Code:     strings.TrimSpace(c.Query("code")),
		Status:   models.OrderStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Category: models.ExpenseCategory(strings.ToUpper(strings.TrimSpace(c.Query("category")))),
	}
	errs := forms.FieldErrors{}
	if filter.Status != "" && !filter.Status.IsValid() {
		errs["status"] = "unknown status"
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		errs["category"] = "unknown category"
	}
	for key, dest := range map[string]*int{
		"party_id":   &filter.PartyId,
		"created_by": &filter.CreatedBy,
		"limit":      &filter.Limit,
		"offset":     &filter.Offset,
	} {
		n, err := queryInt(c, key)
		if err != nil {
			errs[key] = "must be a non-negative number"
			continue
		}
		*dest = n
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	for key, dest := range map[string]**decimal.Decimal{
		"min_total": &filter.MinTotal,
		"max_total": &filter.MaxTotal,
	} {
		amount, err := utils.ParseOptionalMoney(c.Query(key))
		if err != nil {
			errs[key] = "must be an amount"
			continue
		}
		*dest = amount
	}
	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, err := utils.ParseDateRange(c.Query("from"), c.Query("to"), time.Now())
		if err != nil {
			errs["from"] = err.Error()
		} else {
			filter.From, filter.To = &from, &to
		}
	}
	if len(errs) > 0 {
		return filter, errs
	}
	return filter, nil
}

// bindDraft decodes the request body into a draft of kind.
func bindDraft(c *gin.Context, kind forms.DocumentKind) (*forms.Draft, error) {
	var d forms.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		return nil, forms.FieldErrors{"body": "invalid request body"}
	}
	d.Kind = kind
	d.Recompute()
	return &d, nil
}
