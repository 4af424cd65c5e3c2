package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/mmdatafocus/distribution_backend/workflow"
	"github.com/shopspring/decimal"
)

var (
	owner = appctx.CurrentUser{ID: 1, Username: "owner", Name: "Owner", Role: appctx.RoleOwner}
	sales = appctx.CurrentUser{ID: 2, Username: "sales", Name: "Sales", Role: appctx.RoleSales}
	other = appctx.CurrentUser{ID: 3, Username: "other", Name: "Other", Role: appctx.RoleSales}
)

// fakeOrders is an in-memory OrderStore and workflow.OrderStatusStore.
type fakeOrders struct {
	orders    map[int]*models.Order
	createErr error
	created   []*forms.Draft
	updated   []int
	deleted   []int
	statuses  []models.OrderStatus
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[int]*models.Order{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) NewDraft(_ context.Context, now time.Time) (*forms.Draft, error) {
	return forms.NewDraft(forms.KindOrder, "SO-000042", now), nil
}

func (f *fakeOrders) Get(_ context.Context, id int) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return o, nil
}

func (f *fakeOrders) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	return f.Get(ctx, id)
}

func (f *fakeOrders) List(_ context.Context, user appctx.CurrentUser, _ models.DocumentFilter) ([]*models.Order, int64, error) {
	var results []*models.Order
	for _, o := range f.orders {
		if user.IsManager() || o.CreatedBy == user.ID {
			results = append(results, o)
		}
	}
	return results, int64(len(results)), nil
}

func (f *fakeOrders) Create(_ context.Context, user appctx.CurrentUser, d *forms.Draft) (*models.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, d)
	o := &models.Order{ID: 100, CustomerId: d.PartyId, Status: models.OrderStatusNew}
	o.Code = d.Code
	o.TotalPayment = d.Totals.TotalPayment
	o.CreatedBy = user.ID
	return o, nil
}

func (f *fakeOrders) Update(_ context.Context, _ appctx.CurrentUser, id int, d *forms.Draft) (*models.Order, error) {
	f.updated = append(f.updated, id)
	o := f.orders[id]
	o.TotalPayment = d.Totals.TotalPayment
	return o, nil
}

func (f *fakeOrders) Delete(_ context.Context, _ appctx.CurrentUser, id int) (*models.Order, error) {
	f.deleted = append(f.deleted, id)
	return f.orders[id], nil
}

func (f *fakeOrders) History(_ context.Context, id int) ([]*models.History, error) {
	return []*models.History{{ID: 1, ReferenceID: id, ActionType: models.ActionTypeCreate}}, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, _ appctx.CurrentUser, id int, from, to models.OrderStatus) (*models.Order, error) {
	o := f.orders[id]
	if o.Status != from {
		return nil, utils.ErrorInvalidTransition
	}
	o.Status = to
	f.statuses = append(f.statuses, to)
	return o, nil
}

func orderWith(id int, status models.OrderStatus, createdBy int) *models.Order {
	o := &models.Order{ID: id, CustomerId: 7, Status: status}
	o.Code = "SO-00000" + string(rune('0'+id))
	o.CreatedBy = createdBy
	return o
}

func newTestRouter(store *fakeOrders, user *appctx.CurrentUser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Request = c.Request.WithContext(utils.SetCurrentUser(c.Request.Context(), *user))
		}
		c.Next()
	})
	newOrderHandlers(store, workflow.NewStatusChanger(store, nil)).register(r)
	r.POST("/pricing/preview", pricingPreview)
	return r
}

type envelope struct {
	Success     bool              `json:"success"`
	Data        json.RawMessage   `json:"data"`
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"field_errors"`
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func validDraftBody() map[string]any {
	return map[string]any{
		"code":           "SO-000042",
		"party_id":       7,
		"date":           "2025-01-10T00:00:00Z",
		"tax_percentage": "11",
		"items": []map[string]any{
			{"product_id": 3, "quantity": "2", "unit_price": "100000", "discount": "10000"},
		},
		"totals": map[string]any{"total_payment": "1"},
	}
}

func TestCreateOrderRecomputesAndPersists(t *testing.T) {
	store := newFakeOrders()
	w, env := do(t, newTestRouter(store, &sales), http.MethodPost, "/orders", validDraftBody())
	if w.Code != http.StatusCreated || !env.Success {
		t.Fatalf("expected 201 success, got %d %s", w.Code, w.Body.String())
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one create, got %d", len(store.created))
	}
	d := store.created[0]
	if d.Kind != forms.KindOrder || !d.Totals.TotalPayment.Equal(decimal.NewFromInt(199800)) {
		t.Fatalf("unexpected persisted draft kind=%s total=%s", d.Kind, d.Totals.TotalPayment)
	}
}

func TestCreateOrderValidationErrors(t *testing.T) {
	store := newFakeOrders()
	body := validDraftBody()
	body["items"] = []map[string]any{}
	delete(body, "tax_percentage")

	w, env := do(t, newTestRouter(store, &sales), http.MethodPost, "/orders", body)
	if w.Code != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400, got %d %s", w.Code, w.Body.String())
	}
	if env.FieldErrors["items"] == "" || env.FieldErrors["tax_percentage"] == "" {
		t.Fatalf("expected items and tax_percentage errors, got %v", env.FieldErrors)
	}
	if len(store.created) != 0 {
		t.Fatalf("invalid drafts must not be persisted")
	}
}

func TestCreateOrderDuplicateCode(t *testing.T) {
	store := newFakeOrders()
	store.createErr = utils.ErrorDuplicateCode
	w, env := do(t, newTestRouter(store, &sales), http.MethodPost, "/orders", validDraftBody())
	if w.Code != http.StatusConflict || env.Error != utils.ErrorDuplicateCode.Error() {
		t.Fatalf("expected 409 duplicate, got %d %s", w.Code, w.Body.String())
	}
}

func TestOrderAccess(t *testing.T) {
	store := newFakeOrders(orderWith(1, models.OrderStatusNew, sales.ID))
	cases := []struct {
		name string
		user *appctx.CurrentUser
		path string
		want int
	}{
		{"anonymous", nil, "/orders/1", http.StatusUnauthorized},
		{"creator", &sales, "/orders/1", http.StatusOK},
		{"manager", &owner, "/orders/1", http.StatusOK},
		{"other sales", &other, "/orders/1", http.StatusForbidden},
		{"missing", &owner, "/orders/9", http.StatusNotFound},
		{"bad id", &owner, "/orders/abc", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(t, newTestRouter(store, tc.user), http.MethodGet, tc.path, nil)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateOrderRespectsLocks(t *testing.T) {
	store := newFakeOrders(
		orderWith(1, models.OrderStatusNew, sales.ID),
		orderWith(2, models.OrderStatusInProcess, sales.ID),
		orderWith(3, models.OrderStatusCompleted, sales.ID),
	)
	cases := []struct {
		name string
		user appctx.CurrentUser
		id   string
		want int
	}{
		{"sales edits new", sales, "1", http.StatusOK},
		{"sales blocked in process", sales, "2", http.StatusConflict},
		{"owner edits in process", owner, "2", http.StatusOK},
		{"terminal locked for owner", owner, "3", http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(t, newTestRouter(store, &tc.user), http.MethodPut, "/orders/"+tc.id, validDraftBody())
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
	if len(store.updated) != 2 {
		t.Fatalf("expected 2 updates to reach the store, got %v", store.updated)
	}
}

func TestChangeOrderStatus(t *testing.T) {
	store := newFakeOrders(
		orderWith(1, models.OrderStatusNew, sales.ID),
		orderWith(2, models.OrderStatusCanceled, sales.ID),
	)
	cases := []struct {
		name   string
		user   appctx.CurrentUser
		id     string
		status string
		want   int
	}{
		{"sales may not operate", sales, "1", "IN_PROCESS", http.StatusForbidden},
		{"unknown status", owner, "1", "SHIPPED", http.StatusBadRequest},
		{"terminal order", owner, "2", "NEW", http.StatusConflict},
		{"owner moves order", owner, "1", "IN_PROCESS", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(t, newTestRouter(store, &tc.user), http.MethodPut, "/orders/"+tc.id+"/status",
				map[string]string{"status": tc.status})
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
	if len(store.statuses) != 1 || store.statuses[0] != models.OrderStatusInProcess {
		t.Fatalf("expected exactly one status write, got %v", store.statuses)
	}
}

func TestOrderTransitions(t *testing.T) {
	store := newFakeOrders(orderWith(1, models.OrderStatusNew, sales.ID))

	var resp transitionsResponse
	_, env := do(t, newTestRouter(store, &sales), http.MethodGet, "/orders/1/transitions", nil)
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CanOperate || len(resp.Transitions) != 0 {
		t.Fatalf("sales must get no transitions, got %+v", resp)
	}

	_, env = do(t, newTestRouter(store, &owner), http.MethodGet, "/orders/1/transitions", nil)
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.CanOperate || len(resp.Transitions) != len(models.OrderStatusPipeline)-1 {
		t.Fatalf("owner should see every other status, got %+v", resp)
	}
}

func TestNewOrderDraftAndDelete(t *testing.T) {
	store := newFakeOrders(orderWith(1, models.OrderStatusNew, sales.ID))
	r := newTestRouter(store, &sales)

	w, env := do(t, r, http.MethodGet, "/orders/new", nil)
	if w.Code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"SO-000042"`)) {
		t.Fatalf("expected reserved draft, got %d %s", w.Code, w.Body.String())
	}
	w, _ = do(t, r, http.MethodDelete, "/orders/1", nil)
	if w.Code != http.StatusOK || len(store.deleted) != 1 {
		t.Fatalf("expected delete, got %d %v", w.Code, store.deleted)
	}
}

func TestPricingPreview(t *testing.T) {
	body := validDraftBody()
	body["shipping_cost"] = "15000"
	w, env := do(t, newTestRouter(newFakeOrders(), &sales), http.MethodPost, "/pricing/preview", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Draft forms.Draft `json:"draft"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Draft.Totals.TotalPayment.Equal(decimal.NewFromInt(214800)) {
		t.Fatalf("expected 214800, got %s", resp.Draft.Totals.TotalPayment)
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{forms.FieldErrors{"code": "is required"}, http.StatusBadRequest},
		{utils.ErrorUnauthorized, http.StatusUnauthorized},
		{utils.ErrorForbidden, http.StatusForbidden},
		{utils.ErrorRecordNotFound, http.StatusNotFound},
		{utils.ErrorInvalidTransition, http.StatusConflict},
		{utils.ErrorDocumentLocked, http.StatusConflict},
		{utils.ErrorDuplicateCode, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestParseFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodGet, "/orders?status=in_process&party_id=7&limit=9999&from=2025-01-01&to=2025-01-31&min_total=Rp%20100%2C000", nil)
	filter, err := parseFilter(ctx)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if filter.Status != models.OrderStatusInProcess || filter.PartyId != 7 || filter.Limit != maxListLimit {
		t.Fatalf("unexpected filter %+v", filter)
	}
	if filter.From == nil || filter.To == nil || filter.To.Format(time.DateOnly) != "2025-02-01" {
		t.Fatalf("expected exclusive end 2025-02-01, got %v", filter.To)
	}
	if filter.MinTotal == nil || filter.MinTotal.IntPart() != 100000 || filter.MaxTotal != nil {
		t.Fatalf("unexpected total bounds %v / %v", filter.MinTotal, filter.MaxTotal)
	}

	// gin caches the parsed query on the context, so a second request needs its own
	ctx, _ = gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodGet, "/orders?status=LOST&offset=-1&max_total=abc", nil)
	_, err = parseFilter(ctx)
	var fe forms.FieldErrors
	if !errors.As(err, &fe) || fe["status"] == "" || fe["offset"] == "" || fe["max_total"] == "" {
		t.Fatalf("expected status, offset and max_total errors, got %v", err)
	}
}
