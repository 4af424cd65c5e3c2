package workflow

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
)

var (
	owner = appctx.CurrentUser{ID: 1, Name: "Owner", Role: appctx.RoleOwner}
	admin = appctx.CurrentUser{ID: 2, Name: "Admin", Role: appctx.RoleAdmin}
	sales = appctx.CurrentUser{ID: 5, Name: "Sales", Role: appctx.RoleSales}
)

func TestAllowedTransitions(t *testing.T) {
	cases := []struct {
		current models.OrderStatus
		want    []models.OrderStatus
	}{
		{models.OrderStatusNew, []models.OrderStatus{models.OrderStatusPendingConfirmation, models.OrderStatusInProcess, models.OrderStatusCompleted, models.OrderStatusCanceled}},
		{models.OrderStatusPendingConfirmation, []models.OrderStatus{models.OrderStatusNew, models.OrderStatusInProcess, models.OrderStatusCompleted, models.OrderStatusCanceled}},
		{models.OrderStatusInProcess, []models.OrderStatus{models.OrderStatusNew, models.OrderStatusPendingConfirmation, models.OrderStatusCompleted, models.OrderStatusCanceled}},
		{models.OrderStatusCompleted, []models.OrderStatus{}},
		{models.OrderStatusCanceled, []models.OrderStatus{}},
		{"SHIPPED", []models.OrderStatus{}},
		{"", []models.OrderStatus{}},
	}
	for _, tc := range cases {
		got := AllowedTransitions(tc.current)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("AllowedTransitions(%q) = %v, want %v", tc.current, got, tc.want)
		}
	}
}

func TestCanTransitionNeverToSelf(t *testing.T) {
	for _, s := range models.OrderStatusPipeline {
		if CanTransition(s, s) {
			t.Fatalf("%s must not transition to itself", s)
		}
	}
	if !CanTransition(models.OrderStatusInProcess, models.OrderStatusNew) {
		t.Fatalf("backwards moves are allowed from non-terminal statuses")
	}
	if CanTransition(models.OrderStatusCompleted, models.OrderStatusNew) {
		t.Fatalf("terminal statuses have no way out")
	}
}

func TestCanOperateStatus(t *testing.T) {
	if !CanOperateStatus(appctx.RoleAdmin) || !CanOperateStatus(appctx.RoleOwner) {
		t.Fatalf("admin and owner may operate the status control")
	}
	if CanOperateStatus(appctx.RoleSales) || CanOperateStatus("") {
		t.Fatalf("only admin and owner may operate the status control")
	}
}

func orderWith(status models.OrderStatus, createdBy int) *models.Order {
	o := &models.Order{ID: 10, Status: status}
	o.Code = "SO-000010"
	o.CreatedBy = createdBy
	return o
}

func TestCanViewOrder(t *testing.T) {
	own := orderWith(models.OrderStatusNew, sales.ID)
	other := orderWith(models.OrderStatusNew, 99)
	if !CanViewOrder(sales, own) || CanViewOrder(sales, other) {
		t.Fatalf("sales sees only own orders")
	}
	if !CanViewOrder(owner, other) || !CanViewOrder(admin, other) {
		t.Fatalf("managers see all orders")
	}
	if CanViewOrder(appctx.CurrentUser{}, own) || CanViewOrder(owner, nil) {
		t.Fatalf("anonymous users and missing orders are never visible")
	}
}

func TestCanEditOrder(t *testing.T) {
	cases := []struct {
		name  string
		user  appctx.CurrentUser
		order *models.Order
		want  error
	}{
		{"sales own new", sales, orderWith(models.OrderStatusNew, sales.ID), nil},
		{"sales own pending", sales, orderWith(models.OrderStatusPendingConfirmation, sales.ID), nil},
		{"sales own in process", sales, orderWith(models.OrderStatusInProcess, sales.ID), utils.ErrorDocumentLocked},
		{"sales other", sales, orderWith(models.OrderStatusNew, 99), utils.ErrorForbidden},
		{"owner in process", owner, orderWith(models.OrderStatusInProcess, 99), nil},
		{"owner completed", owner, orderWith(models.OrderStatusCompleted, 99), utils.ErrorDocumentLocked},
		{"admin canceled", admin, orderWith(models.OrderStatusCanceled, 99), utils.ErrorDocumentLocked},
		{"anonymous", appctx.CurrentUser{}, orderWith(models.OrderStatusNew, 1), utils.ErrorUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanEditOrder(tc.user, tc.order)
			if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
				t.Fatalf("CanEditOrder = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCanEditOrderTerminalOverride(t *testing.T) {
	t.Setenv("ALLOW_TERMINAL_ORDER_EDITS", "true")
	if !config.AllowTerminalOrderEdits() {
		t.Fatalf("expected override flag to be read")
	}
	if err := CanEditOrder(owner, orderWith(models.OrderStatusCompleted, 99)); err != nil {
		t.Fatalf("override should re-open terminal orders for managers, got %v", err)
	}
	if err := CanEditOrder(sales, orderWith(models.OrderStatusCompleted, sales.ID)); !errors.Is(err, utils.ErrorDocumentLocked) {
		t.Fatalf("sales stays limited to NEW and PENDING_CONFIRMATION, got %v", err)
	}
}

func TestCanEditPurchaseOrder(t *testing.T) {
	po := &models.PurchaseOrder{ID: 3, Status: models.OrderStatusInProcess}
	po.CreatedBy = sales.ID
	if err := CanEditPurchaseOrder(sales, po); err != nil {
		t.Fatalf("purchase orders have no sales status window, got %v", err)
	}
	po.Status = models.OrderStatusCompleted
	if err := CanEditPurchaseOrder(owner, po); !errors.Is(err, utils.ErrorDocumentLocked) {
		t.Fatalf("expected locked, got %v", err)
	}
	po.Status = models.OrderStatusNew
	po.CreatedBy = 99
	if err := CanEditPurchaseOrder(sales, po); !errors.Is(err, utils.ErrorForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
