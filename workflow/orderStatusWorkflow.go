package workflow

import (
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
)

// AllowedTransitions lists the statuses an order in current may move to, in
// pipeline order. Any non-terminal status may jump to any other status; terminal
// and unknown statuses have no way out.
func AllowedTransitions(current models.OrderStatus) []models.OrderStatus {
	if !current.IsValid() || current.IsTerminal() {
		return []models.OrderStatus{}
	}
	results := make([]models.OrderStatus, 0, len(models.OrderStatusPipeline)-1)
	for _, s := range models.OrderStatusPipeline {
		if s != current {
			results = append(results, s)
		}
	}
	return results
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range AllowedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// CanOperateStatus reports whether role may use the status control at all.
func CanOperateStatus(role appctx.Role) bool {
	return role == appctx.RoleAdmin || role == appctx.RoleOwner
}

// CanAccessRecord applies the ownership rule shared by every sales-created record.
func CanAccessRecord(user appctx.CurrentUser, createdBy int) bool {
	if user.IsZero() {
		return false
	}
	return user.IsManager() || createdBy == user.ID
}

func CanViewOrder(user appctx.CurrentUser, order *models.Order) bool {
	return order != nil && CanAccessRecord(user, order.CreatedBy)
}

// CanEditOrder returns nil when user may change the contents of order.
// Terminal orders are locked for every role unless the override flag is set.
func CanEditOrder(user appctx.CurrentUser, order *models.Order) error {
	if user.IsZero() {
		return utils.ErrorUnauthorized
	}
	if !CanViewOrder(user, order) {
		return utils.ErrorForbidden
	}
	if order.Status.IsTerminal() && !config.AllowTerminalOrderEdits() {
		return utils.ErrorDocumentLocked
	}
	if !user.IsManager() {
		switch order.Status {
		case models.OrderStatusNew, models.OrderStatusPendingConfirmation:
		default:
			return utils.ErrorDocumentLocked
		}
	}
	return nil
}

// CanEditPurchaseOrder follows the order rules minus the sales status window.
func CanEditPurchaseOrder(user appctx.CurrentUser, po *models.PurchaseOrder) error {
	if user.IsZero() {
		return utils.ErrorUnauthorized
	}
	if po == nil || !CanAccessRecord(user, po.CreatedBy) {
		return utils.ErrorForbidden
	}
	if po.Status.IsTerminal() && !config.AllowTerminalOrderEdits() {
		return utils.ErrorDocumentLocked
	}
	return nil
}
