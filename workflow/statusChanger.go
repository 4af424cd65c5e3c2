package workflow

import (
	"context"
	"errors"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("distribution-backend/workflow")

// OrderStatusStore loads and persists orders for the status control.
type OrderStatusStore interface {
	GetOrder(ctx context.Context, id int) (*models.Order, error)
	// UpdateOrderStatus writes the new status and its history row in one transaction.
	UpdateOrderStatus(ctx context.Context, user appctx.CurrentUser, id int, from, to models.OrderStatus) (*models.Order, error)
}

// Notifier is told about committed status changes. It must not block.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, user appctx.CurrentUser, order *models.Order, from models.OrderStatus)
}

type StatusChanger struct {
	store    OrderStatusStore
	notifier Notifier
}

func NewStatusChanger(store OrderStatusStore, notifier Notifier) *StatusChanger {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &StatusChanger{store: store, notifier: notifier}
}

// ChangeOrderStatus moves order orderId to newStatus on behalf of user.
// Nothing is written unless the role may operate the control and the move is allowed.
func (s *StatusChanger) ChangeOrderStatus(ctx context.Context, user appctx.CurrentUser, orderId int, newStatus models.OrderStatus) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "ChangeOrderStatus", trace.WithAttributes(
		attribute.Int("order.id", orderId),
		attribute.String("order.new_status", string(newStatus)),
		attribute.Int("user.id", user.ID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			// a refused change is a normal outcome; only failures mark the span
			if !IsClientError(err) {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
	}()

	if user.IsZero() {
		return nil, utils.ErrorUnauthorized
	}
	if !CanOperateStatus(user.Role) {
		return nil, utils.ErrorForbidden
	}

	current, err := s.store.GetOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.old_status", string(current.Status)))
	if !CanTransition(current.Status, newStatus) {
		return nil, utils.ErrorInvalidTransition
	}

	updated, err := s.store.UpdateOrderStatus(ctx, user, orderId, current.Status, newStatus)
	if err != nil {
		return nil, err
	}
	s.notifier.OrderStatusChanged(ctx, user, updated, current.Status)
	return updated, nil
}

// IsClientError reports whether err is a rule violation or invalid input rather
// than a failure. Client errors are answered with a 4xx and are not logged.
func IsClientError(err error) bool {
	var fe forms.FieldErrors
	return errors.As(err, &fe) ||
		errors.Is(err, utils.ErrorDuplicateCode) ||
		errors.Is(err, utils.ErrorUnauthorized) ||
		errors.Is(err, utils.ErrorForbidden) ||
		errors.Is(err, utils.ErrorInvalidTransition) ||
		errors.Is(err, utils.ErrorDocumentLocked) ||
		errors.Is(err, utils.ErrorRecordNotFound)
}

// GormOrderStore is the OrderStatusStore backed by the models package.
type GormOrderStore struct{}

func (GormOrderStore) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	return models.GetOrder(ctx, id)
}

func (GormOrderStore) UpdateOrderStatus(ctx context.Context, user appctx.CurrentUser, id int, from, to models.OrderStatus) (*models.Order, error) {
	return models.UpdateOrderStatus(ctx, user, id, from, to)
}

type noopNotifier struct{}

func (noopNotifier) OrderStatusChanged(context.Context, appctx.CurrentUser, *models.Order, models.OrderStatus) {
}
