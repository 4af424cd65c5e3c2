package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/sirupsen/logrus"
)

const EventOrderStatusChanged = "order.status_changed"

const publishTimeout = 10 * time.Second

// PubSubNotifier publishes status changes in the background. Failures are logged
// and never reach the caller.
type PubSubNotifier struct {
	logger  *logrus.Logger
	publish func(ctx context.Context, msg config.PubSubMessage) (string, error)
	wg      sync.WaitGroup
}

func NewPubSubNotifier(logger *logrus.Logger) *PubSubNotifier {
	return &PubSubNotifier{logger: logger, publish: config.PublishEvent}
}

// OrderEventNotifier returns the pub/sub notifier when events are enabled.
func OrderEventNotifier(logger *logrus.Logger) Notifier {
	if !config.OrderEventsEnabled() {
		return noopNotifier{}
	}
	return NewPubSubNotifier(logger)
}

func statusChangedMessage(ctx context.Context, user appctx.CurrentUser, order *models.Order, from models.OrderStatus) config.PubSubMessage {
	correlationId, _ := appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
	return config.PubSubMessage{
		ID:            uuid.NewString(),
		EventType:     EventOrderStatusChanged,
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   order.ID,
		ReferenceType: string(models.ReferenceTypeOrder),
		ReferenceCode: order.Code,
		OldValue:      string(from),
		NewValue:      string(order.Status),
		UserId:        user.ID,
		CorrelationId: correlationId,
	}
}

func (n *PubSubNotifier) OrderStatusChanged(ctx context.Context, user appctx.CurrentUser, order *models.Order, from models.OrderStatus) {
	msg := statusChangedMessage(ctx, user, order, from)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if _, err := n.publish(pubCtx, msg); err != nil {
			config.LogError(n.logger, "orderEvents.go", "OrderStatusChanged", "PublishEvent", msg, err)
			return
		}
		n.logger.WithFields(logrus.Fields{
			"event_type": msg.EventType,
			"order_id":   msg.ReferenceId,
			"status":     msg.NewValue,
		}).Info("order event published")
	}()
}

// Wait blocks until in-flight publishes finish. Used on shutdown.
func (n *PubSubNotifier) Wait() {
	n.wg.Wait()
}
