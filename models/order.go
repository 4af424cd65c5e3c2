package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

type Order struct {
	ID             int         `gorm:"primary_key" json:"id"`
	DocumentHeader `gorm:"embedded"`
	CustomerId     int         `gorm:"index;not null" json:"customer_id"`
	Status         OrderStatus `gorm:"type:enum('NEW','PENDING_CONFIRMATION','IN_PROCESS','COMPLETED','CANCELED');not null;default:'NEW';index" json:"status"`
	Items          []OrderItem `gorm:"foreignKey:OrderId" json:"items"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID       int `gorm:"primary_key" json:"id"`
	OrderId  int `gorm:"index;not null" json:"order_id"`
	LineItem `gorm:"embedded"`
}

func (o Order) lines() []LineItem {
	lines := make([]LineItem, len(o.Items))
	for i, item := range o.Items {
		lines[i] = item.LineItem
	}
	return lines
}

// Draft returns the stored order as an editable draft.
func (o Order) Draft() *forms.Draft {
	return o.DocumentHeader.toDraft(forms.KindOrder, o.CustomerId, o.lines())
}

func orderItemsFromDraft(orderId int, items []forms.Item) []OrderItem {
	lines := lineItemsFromDraft(items)
	results := make([]OrderItem, len(lines))
	for i, l := range lines {
		results[i] = OrderItem{OrderId: orderId, LineItem: l}
	}
	return results
}

func NextOrderCode(ctx context.Context) (string, error) {
	return nextCode[Order](ctx, orderCodePrefix)
}

// NewOrderDraft returns an empty draft carrying a freshly reserved code.
func NewOrderDraft(ctx context.Context, now time.Time) (*forms.Draft, error) {
	code, err := NextOrderCode(ctx)
	if err != nil {
		return nil, err
	}
	return forms.NewDraft(forms.KindOrder, code, now), nil
}

func CreateOrder(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (*Order, error) {
	d.Recompute()
	if err := validateReferences[Customer](ctx, d, "customer"); err != nil {
		return nil, err
	}
	seqNo, err := claimCode[Order](ctx, d.Code, orderCodePrefix)
	if err != nil {
		return nil, err
	}

	order := Order{
		CustomerId: d.PartyId,
		Status:     OrderStatusNew,
		Items:      orderItemsFromDraft(0, d.Items),
	}
	order.Code = d.Code
	order.SequenceNo = seqNo
	order.applyDraft(d)
	order.setCreator(user)

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeCreate, order.ID, ReferenceTypeOrder,
		nil, nil, describeDocument("Order", order.Code, ActionTypeCreate)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder replaces the header and items of order id. The code never changes.
func UpdateOrder(ctx context.Context, user appctx.CurrentUser, id int, d *forms.Draft) (*Order, error) {
	order, err := GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Code = order.Code
	d.Recompute()
	if err := validateReferences[Customer](ctx, d, "customer"); err != nil {
		return nil, err
	}

	order.CustomerId = d.PartyId
	order.applyDraft(d)
	items := orderItemsFromDraft(order.ID, d.Items)

	db := config.GetDB()
	tx := db.Begin()
	if err := saveContent(tx.WithContext(ctx), order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("order_id = ?", order.ID).Delete(&OrderItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(items) > 0 {
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeUpdate, order.ID, ReferenceTypeOrder,
		nil, nil, describeDocument("Order", order.Code, ActionTypeUpdate)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// UpdateOrderStatus moves order id from one status to another. The row is only
// touched while it still holds from; otherwise ErrorInvalidTransition is returned.
func UpdateOrderStatus(ctx context.Context, user appctx.CurrentUser, id int, from, to OrderStatus) (*Order, error) {
	db := config.GetDB()
	tx := db.Begin()
	res := tx.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.ErrorInvalidTransition
	}

	var order Order
	if err := tx.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeStatus, id, ReferenceTypeOrder,
		map[string]OrderStatus{"status": from}, map[string]OrderStatus{"status": to},
		describeStatusChange(order.Code, from, to)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func DeleteOrder(ctx context.Context, user appctx.CurrentUser, id int) (*Order, error) {
	order, err := GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("order_id = ?", order.ID).Delete(&OrderItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&Order{}, order.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeDelete, order.ID, ReferenceTypeOrder,
		order, nil, describeDocument("Order", order.Code, ActionTypeDelete)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	return utils.FetchModel[Order](ctx, id, "Items")
}

// ListOrders returns one page of orders, newest first, and the unpaged count.
func ListOrders(ctx context.Context, user appctx.CurrentUser, filter DocumentFilter) ([]*Order, int64, error) {
	filter = filter.scopedTo(user)
	filter.Category = ""
	db := config.GetDB()
	query := func() *gorm.DB {
		return filter.apply(db.WithContext(ctx).Model(&Order{}), "customer_id")
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*Order
	err := filter.page(query()).
		Preload("Items").
		Order("date DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// EachOrder walks all orders in id order, batchSize at a time.
func EachOrder(ctx context.Context, batchSize int, fn func(order *Order) error) error {
	db := config.GetDB()
	var batch []*Order
	return db.WithContext(ctx).Preload("Items").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for _, order := range batch {
			if err := fn(order); err != nil {
				return err
			}
		}
		return nil
	}).Error
}

// FixOrderTotals recomputes the stored totals of order, saving them when they drifted.
func FixOrderTotals(ctx context.Context, order *Order, dryRun bool) (bool, error) {
	d := order.Draft()
	if !order.totalsDrifted(d, order.lines()) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	order.applyDraft(d)
	for i := range order.Items {
		order.Items[i].TotalPrice = d.Totals.LineTotals[i]
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := saveContent(tx.WithContext(ctx), order).Error; err != nil {
		tx.Rollback()
		return true, err
	}
	for _, item := range order.Items {
		if err := tx.WithContext(ctx).Model(&OrderItem{}).Where("id = ?", item.ID).
			Update("total_price", item.TotalPrice).Error; err != nil {
			tx.Rollback()
			return true, err
		}
	}
	return true, tx.Commit().Error
}
