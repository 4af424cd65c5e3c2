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

type PurchaseOrder struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	DocumentHeader `gorm:"embedded"`
	SupplierId     int                 `gorm:"index;not null" json:"supplier_id"`
	Status         OrderStatus         `gorm:"type:enum('NEW','PENDING_CONFIRMATION','IN_PROCESS','COMPLETED','CANCELED');not null;default:'NEW';index" json:"status"`
	Items          []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderId" json:"items"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderItem struct {
	ID              int `gorm:"primary_key" json:"id"`
	PurchaseOrderId int `gorm:"index;not null" json:"purchase_order_id"`
	LineItem        `gorm:"embedded"`
}

func (po PurchaseOrder) lines() []LineItem {
	lines := make([]LineItem, len(po.Items))
	for i, item := range po.Items {
		lines[i] = item.LineItem
	}
	return lines
}

func (po PurchaseOrder) Draft() *forms.Draft {
	return po.DocumentHeader.toDraft(forms.KindPurchaseOrder, po.SupplierId, po.lines())
}

func purchaseOrderItemsFromDraft(purchaseOrderId int, items []forms.Item) []PurchaseOrderItem {
	lines := lineItemsFromDraft(items)
	results := make([]PurchaseOrderItem, len(lines))
	for i, l := range lines {
		results[i] = PurchaseOrderItem{PurchaseOrderId: purchaseOrderId, LineItem: l}
	}
	return results
}

func NewPurchaseOrderDraft(ctx context.Context, now time.Time) (*forms.Draft, error) {
	code, err := nextCode[PurchaseOrder](ctx, purchaseOrderCodePrefix)
	if err != nil {
		return nil, err
	}
	return forms.NewDraft(forms.KindPurchaseOrder, code, now), nil
}

func CreatePurchaseOrder(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (*PurchaseOrder, error) {
	d.Recompute()
	if err := validateReferences[Supplier](ctx, d, "supplier"); err != nil {
		return nil, err
	}
	seqNo, err := claimCode[PurchaseOrder](ctx, d.Code, purchaseOrderCodePrefix)
	if err != nil {
		return nil, err
	}

	po := PurchaseOrder{
		SupplierId: d.PartyId,
		Status:     OrderStatusNew,
		Items:      purchaseOrderItemsFromDraft(0, d.Items),
	}
	po.Code = d.Code
	po.SequenceNo = seqNo
	po.applyDraft(d)
	po.setCreator(user)

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&po).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeCreate, po.ID, ReferenceTypePurchaseOrder,
		nil, nil, describeDocument("Purchase order", po.Code, ActionTypeCreate)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func UpdatePurchaseOrder(ctx context.Context, user appctx.CurrentUser, id int, d *forms.Draft) (*PurchaseOrder, error) {
	po, err := GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Code = po.Code
	d.Recompute()
	if err := validateReferences[Supplier](ctx, d, "supplier"); err != nil {
		return nil, err
	}

	po.SupplierId = d.PartyId
	po.applyDraft(d)
	items := purchaseOrderItemsFromDraft(po.ID, d.Items)

	db := config.GetDB()
	tx := db.Begin()
	if err := saveContent(tx.WithContext(ctx), po).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("purchase_order_id = ?", po.ID).Delete(&PurchaseOrderItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(items) > 0 {
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeUpdate, po.ID, ReferenceTypePurchaseOrder,
		nil, nil, describeDocument("Purchase order", po.Code, ActionTypeUpdate)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	po.Items = items
	return po, nil
}

// UpdatePurchaseOrderStatus stores any valid status; purchase orders have no transition gate.
func UpdatePurchaseOrderStatus(ctx context.Context, user appctx.CurrentUser, id int, status OrderStatus) (*PurchaseOrder, error) {
	if !status.IsValid() {
		return nil, utils.ErrorInvalidTransition
	}
	po, err := GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := po.Status
	if oldStatus == status {
		return po, nil
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&PurchaseOrder{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeStatus, id, ReferenceTypePurchaseOrder,
		map[string]OrderStatus{"status": oldStatus}, map[string]OrderStatus{"status": status},
		describeStatusChange(po.Code, oldStatus, status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	po.Status = status
	return po, nil
}

func DeletePurchaseOrder(ctx context.Context, user appctx.CurrentUser, id int) (*PurchaseOrder, error) {
	po, err := GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("purchase_order_id = ?", po.ID).Delete(&PurchaseOrderItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&PurchaseOrder{}, po.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeDelete, po.ID, ReferenceTypePurchaseOrder,
		po, nil, describeDocument("Purchase order", po.Code, ActionTypeDelete)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return po, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return utils.FetchModel[PurchaseOrder](ctx, id, "Items")
}

func ListPurchaseOrders(ctx context.Context, user appctx.CurrentUser, filter DocumentFilter) ([]*PurchaseOrder, int64, error) {
	filter = filter.scopedTo(user)
	filter.Category = ""
	db := config.GetDB()
	query := func() *gorm.DB {
		return filter.apply(db.WithContext(ctx).Model(&PurchaseOrder{}), "supplier_id")
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*PurchaseOrder
	err := filter.page(query()).
		Preload("Items").
		Order("date DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func EachPurchaseOrder(ctx context.Context, batchSize int, fn func(po *PurchaseOrder) error) error {
	db := config.GetDB()
	var batch []*PurchaseOrder
	return db.WithContext(ctx).Preload("Items").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for _, po := range batch {
			if err := fn(po); err != nil {
				return err
			}
		}
		return nil
	}).Error
}

func FixPurchaseOrderTotals(ctx context.Context, po *PurchaseOrder, dryRun bool) (bool, error) {
	d := po.Draft()
	if !po.totalsDrifted(d, po.lines()) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	po.applyDraft(d)
	db := config.GetDB()
	tx := db.Begin()
	if err := saveContent(tx.WithContext(ctx), po).Error; err != nil {
		tx.Rollback()
		return true, err
	}
	for i, item := range po.Items {
		if err := tx.WithContext(ctx).Model(&PurchaseOrderItem{}).Where("id = ?", item.ID).
			Update("total_price", d.Totals.LineTotals[i]).Error; err != nil {
			tx.Rollback()
			return true, err
		}
	}
	return true, tx.Commit().Error
}
