package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/utils"
	"gorm.io/gorm"
)

type Expense struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	DocumentHeader      `gorm:"embedded"`
	SupplierId          int             `gorm:"index;default:0" json:"supplier_id"`
	Category            ExpenseCategory `gorm:"size:20;not null;default:'OTHER';index" json:"category"`
	ReceiptUrl          string          `gorm:"size:512" json:"receipt_url"`
	ReceiptThumbnailUrl string          `gorm:"size:512" json:"receipt_thumbnail_url"`
	Items               []ExpenseItem   `gorm:"foreignKey:ExpenseId" json:"items"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type ExpenseItem struct {
	ID        int `gorm:"primary_key" json:"id"`
	ExpenseId int `gorm:"index;not null" json:"expense_id"`
	LineItem  `gorm:"embedded"`
}

func (e Expense) lines() []LineItem {
	lines := make([]LineItem, len(e.Items))
	for i, item := range e.Items {
		lines[i] = item.LineItem
	}
	return lines
}

func (e Expense) Draft() *forms.Draft {
	d := e.DocumentHeader.toDraft(forms.KindExpense, e.SupplierId, e.lines())
	d.Category = string(e.Category)
	return d
}

func expenseItemsFromDraft(expenseId int, items []forms.Item) []ExpenseItem {
	lines := lineItemsFromDraft(items)
	results := make([]ExpenseItem, len(lines))
	for i, l := range lines {
		results[i] = ExpenseItem{ExpenseId: expenseId, LineItem: l}
	}
	return results
}

func expenseCategory(d *forms.Draft) (ExpenseCategory, error) {
	category := ExpenseCategory(strings.ToUpper(strings.TrimSpace(d.Category)))
	if category == "" {
		return ExpenseCategoryOther, nil
	}
	if !category.IsValid() {
		return "", forms.FieldErrors{"category": "is invalid"}
	}
	return category, nil
}

func NewExpenseDraft(ctx context.Context, now time.Time) (*forms.Draft, error) {
	code, err := nextCode[Expense](ctx, expenseCodePrefix)
	if err != nil {
		return nil, err
	}
	d := forms.NewDraft(forms.KindExpense, code, now)
	d.Category = string(ExpenseCategoryOther)
	return d, nil
}

func CreateExpense(ctx context.Context, user appctx.CurrentUser, d *forms.Draft) (*Expense, error) {
	d.Recompute()
	category, err := expenseCategory(d)
	if err != nil {
		return nil, err
	}
	if err := validateReferences[Supplier](ctx, d, "supplier"); err != nil {
		return nil, err
	}
	seqNo, err := claimCode[Expense](ctx, d.Code, expenseCodePrefix)
	if err != nil {
		return nil, err
	}

	expense := Expense{
		SupplierId: d.PartyId,
		Category:   category,
		Items:      expenseItemsFromDraft(0, d.Items),
	}
	expense.Code = d.Code
	expense.SequenceNo = seqNo
	expense.applyDraft(d)
	expense.setCreator(user)

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeCreate, expense.ID, ReferenceTypeExpense,
		nil, nil, describeDocument("Expense", expense.Code, ActionTypeCreate)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func UpdateExpense(ctx context.Context, user appctx.CurrentUser, id int, d *forms.Draft) (*Expense, error) {
	expense, err := GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Code = expense.Code
	d.Recompute()
	category, err := expenseCategory(d)
	if err != nil {
		return nil, err
	}
	if err := validateReferences[Supplier](ctx, d, "supplier"); err != nil {
		return nil, err
	}

	expense.SupplierId = d.PartyId
	expense.Category = category
	expense.applyDraft(d)
	items := expenseItemsFromDraft(expense.ID, d.Items)

	db := config.GetDB()
	tx := db.Begin()
	if err := saveContent(tx.WithContext(ctx), expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("expense_id = ?", expense.ID).Delete(&ExpenseItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(items) > 0 {
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeUpdate, expense.ID, ReferenceTypeExpense,
		nil, nil, describeDocument("Expense", expense.Code, ActionTypeUpdate)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	expense.Items = items
	return expense, nil
}

// SetExpenseReceipt records the uploaded receipt and its thumbnail.
func SetExpenseReceipt(ctx context.Context, user appctx.CurrentUser, id int, receiptUrl, thumbnailUrl string) (*Expense, error) {
	expense, err := GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&Expense{}).Where("id = ?", id).Updates(map[string]interface{}{
		"receipt_url":           receiptUrl,
		"receipt_thumbnail_url": thumbnailUrl,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeUpdate, id, ReferenceTypeExpense,
		nil, map[string]string{"receipt_url": receiptUrl}, expense.Code+" receipt uploaded."); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	expense.ReceiptUrl = receiptUrl
	expense.ReceiptThumbnailUrl = thumbnailUrl
	return expense, nil
}

func DeleteExpense(ctx context.Context, user appctx.CurrentUser, id int) (*Expense, error) {
	expense, err := GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("expense_id = ?", expense.ID).Delete(&ExpenseItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&Expense{}, expense.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeDelete, expense.ID, ReferenceTypeExpense,
		expense, nil, describeDocument("Expense", expense.Code, ActionTypeDelete)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return expense, nil
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	return utils.FetchModel[Expense](ctx, id, "Items")
}

func ListExpenses(ctx context.Context, user appctx.CurrentUser, filter DocumentFilter) ([]*Expense, int64, error) {
	filter = filter.scopedTo(user)
	filter.Status = ""
	db := config.GetDB()
	query := func() *gorm.DB {
		return filter.apply(db.WithContext(ctx).Model(&Expense{}), "supplier_id")
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*Expense
	err := filter.page(query()).
		Preload("Items").
		Order("date DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func EachExpense(ctx context.Context, batchSize int, fn func(e *Expense) error) error {
	db := config.GetDB()
	var batch []*Expense
	return db.WithContext(ctx).Preload("Items").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for _, e := range batch {
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	}).Error
}

func FixExpenseTotals(ctx context.Context, e *Expense, dryRun bool) (bool, error) {
	d := e.Draft()
	if !e.totalsDrifted(d, e.lines()) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	e.applyDraft(d)
	db := config.GetDB()
	tx := db.Begin()
	if err := saveContent(tx.WithContext(ctx), e).Error; err != nil {
		tx.Rollback()
		return true, err
	}
	for i, item := range e.Items {
		if err := tx.WithContext(ctx).Model(&ExpenseItem{}).Where("id = ?", item.ID).
			Update("total_price", d.Totals.LineTotals[i]).Error; err != nil {
			tx.Rollback()
			return true, err
		}
	}
	return true, tx.Commit().Error
}
