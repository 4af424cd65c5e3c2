package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"gorm.io/gorm"
)

type History struct {
	ID            int           `gorm:"primary_key" json:"id"`
	ActionType    ActionType    `gorm:"size:10;not null" json:"action_type"`
	Before        string        `gorm:"type:text" json:"before"`
	After         string        `gorm:"type:text" json:"after"`
	Description   string        `gorm:"type:text;not null" json:"description"`
	ReferenceID   int           `gorm:"index" json:"reference_id"`
	ReferenceType ReferenceType `gorm:"size:50;index" json:"reference_type"`
	UserId        int           `gorm:"index;not null" json:"user_id"`
	UserName      string        `gorm:"size:100" json:"user_name"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func createHistory(tx *gorm.DB,
	user appctx.CurrentUser,
	actionType ActionType,
	referenceId int,
	referenceType ReferenceType,
	before interface{},
	after interface{},
	description string) error {

	history := History{
		ActionType:    actionType,
		Description:   description,
		ReferenceID:   referenceId,
		ReferenceType: referenceType,
		UserId:        user.ID,
		UserName:      user.Name,
	}
	if before != nil {
		b, err := json.Marshal(before)
		if err != nil {
			return err
		}
		history.Before = string(b)
	}
	if after != nil {
		a, err := json.Marshal(after)
		if err != nil {
			return err
		}
		history.After = string(a)
	}
	return tx.Create(&history).Error
}

func describeStatusChange(code string, from, to OrderStatus) string {
	return fmt.Sprintf("%s status changed from %s to %s.", code, from.Label(), to.Label())
}

func describeDocument(typename, code string, action ActionType) string {
	switch action {
	case ActionTypeCreate:
		return fmt.Sprintf("%s %s created.", typename, code)
	case ActionTypeDelete:
		return fmt.Sprintf("%s %s deleted.", typename, code)
	}
	return fmt.Sprintf("%s %s updated.", typename, code)
}

// ListHistory returns the history of one record, newest first.
func ListHistory(ctx context.Context, referenceType ReferenceType, referenceId int) ([]*History, error) {
	db := config.GetDB()
	var results []*History
	err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("created_at DESC, id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
