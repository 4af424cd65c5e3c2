package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/utils"
)

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

/*
caches:
	SupplierList
*/

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	phone, err := normalizeContactPhone(input.Phone)
	if err != nil {
		return nil, err
	}
	supplier := Supplier{
		Name:     strings.TrimSpace(input.Name),
		Phone:    phone,
		Address:  input.Address,
		IsActive: utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Supplier](); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

func ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	all, err := utils.ListModel[Supplier](ctx)
	if err != nil {
		return nil, err
	}
	return activeOnly(all, func(s *Supplier) *bool { return s.IsActive }), nil
}
