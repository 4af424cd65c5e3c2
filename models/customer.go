package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/utils"
)

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	City      string    `gorm:"size:100;index" json:"city"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

/*
caches:
	CustomerList
*/

// normalizeContactPhone stores phones in E.164 so lookups and exports agree.
func normalizeContactPhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	return utils.NormalizePhoneNumber(phone, config.DefaultPhoneRegion())
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	phone, err := normalizeContactPhone(input.Phone)
	if err != nil {
		return nil, err
	}
	customer := Customer{
		Name:     strings.TrimSpace(input.Name),
		Phone:    phone,
		Address:  input.Address,
		City:     input.City,
		IsActive: utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Customer](); err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

// ListCustomers returns the cached list of active customers.
func ListCustomers(ctx context.Context) ([]*Customer, error) {
	all, err := utils.ListModel[Customer](ctx)
	if err != nil {
		return nil, err
	}
	return activeOnly(all, func(c *Customer) *bool { return c.IsActive }), nil
}

func activeOnly[T any](items []*T, isActive func(*T) *bool) []*T {
	results := make([]*T, 0, len(items))
	for _, item := range items {
		if active := isActive(item); active == nil || *active {
			results = append(results, item)
		}
	}
	return results
}
