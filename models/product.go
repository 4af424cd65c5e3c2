package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Sku           string          `gorm:"size:50;unique" json:"sku"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Unit          string          `gorm:"size:20" json:"unit"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Sku           string          `json:"sku" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,max=100"`
	Unit          string          `json:"unit"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

/*
caches:
	ProductList
*/

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(input.Sku)
	if err := utils.ValidateUnique[Product](ctx, "sku", sku, 0); err != nil {
		if errors.Is(err, utils.ErrorDuplicateValue) {
			return nil, forms.FieldErrors{"sku": "is already used"}
		}
		return nil, err
	}
	product := Product{
		Sku:           sku,
		Name:          strings.TrimSpace(input.Name),
		Unit:          input.Unit,
		SalesPrice:    input.SalesPrice,
		PurchasePrice: input.PurchasePrice,
		IsActive:      utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Product](); err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

func ListProducts(ctx context.Context) ([]*Product, error) {
	all, err := utils.ListModel[Product](ctx)
	if err != nil {
		return nil, err
	}
	return activeOnly(all, func(p *Product) *bool { return p.IsActive }), nil
}
