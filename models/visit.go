package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Visit is a field visit logged by sales staff at a customer.
type Visit struct {
	ID                int              `gorm:"primary_key" json:"id"`
	CustomerId        int              `gorm:"index;not null" json:"customer_id"`
	VisitedAt         time.Time        `gorm:"not null;index" json:"visited_at"`
	Notes             string           `gorm:"type:text" json:"notes"`
	ContactPhone      string           `gorm:"size:20" json:"contact_phone"`
	Latitude          *decimal.Decimal `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude         *decimal.Decimal `gorm:"type:decimal(10,7)" json:"longitude"`
	PhotoUrl          string           `gorm:"size:512" json:"photo_url"`
	PhotoThumbnailUrl string           `gorm:"size:512" json:"photo_thumbnail_url"`
	CreatedBy         int              `gorm:"index;not null" json:"created_by"`
	CreatedByName     string           `gorm:"size:100" json:"created_by_name"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVisit struct {
	CustomerId   int              `json:"customer_id" validate:"required,gt=0"`
	VisitedAt    *time.Time       `json:"visited_at"`
	Notes        string           `json:"notes" validate:"max=2000"`
	ContactPhone string           `json:"contact_phone"`
	Latitude     *decimal.Decimal `json:"latitude"`
	Longitude    *decimal.Decimal `json:"longitude"`
}

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

func (input *NewVisit) validate(ctx context.Context) error {
	if err := validateInput(input); err != nil {
		return err
	}
	errs := forms.FieldErrors{}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		errs["latitude"] = "latitude and longitude go together"
	}
	if input.Latitude != nil && input.Latitude.Abs().GreaterThan(maxLatitude) {
		errs["latitude"] = "must be between -90 and 90"
	}
	if input.Longitude != nil && input.Longitude.Abs().GreaterThan(maxLongitude) {
		errs["longitude"] = "must be between -180 and 180"
	}
	if input.ContactPhone != "" {
		if err := utils.ValidatePhoneNumber(input.ContactPhone, config.DefaultPhoneRegion()); err != nil {
			errs["contact_phone"] = "is not a valid phone number"
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return forms.FieldErrors{"customer_id": "customer not found"}
	}
	return nil
}

func CreateVisit(ctx context.Context, user appctx.CurrentUser, input *NewVisit) (*Visit, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	phone, err := normalizeContactPhone(input.ContactPhone)
	if err != nil {
		return nil, err
	}
	visitedAt := time.Now()
	if input.VisitedAt != nil {
		visitedAt = *input.VisitedAt
	}
	visit := Visit{
		CustomerId:    input.CustomerId,
		VisitedAt:     visitedAt,
		Notes:         input.Notes,
		ContactPhone:  phone,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		CreatedBy:     user.ID,
		CreatedByName: user.Name,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&visit).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeCreate, visit.ID, ReferenceTypeVisit,
		nil, nil, "Visit logged."); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func SetVisitPhoto(ctx context.Context, id int, photoUrl, thumbnailUrl string) (*Visit, error) {
	visit, err := GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Visit{}).Where("id = ?", id).Updates(map[string]interface{}{
		"photo_url":           photoUrl,
		"photo_thumbnail_url": thumbnailUrl,
	}).Error
	if err != nil {
		return nil, err
	}
	visit.PhotoUrl = photoUrl
	visit.PhotoThumbnailUrl = thumbnailUrl
	return visit, nil
}

func DeleteVisit(ctx context.Context, user appctx.CurrentUser, id int) (*Visit, error) {
	visit, err := GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&Visit{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), user, ActionTypeDelete, id, ReferenceTypeVisit,
		visit, nil, "Visit deleted."); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return visit, nil
}

func GetVisit(ctx context.Context, id int) (*Visit, error) {
	return utils.FetchModel[Visit](ctx, id)
}

// ListVisits reuses DocumentFilter: PartyId is the customer, From/To bound visited_at.
func ListVisits(ctx context.Context, user appctx.CurrentUser, filter DocumentFilter) ([]*Visit, int64, error) {
	filter = filter.scopedTo(user)
	db := config.GetDB()
	query := func() *gorm.DB {
		dbCtx := db.WithContext(ctx).Model(&Visit{})
		if filter.PartyId > 0 {
			dbCtx = dbCtx.Where("customer_id = ?", filter.PartyId)
		}
		if filter.CreatedBy > 0 {
			dbCtx = dbCtx.Where("created_by = ?", filter.CreatedBy)
		}
		if filter.From != nil {
			dbCtx = dbCtx.Where("visited_at >= ?", *filter.From)
		}
		if filter.To != nil {
			dbCtx = dbCtx.Where("visited_at < ?", *filter.To)
		}
		return dbCtx
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*Visit
	if err := filter.page(query()).Order("visited_at DESC, id DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
