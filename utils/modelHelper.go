package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/distribution_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models from db, ordered by id
func FetchAllModels[T any](ctx context.Context, associations ...string) ([]*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var results []*T
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// read model list, redis or db, cache result
func ListModel[T any](ctx context.Context, associations ...string) ([]*T, error) {
	results, err := RetrieveRedisList[T]()
	if err != nil {
		return nil, err
	}
	if results != nil {
		return results, nil
	}
	results, err = FetchAllModels[T](ctx, associations...)
	if err != nil {
		return nil, err
	}
	if err := StoreRedisList[T](results); err != nil {
		return nil, err
	}
	return results, nil
}
