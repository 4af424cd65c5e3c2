package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const loadersKey = ctxKey("dataloaders")

// Loaders batch the reference lookups of one request (list names, export
// columns, PDF lines) into a single IN query per table.
type Loaders struct {
	customers *dataloader.Loader[int, *models.Customer]
	products  *dataloader.Loader[int, *models.Product]
	suppliers *dataloader.Loader[int, *models.Supplier]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	return &Loaders{
		customers: newLoader[models.Customer](batchById[models.Customer](conn)),
		products:  newLoader[models.Product](batchById[models.Product](conn)),
		suppliers: newLoader[models.Supplier](batchById[models.Supplier](conn)),
	}
}

func newLoader[T any](fetch dataloader.BatchFunc[int, *T]) *dataloader.Loader[int, *T] {
	return dataloader.NewBatchedLoader(fetch, dataloader.WithWait[int, *T](time.Millisecond))
}

func batchById[T models.Data](db *gorm.DB) dataloader.BatchFunc[int, *T] {
	return func(ctx context.Context, ids []int) []*dataloader.Result[*T] {
		var rows []T
		if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return handleError[*T](len(ids), err)
		}
		return generateLoaderResults(rows, ids)
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), loadersKey, NewLoaders(config.GetDB()))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request loaders, or fresh ones when the middleware did not run.
func For(ctx context.Context) *Loaders {
	if loaders, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return loaders
	}
	return NewLoaders(config.GetDB())
}

func GetCustomers(ctx context.Context, ids []int) ([]*models.Customer, []error) {
	return For(ctx).customers.LoadMany(ctx, ids)()
}

func GetProducts(ctx context.Context, ids []int) ([]*models.Product, []error) {
	return For(ctx).products.LoadMany(ctx, ids)()
}

func GetSuppliers(ctx context.Context, ids []int) ([]*models.Supplier, []error) {
	return For(ctx).suppliers.LoadMany(ctx, ids)()
}

// handleError repeats err once per requested id
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := range result {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateLoaderResults lines rows up with ids. Ids without a row get the
// type's placeholder record so a deleted customer never fails a whole list.
func generateLoaderResults[T models.Data](rows []T, ids []int) []*dataloader.Result[*T] {
	byId := make(map[int]T, len(rows)+1)
	var zero T
	byId[0] = zero.GetDefault(0).(T)
	for _, row := range rows {
		byId[row.GetId()] = row
	}

	results := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data, ok := byId[id]
		if !ok || reflect.ValueOf(data).IsZero() {
			data = zero.GetDefault(id).(T)
		}
		results = append(results, &dataloader.Result[*T]{Data: &data})
	}
	return results
}
