package middlewares

import (
	"context"

	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
)

// CustomerNames resolves customer ids to names through the request loader.
// Ids that fail to load, or have no name, are left out.
func CustomerNames(ctx context.Context, ids []int) map[int]string {
	return resolveNames(ctx, "CustomerNames", ids, GetCustomers, func(c *models.Customer) string { return c.Name })
}

func SupplierNames(ctx context.Context, ids []int) map[int]string {
	return resolveNames(ctx, "SupplierNames", ids, GetSuppliers, func(s *models.Supplier) string { return s.Name })
}

func ProductNames(ctx context.Context, ids []int) map[int]string {
	return resolveNames(ctx, "ProductNames", ids, GetProducts, func(p *models.Product) string { return p.Name })
}

func resolveNames[T any](ctx context.Context,
	funcName string,
	ids []int,
	load func(context.Context, []int) ([]*T, []error),
	name func(*T) string) map[int]string {

	names := make(map[int]string)
	ids = utils.UniqueSlice(ids)
	if len(ids) == 0 {
		return names
	}
	rows, errs := load(ctx, ids)
	for i, row := range rows {
		if i < len(errs) && errs[i] != nil {
			config.LogError(config.GetLogger(), "names.go", funcName, "load", ids[i], errs[i])
			continue
		}
		if row == nil {
			continue
		}
		if n := name(row); n != "" {
			names[ids[i]] = n
		}
	}
	return names
}
