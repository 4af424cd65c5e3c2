package models

import (
	"github.com/mmdatafocus/distribution_backend/config"
)

// tables in dependency order: reference data before the documents that point at it
var migratedModels = []interface{}{
	&Customer{}, &Product{}, &Supplier{}, &User{},
	&Order{}, &OrderItem{},
	&PurchaseOrder{}, &PurchaseOrderItem{},
	&Expense{}, &ExpenseItem{},
	&History{},
	&Visit{},
}

// MigrateTable creates or alters every table. A failure is fatal on startup.
func MigrateTable() {
	if err := config.GetDB().AutoMigrate(migratedModels...); err != nil {
		config.GetLogger().WithError(err).Fatal("auto migrate failed")
	}
}
