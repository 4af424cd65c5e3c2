// recompute-totals re-runs pricing over every stored order, purchase order and
// expense and saves the documents whose totals no longer match.
//
// Usage:
//
//	go run ./cmd/recompute-totals -dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/sirupsen/logrus"
)

type counter struct {
	scanned int
	drifted int
}

func main() {
	dryRun := flag.Bool("dry-run", false, "only report drifted documents")
	batchSize := flag.Int("batch", 200, "documents loaded per query")
	continueOnError := flag.Bool("continue-on-error", false, "skip documents that fail to save")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()
	ctx := context.Background()

	check := func(kind, code string, c *counter, fix func() (bool, error)) error {
		c.scanned++
		drifted, err := fix()
		if drifted {
			c.drifted++
			logger.WithFields(logrus.Fields{"kind": kind, "code": code, "dry_run": *dryRun}).Warn("totals drifted")
		}
		if err != nil {
			config.LogError(logger, "recompute-totals", "main", "fix "+kind, code, err)
			if *continueOnError {
				return nil
			}
		}
		return err
	}

	var orders, purchases, expenses counter
	err := models.EachOrder(ctx, *batchSize, func(o *models.Order) error {
		return check("order", o.Code, &orders, func() (bool, error) { return models.FixOrderTotals(ctx, o, *dryRun) })
	})
	if err == nil {
		err = models.EachPurchaseOrder(ctx, *batchSize, func(po *models.PurchaseOrder) error {
			return check("purchase_order", po.Code, &purchases, func() (bool, error) { return models.FixPurchaseOrderTotals(ctx, po, *dryRun) })
		})
	}
	if err == nil {
		err = models.EachExpense(ctx, *batchSize, func(e *models.Expense) error {
			return check("expense", e.Code, &expenses, func() (bool, error) { return models.FixExpenseTotals(ctx, e, *dryRun) })
		})
	}

	fmt.Printf("orders: %d scanned, %d drifted\n", orders.scanned, orders.drifted)
	fmt.Printf("purchase orders: %d scanned, %d drifted\n", purchases.scanned, purchases.drifted)
	fmt.Printf("expenses: %d scanned, %d drifted\n", expenses.scanned, expenses.drifted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stopped: %v\n", err)
		os.Exit(1)
	}
}
