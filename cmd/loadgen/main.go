package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/vendora/inventory/internal/adapter/storage"
	"github.com/vendora/inventory/internal/core/domain"
	"github.com/vendora/inventory/internal/core/service"
)

// Fires concurrent single-unit adjustments at one inventory row to show the
// optimistic-concurrency behavior under contention: each round has exactly
// one winner, every loser gets a conflict it can retry.
const (
	productID     = "loadgen-product"
	warehouseID   = "loadgen-warehouse"
	initialStock  = 1000
	totalRequests = 200
)

func main() {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/inventory?parseTime=true"
	}

	ctx := context.Background()

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	adapter := storage.NewMySQLAdapter(db)
	stock := service.NewStockService(adapter, adapter, nil, logger)

	// Reset previous runs.
	db.ExecContext(ctx, `DELETE FROM stock_movement WHERE product_id = ?`, productID)
	db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = ?`, productID)

	inv, err := stock.Create(ctx, service.CreateInput{
		ProductID:       productID,
		WarehouseID:     warehouseID,
		InitialQuantity: initialStock,
		PerformedBy:     "loadgen",
	})
	if err != nil {
		log.Fatalf("failed to seed inventory: %v", err)
	}

	var success, conflict, other atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stock.AdjustStock(ctx, inv.ID, -1, "loadgen", "")
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, domain.ErrStockConflict):
				conflict.Add(1)
			default:
				other.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := stock.GetByID(ctx, inv.ID)
	if err != nil {
		log.Fatalf("failed to read final state: %v", err)
	}

	fmt.Printf("requests: %d in %v\n", totalRequests, elapsed)
	fmt.Printf("success: %d, conflict: %d, other: %d\n", success.Load(), conflict.Load(), other.Load())
	fmt.Printf("final quantity: %d (expected %d)\n", final.Quantity, initialStock-int(success.Load()))

	if final.Quantity != initialStock-int(success.Load()) {
		fmt.Println("MISMATCH: a lost update slipped through")
		os.Exit(1)
	}
}
