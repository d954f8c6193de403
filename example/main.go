package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vsinha/rxstock/pkg/application/services"
	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/infrastructure/cache"
	"github.com/vsinha/rxstock/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// In-memory store behind the cache layer
	c := cache.New(cache.WithLogger(logger))
	store := cache.NewCachedStore(memory.NewStore(), c, cache.DefaultTTLs())
	c.Start()
	defer c.Stop()

	if err := setupWard(store); err != nil {
		fmt.Printf("❌ Setup failed: %v\n", err)
		return
	}

	users := services.NewUserService(store, logger)
	stock := services.NewStockService(store, logger)
	forecasts := services.NewForecastService(store, services.DefaultForecastConfig(), logger)

	if _, err := users.Register(ctx, "", services.NewUser{
		EmployeeID: "PH001", Name: "Night Pharmacist", Role: entities.RolePharmacist, Password: "demo",
	}); err != nil {
		fmt.Printf("❌ Register failed: %v\n", err)
		return
	}

	fmt.Println("💊 Dispensing from the ICU cabinet...")
	for _, qty := range []int64{4, 6, 5} {
		item, err := stock.RecordMovement(ctx, services.Movement{
			UserID:   "PH001",
			Key:      entities.ItemKey{DrugID: "D100", Location: "ICU", BatchLot: "MOR-24A"},
			Action:   entities.ActionUse,
			Quantity: qty,
		})
		if err != nil {
			fmt.Printf("❌ Movement failed: %v\n", err)
			return
		}
		fmt.Printf("  used %d, %d left\n", qty, item.Quantity)
	}
	fmt.Println()

	low, err := store.LowStock()
	if err != nil {
		fmt.Printf("❌ Low stock query failed: %v\n", err)
		return
	}
	fmt.Println("🚨 Low Stock:")
	for _, it := range low {
		fmt.Printf("  %s @ %s: %d of %d (%s, %s)\n",
			it.Name, it.Location, it.Quantity, it.SafetyStock, it.Status, it.Category)
	}
	fmt.Println()

	report, err := forecasts.Forecast(ctx, services.ForecastRequest{UserID: "PH001", DrugName: "morphine"})
	if err != nil {
		fmt.Printf("❌ Forecast failed: %v\n", err)
		return
	}
	fmt.Println("📈 Morphine Forecast:")
	fmt.Printf("  On hand: %d | Avg daily use: %.2f | Trend: %s\n",
		report.CurrentStock, report.AvgDailyUse, report.Demand.Status)
	fmt.Printf("  Safety stock: %d | Reorder point: %d\n", report.SafetyStock, report.ReorderPoint)
	if report.Stockout.Date != nil {
		fmt.Printf("  Projected stockout: %s (%s confidence)\n",
			report.Stockout.Date.Format("2006-01-02"), report.Stockout.Confidence)
	}
	fmt.Println()

	fmt.Println("✅ Ward review complete!")
}

func setupWard(store *cache.CachedStore) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return store.SaveInventory([]entities.InventoryItem{
		{DrugID: "D100", Name: "Morphine Sulfate 10mg", Location: "ICU", Quantity: 40,
			ExpiryDate: today.AddDate(0, 8, 0), BatchLot: "MOR-24A", SafetyStock: 30, AvgDailyUse: 6},
		{DrugID: "D100", Name: "Morphine Sulfate 10mg", Location: "ER", Quantity: 12,
			ExpiryDate: today.AddDate(0, 0, 20), BatchLot: "MOR-23K", SafetyStock: 10, AvgDailyUse: 3},
		{DrugID: "D200", Name: "Insulin Glargine", Location: "ICU", Quantity: 8,
			ExpiryDate: today.AddDate(0, 2, 0), BatchLot: "INS-07", SafetyStock: 6, AvgDailyUse: 1},
		{DrugID: "D300", Name: "Paracetamol 500mg", Location: "Main Pharmacy", Quantity: 900,
			ExpiryDate: today.AddDate(1, 0, 0), BatchLot: "PAR-88", SafetyStock: 200, AvgDailyUse: 40},
	})
}
