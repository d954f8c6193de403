package repositories

import "github.com/vsinha/rxstock/pkg/domain/entities"

// InventoryRepository provides access to the inventory collection
type InventoryRepository interface {
	LoadInventory() ([]entities.InventoryItem, error)
	SaveInventory(items []entities.InventoryItem) error
	// UpdateItem replaces the row with the same key. found is false when no
	// such row exists.
	UpdateItem(item entities.InventoryItem) (found bool, err error)
	UpdateQuantity(key entities.ItemKey, quantity int64) (found bool, err error)
	// AdjustQuantity adds delta to one row's quantity as a single
	// read-modify-write and returns the updated row. A negative result fails
	// with entities.ErrNegativeQuantity and changes nothing.
	AdjustQuantity(key entities.ItemKey, delta int64) (item entities.InventoryItem, found bool, err error)
}

// InventoryQueries are read-only views derived from the inventory and
// transaction collections
type InventoryQueries interface {
	SearchByName(query string) ([]entities.EnrichedItem, error)
	ByLocation(location string) ([]entities.EnrichedItem, error)
	LocationSummaries() ([]entities.LocationSummary, error)
	ExpiringWithin(days int) ([]entities.EnrichedItem, error)
	Expired() ([]entities.EnrichedItem, error)
	LowStock() ([]entities.EnrichedItem, error)
	UsageStats(drugName string, windowDays int) (*entities.UsageStats, error)
}
