package entities

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ItemStatus is the derived stock status of an inventory row
type ItemStatus string

const (
	StatusExpired  ItemStatus = "expired"
	StatusStockout ItemStatus = "stockout"
	StatusCritical ItemStatus = "critical"
	StatusLow      ItemStatus = "low"
	StatusAdequate ItemStatus = "adequate"
)

// Category groups drugs by handling requirements
type Category string

const (
	CategoryControlled   Category = "controlled"
	CategoryRefrigerated Category = "refrigerated"
	CategoryHazardous    Category = "hazardous"
	CategoryStandard     Category = "standard"
)

// CriticalRatio is the fraction of safety stock below which a row is critical.
const CriticalRatio = 0.5

// Name fragments used for categorisation. Checked in order: controlled,
// refrigerated, hazardous.
var (
	ControlledDrugs = []string{
		"morphine", "fentanyl", "oxycodone", "hydromorphone", "hydrocodone",
		"methadone", "codeine", "midazolam", "lorazepam", "diazepam",
		"alprazolam", "ketamine", "tramadol",
	}
	RefrigeratedDrugs = []string{
		"insulin", "vaccine", "epoetin", "filgrastim", "rocuronium",
		"succinylcholine", "oxytocin", "adalimumab", "etanercept",
	}
	HazardousDrugs = []string{
		"methotrexate", "cyclophosphamide", "cisplatin", "carboplatin",
		"doxorubicin", "fluorouracil", "vincristine", "paclitaxel", "tamoxifen",
	}
)

// ItemKey identifies one inventory row
type ItemKey struct {
	DrugID   string
	Location string
	BatchLot string
}

// InventoryItem is one stock row: a batch of a drug held at a location
type InventoryItem struct {
	DrugID      string
	Name        string
	Location    string
	Quantity    int64
	ExpiryDate  time.Time
	BatchLot    string
	SafetyStock int64
	AvgDailyUse float64
}

// NewInventoryItem creates a validated InventoryItem
func NewInventoryItem(drugID, name, location string, quantity int64, expiry time.Time, batchLot string, safetyStock int64, avgDailyUse float64) (*InventoryItem, error) {
	item := &InventoryItem{
		DrugID:      drugID,
		Name:        name,
		Location:    location,
		Quantity:    quantity,
		ExpiryDate:  expiry,
		BatchLot:    batchLot,
		SafetyStock: safetyStock,
		AvgDailyUse: avgDailyUse,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks the row invariants
func (i *InventoryItem) Validate() error {
	switch {
	case strings.TrimSpace(i.DrugID) == "":
		return invalid("drug_id", "", "cannot be empty")
	case strings.TrimSpace(i.Name) == "":
		return invalid("name", "", "cannot be empty")
	case strings.TrimSpace(i.Location) == "":
		return invalid("location", "", "cannot be empty")
	case i.Quantity < 0:
		return invalid("quantity", "", "cannot be negative")
	case i.SafetyStock < 0:
		return invalid("safety_stock", "", "cannot be negative")
	case math.IsNaN(i.AvgDailyUse) || math.IsInf(i.AvgDailyUse, 0) || i.AvgDailyUse < 0:
		return invalid("avg_daily_use", "", "must be a non-negative number")
	}
	return nil
}

// ApplyDelta returns quantity + delta, or ErrNegativeQuantity when the
// result would be below zero
func ApplyDelta(quantity, delta int64) (int64, error) {
	next := quantity + delta
	if next < 0 {
		return quantity, fmt.Errorf("%w: %d on hand, change %d", ErrNegativeQuantity, quantity, delta)
	}
	return next, nil
}

// Key returns the row identity
func (i *InventoryItem) Key() ItemKey {
	return ItemKey{DrugID: i.DrugID, Location: i.Location, BatchLot: i.BatchLot}
}

// Status derives the stock status at now
func (i *InventoryItem) Status(now time.Time) ItemStatus {
	switch {
	case i.ExpiryDate.Before(now):
		return StatusExpired
	case i.Quantity == 0:
		return StatusStockout
	case float64(i.Quantity) < CriticalRatio*float64(i.SafetyStock):
		return StatusCritical
	case i.Quantity < i.SafetyStock:
		return StatusLow
	default:
		return StatusAdequate
	}
}

// DaysRemaining is the number of days until expiry, rounded up.
// Negative once the batch has expired.
func (i *InventoryItem) DaysRemaining(now time.Time) int {
	return int(math.Ceil(i.ExpiryDate.Sub(now).Hours() / 24))
}

// Category classifies the drug by its name
func (i *InventoryItem) Category() Category {
	return Categorize(i.Name)
}

// Categorize matches a drug name against the fixed category lists
func Categorize(name string) Category {
	lower := strings.ToLower(name)
	for _, group := range []struct {
		names    []string
		category Category
	}{
		{ControlledDrugs, CategoryControlled},
		{RefrigeratedDrugs, CategoryRefrigerated},
		{HazardousDrugs, CategoryHazardous},
	} {
		for _, n := range group.names {
			if strings.Contains(lower, n) {
				return group.category
			}
		}
	}
	return CategoryStandard
}

// EnrichedItem is an InventoryItem with derived fields. Never persisted.
type EnrichedItem struct {
	InventoryItem
	Status        ItemStatus
	DaysRemaining int
	Category      Category
}

// Enrich computes the derived view at now
func (i *InventoryItem) Enrich(now time.Time) EnrichedItem {
	return EnrichedItem{
		InventoryItem: *i,
		Status:        i.Status(now),
		DaysRemaining: i.DaysRemaining(now),
		Category:      i.Category(),
	}
}

// StockRatio is quantity over safety stock; +Inf when no safety stock is set
func (i *InventoryItem) StockRatio() float64 {
	if i.SafetyStock == 0 {
		return math.Inf(1)
	}
	return float64(i.Quantity) / float64(i.SafetyStock)
}

// LocationSummary aggregates the rows held at one location
type LocationSummary struct {
	Location      string
	Items         int
	TotalQuantity int64
	LowStock      int
	Expired       int
}

// UsageStats aggregates transactions for a drug over a trailing window
type UsageStats struct {
	DrugName         string
	DrugIDs          []string
	WindowDays       int
	TotalUsed        int64
	TotalReceived    int64
	TotalWasted      int64
	TransactionCount int
	AverageDailyUse  float64
	// DailyUsage holds USE magnitude per day, oldest first.
	DailyUsage []float64
}
