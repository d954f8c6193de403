package entities

import (
	"errors"
	"math"
	"testing"
	"time"
)

var refNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func TestInventoryItem_Validation(t *testing.T) {
	expiry := refNow.AddDate(0, 6, 0)
	item, err := NewInventoryItem("D1", "Morphine 10mg", "ICU", 12, expiry, "M-1", 10, 1.5)
	if err != nil {
		t.Fatalf("Expected valid item creation to succeed: %v", err)
	}
	if item.Key() != (ItemKey{DrugID: "D1", Location: "ICU", BatchLot: "M-1"}) {
		t.Errorf("Unexpected key %+v", item.Key())
	}

	testCases := []struct {
		name   string
		mutate func(*InventoryItem)
		field  string
	}{
		{"empty drug id", func(i *InventoryItem) { i.DrugID = " " }, "drug_id"},
		{"empty name", func(i *InventoryItem) { i.Name = "" }, "name"},
		{"empty location", func(i *InventoryItem) { i.Location = "" }, "location"},
		{"negative quantity", func(i *InventoryItem) { i.Quantity = -1 }, "quantity"},
		{"negative safety stock", func(i *InventoryItem) { i.SafetyStock = -2 }, "safety_stock"},
		{"negative daily use", func(i *InventoryItem) { i.AvgDailyUse = -0.1 }, "avg_daily_use"},
		{"NaN daily use", func(i *InventoryItem) { i.AvgDailyUse = math.NaN() }, "avg_daily_use"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bad := *item
			tc.mutate(&bad)
			err := bad.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("Expected field %s, got %s", tc.field, ve.Field)
			}
		})
	}

	// empty batch lot is allowed
	item.BatchLot = ""
	if err := item.Validate(); err != nil {
		t.Errorf("Expected empty batch lot to be valid: %v", err)
	}
}

func TestInventoryItem_Status(t *testing.T) {
	future := refNow.AddDate(0, 1, 0)
	testCases := []struct {
		name     string
		qty      int64
		safety   int64
		expiry   time.Time
		expected ItemStatus
	}{
		{"expired beats stockout", 0, 10, refNow.Add(-time.Hour), StatusExpired},
		{"stockout", 0, 10, future, StatusStockout},
		{"critical below half", 4, 10, future, StatusCritical},
		{"exactly half is low", 5, 10, future, StatusLow},
		{"low", 9, 10, future, StatusLow},
		{"at safety stock", 10, 10, future, StatusAdequate},
		{"no safety stock", 1, 0, future, StatusAdequate},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := InventoryItem{Quantity: tc.qty, SafetyStock: tc.safety, ExpiryDate: tc.expiry}
			if got := item.Status(refNow); got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestInventoryItem_DaysRemaining(t *testing.T) {
	item := InventoryItem{ExpiryDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}
	if got := item.DaysRemaining(refNow); got != 5 {
		t.Errorf("Expected 5 days, got %d", got)
	}

	item.ExpiryDate = time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	if got := item.DaysRemaining(refNow); got != -2 {
		t.Errorf("Expected -2 days, got %d", got)
	}
}

func TestCategorize(t *testing.T) {
	testCases := map[string]Category{
		"Morphine Sulfate 10mg": CategoryControlled,
		"INSULIN glargine":      CategoryRefrigerated,
		"Methotrexate 2.5mg":    CategoryHazardous,
		"Paracetamol 500mg":     CategoryStandard,
		// controlled is checked before refrigerated
		"Midazolam with insulin": CategoryControlled,
	}
	for name, expected := range testCases {
		if got := Categorize(name); got != expected {
			t.Errorf("%s: expected %s, got %s", name, expected, got)
		}
	}
}

func TestInventoryItem_EnrichAndRatio(t *testing.T) {
	item := InventoryItem{
		DrugID: "D2", Name: "Fentanyl patch", Location: "ER",
		Quantity: 3, SafetyStock: 12, ExpiryDate: refNow.AddDate(0, 0, 3),
	}
	e := item.Enrich(refNow)
	if e.Status != StatusCritical || e.DaysRemaining != 3 || e.Category != CategoryControlled {
		t.Errorf("Unexpected enrichment %+v", e)
	}
	if e.DrugID != "D2" {
		t.Errorf("Expected embedded row to be copied")
	}
	if r := item.StockRatio(); r != 0.25 {
		t.Errorf("Expected ratio 0.25, got %v", r)
	}
	item.SafetyStock = 0
	if r := item.StockRatio(); !math.IsInf(r, 1) {
		t.Errorf("Expected +Inf ratio, got %v", r)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Collection: "inventory", Row: 3, Field: "quantity", Value: "x", Reason: "not an integer"}
	expected := `inventory row 3: quantity "x" not an integer`
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if got := invalid("role", "", "bad").Error(); got != "role bad" {
		t.Errorf("Unexpected message %q", got)
	}
}
