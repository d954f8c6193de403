package stock

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/vsinha/rxstock/pkg/domain/entities"
)

// Search returns rows whose drug name fuzzily matches query, in input order
func Search(items []entities.InventoryItem, query string, now time.Time) []entities.EnrichedItem {
	var out []entities.EnrichedItem
	for i := range items {
		if MatchesName(items[i].Name, query) {
			out = append(out, items[i].Enrich(now))
		}
	}
	return out
}

// AtLocation returns rows whose location contains the given text,
// case-insensitively
func AtLocation(items []entities.InventoryItem, location string, now time.Time) []entities.EnrichedItem {
	needle := strings.ToLower(strings.TrimSpace(location))
	var out []entities.EnrichedItem
	for i := range items {
		if strings.Contains(strings.ToLower(items[i].Location), needle) {
			out = append(out, items[i].Enrich(now))
		}
	}
	return out
}

// Summarize aggregates rows per location, sorted by location
func Summarize(items []entities.InventoryItem, now time.Time) []entities.LocationSummary {
	byLoc := make(map[string]*entities.LocationSummary)
	for i := range items {
		item := &items[i]
		sum, ok := byLoc[item.Location]
		if !ok {
			sum = &entities.LocationSummary{Location: item.Location}
			byLoc[item.Location] = sum
		}
		sum.Items++
		sum.TotalQuantity += item.Quantity
		switch item.Status(now) {
		case entities.StatusExpired:
			sum.Expired++
		case entities.StatusStockout, entities.StatusCritical, entities.StatusLow:
			sum.LowStock++
		}
	}

	out := make([]entities.LocationSummary, 0, len(byLoc))
	for _, sum := range byLoc {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// ExpiringWithin returns unexpired rows with 0 < days remaining <= days,
// soonest first
func ExpiringWithin(items []entities.InventoryItem, days int, now time.Time) []entities.EnrichedItem {
	var out []entities.EnrichedItem
	for i := range items {
		e := items[i].Enrich(now)
		if e.Status == entities.StatusExpired || e.DaysRemaining <= 0 || e.DaysRemaining > days {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysRemaining < out[j].DaysRemaining
	})
	return out
}

// Expired returns rows whose expiry date has passed
func Expired(items []entities.InventoryItem, now time.Time) []entities.EnrichedItem {
	var out []entities.EnrichedItem
	for i := range items {
		if items[i].Status(now) == entities.StatusExpired {
			out = append(out, items[i].Enrich(now))
		}
	}
	return out
}

// LowStock returns unexpired rows below safety stock or out of stock.
// Stockouts come first, then ascending quantity/safety-stock ratio.
func LowStock(items []entities.InventoryItem, now time.Time) []entities.EnrichedItem {
	var out []entities.EnrichedItem
	for i := range items {
		switch items[i].Status(now) {
		case entities.StatusStockout, entities.StatusCritical, entities.StatusLow:
			out = append(out, items[i].Enrich(now))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		aOut, bOut := a.Quantity == 0, b.Quantity == 0
		if aOut != bOut {
			return aOut
		}
		ra, rb := a.StockRatio(), b.StockRatio()
		if ra != rb {
			return ra < rb
		}
		return a.Name < b.Name
	})
	return out
}

// AggregateUsage computes usage statistics for every drug whose name matches
// drugName. The window covers the windowDays calendar days ending on now's
// date.
func AggregateUsage(items []entities.InventoryItem, txns []entities.Transaction, drugName string, windowDays int, now time.Time) *entities.UsageStats {
	stats := &entities.UsageStats{DrugName: drugName, WindowDays: windowDays}

	ids := make(map[string]struct{})
	for i := range items {
		if MatchesName(items[i].Name, drugName) {
			if _, seen := ids[items[i].DrugID]; !seen {
				ids[items[i].DrugID] = struct{}{}
				stats.DrugIDs = append(stats.DrugIDs, items[i].DrugID)
			}
		}
	}
	sort.Strings(stats.DrugIDs)

	if windowDays <= 0 || len(ids) == 0 {
		return stats
	}

	end := StartOfDay(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -windowDays)
	stats.DailyUsage = make([]float64, windowDays)

	for i := range txns {
		t := &txns[i]
		if _, ok := ids[t.DrugID]; !ok {
			continue
		}
		if t.Timestamp.Before(start) || !t.Timestamp.Before(end) {
			continue
		}
		stats.TransactionCount++
		switch t.Action {
		case entities.ActionUse:
			stats.TotalUsed += t.Magnitude()
			// round absorbs DST shifts in the local day length
			day := int(math.Round(StartOfDay(t.Timestamp.In(now.Location())).Sub(start).Hours() / 24))
			if day >= 0 && day < windowDays {
				stats.DailyUsage[day] += float64(t.Magnitude())
			}
		case entities.ActionReceive:
			stats.TotalReceived += t.QtyChange
		case entities.ActionWaste:
			stats.TotalWasted += t.Magnitude()
		}
	}

	stats.AverageDailyUse = float64(stats.TotalUsed) / float64(windowDays)
	return stats
}

// MatchesName reports whether query fuzzily matches a drug name: the
// normalised query is a substring of the normalised name, or every
// whitespace-separated token of the query is.
func MatchesName(name, query string) bool {
	n := normalize(name)
	q := normalize(query)
	if q == "" {
		return false
	}
	if strings.Contains(n, q) {
		return true
	}
	for _, tok := range strings.Fields(query) {
		t := normalize(tok)
		if t != "" && !strings.Contains(n, t) {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
