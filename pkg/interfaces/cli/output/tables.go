package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/rxstock/pkg/application/services"
	"github.com/vsinha/rxstock/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

func num(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

// ItemsTable renders enriched inventory rows
func ItemsTable(title string, items []entities.EnrichedItem) Table {
	t := Table{
		Title:   title,
		Headers: []string{"Drug ID", "Name", "Location", "Qty", "Safety", "Expiry", "Days", "Status", "Category", "Lot"},
	}
	for _, it := range items {
		t.Rows = append(t.Rows, []string{
			it.DrugID,
			it.Name,
			it.Location,
			strconv.FormatInt(it.Quantity, 10),
			strconv.FormatInt(it.SafetyStock, 10),
			it.ExpiryDate.Format(dateLayout),
			strconv.Itoa(it.DaysRemaining),
			string(it.Status),
			string(it.Category),
			it.BatchLot,
		})
	}
	return t
}

// SummariesTable renders per-location aggregates
func SummariesTable(summaries []entities.LocationSummary) Table {
	t := Table{
		Title:   "Locations",
		Headers: []string{"Location", "Items", "Total Qty", "Low Stock", "Expired"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{
			s.Location,
			strconv.Itoa(s.Items),
			strconv.FormatInt(s.TotalQuantity, 10),
			strconv.Itoa(s.LowStock),
			strconv.Itoa(s.Expired),
		})
	}
	return t
}

// UsageTable renders usage statistics as metric/value pairs
func UsageTable(u *entities.UsageStats) Table {
	return Table{
		Title:   fmt.Sprintf("Usage of %q over %d days", u.DrugName, u.WindowDays),
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Drug IDs", fmt.Sprint(u.DrugIDs)},
			{"Transactions", strconv.Itoa(u.TransactionCount)},
			{"Used", strconv.FormatInt(u.TotalUsed, 10)},
			{"Received", strconv.FormatInt(u.TotalReceived, 10)},
			{"Wasted", strconv.FormatInt(u.TotalWasted, 10)},
			{"Average daily use", num(u.AverageDailyUse)},
		},
	}
}

// ForecastTable renders the daily projection of a forecast report
func ForecastTable(f *services.DrugForecast) Table {
	title := fmt.Sprintf("Forecast for %q: stock %d, %s, safety stock %d, reorder at %d, stockout %s (%s confidence), seasonality %s",
		f.DrugName, f.CurrentStock, f.Demand.Status, f.SafetyStock, f.ReorderPoint,
		optionalDate(f.Stockout.Date), f.Stockout.Confidence, f.Seasonality.Pattern)
	t := Table{
		Title:   title,
		Headers: []string{"Date", "Weekday", "Predicted", "Lower", "Upper", "Remaining"},
	}
	for _, d := range f.Demand.Days {
		t.Rows = append(t.Rows, []string{
			d.Date.Format(dateLayout),
			d.Weekday.String()[:3],
			num(d.Predicted),
			num(d.Lower),
			num(d.Upper),
			num(d.RemainingStock),
		})
	}
	return t
}

// MovementTable renders the row left after a stock movement
func MovementTable(item *entities.InventoryItem) Table {
	return Table{
		Title:   "Stock updated",
		Headers: []string{"Drug ID", "Name", "Location", "Lot", "Qty"},
		Rows: [][]string{{
			item.DrugID, item.Name, item.Location, item.BatchLot, strconv.FormatInt(item.Quantity, 10),
		}},
	}
}
