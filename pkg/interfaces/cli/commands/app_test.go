package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/rxstock/pkg/application/services"
	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/infrastructure/config"
	"github.com/vsinha/rxstock/pkg/infrastructure/logger"
	"github.com/vsinha/rxstock/pkg/infrastructure/repositories/csv"
)

type fixture struct {
	app   *App
	out   *bytes.Buffer
	dir   string
	files *csv.Store
}

func newFixture(t *testing.T, format string) *fixture {
	t.Helper()

	settings, err := config.Load("")
	require.NoError(t, err)
	dir := t.TempDir()
	settings.Store.DataDir = dir
	settings.HTTP.Addr = "127.0.0.1:0"

	files := csv.NewStore(dir)
	day := func(n int) time.Time {
		return time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, n)
	}
	require.NoError(t, files.SaveInventory([]entities.InventoryItem{
		{DrugID: "D3", Name: "Paracetamol 500mg", Location: "Main Pharmacy", Quantity: 40, ExpiryDate: day(200), BatchLot: "L1", SafetyStock: 10, AvgDailyUse: 5},
		{DrugID: "D3", Name: "Paracetamol 500mg", Location: "ER", Quantity: 4, ExpiryDate: day(10), BatchLot: "L2", SafetyStock: 10, AvgDailyUse: 2},
		{DrugID: "D7", Name: "Insulin Glargine", Location: "ICU", Quantity: 6, ExpiryDate: day(-3), BatchLot: "I1", SafetyStock: 5, AvgDailyUse: 1},
	}))

	out := &bytes.Buffer{}
	app, err := NewApp(Config{
		Settings: settings,
		Format:   format,
		Out:      out,
		Logger:   logger.NewWithWriter(&bytes.Buffer{}, "dev"),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return &fixture{app: app, out: out, dir: dir, files: files}
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.out.Reset()
	return f.app.Execute(context.Background(), args)
}

func TestNewAppRejectsUnknownFormat(t *testing.T) {
	_, err := NewApp(Config{Format: "yaml"})
	assert.Error(t, err)
}

func TestHelpAndUnknownCommand(t *testing.T) {
	f := newFixture(t, "text")

	require.NoError(t, f.run(t))
	assert.Contains(t, f.out.String(), "COMMANDS:")

	require.NoError(t, f.run(t, "help"))
	assert.Contains(t, f.out.String(), "forecast -user ID")

	err := f.run(t, "explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestSearchJSON(t *testing.T) {
	f := newFixture(t, "json")

	require.NoError(t, f.run(t, "search", "PARACETAMOL", "500"))
	var items []entities.EnrichedItem
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &items))
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "D3", it.DrugID)
	}

	assert.Error(t, f.run(t, "search"))
}

func TestReadViewsText(t *testing.T) {
	f := newFixture(t, "text")

	require.NoError(t, f.run(t, "location", "icu"))
	assert.Contains(t, f.out.String(), "Insulin Glargine")
	assert.NotContains(t, f.out.String(), "Paracetamol")

	require.NoError(t, f.run(t, "locations"))
	for _, loc := range []string{"ER", "ICU", "Main Pharmacy"} {
		assert.Contains(t, f.out.String(), loc)
	}

	require.NoError(t, f.run(t, "expired"))
	assert.Contains(t, f.out.String(), "I1")

	require.NoError(t, f.run(t, "expiring", "-days", "30"))
	assert.Contains(t, f.out.String(), "L2")
	assert.NotContains(t, f.out.String(), "L1")

	require.NoError(t, f.run(t, "usage", "-days", "7", "paracetamol"))
	assert.Contains(t, f.out.String(), "Average daily use")
}

func TestLowStockCSV(t *testing.T) {
	f := newFixture(t, "csv")

	require.NoError(t, f.run(t, "low-stock"))
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "L2")
}

func TestForecastCommand(t *testing.T) {
	f := newFixture(t, "text")
	require.NoError(t, f.run(t, "add-user", "-id", "M1", "-role", "Master", "-password", "s3cret"))
	require.NoError(t, f.run(t, "add-user", "-actor", "M1", "-actor-password", "s3cret",
		"-id", "N1", "-role", "Nurse", "-password", "pw"))

	require.NoError(t, f.run(t, "forecast", "-user", "M1", "-password", "s3cret", "-horizon", "5", "paracetamol"))
	out := f.out.String()
	assert.Contains(t, out, `Forecast for "paracetamol"`)
	assert.Contains(t, out, "Remaining")

	err := f.run(t, "forecast", "-user", "M1", "-password", "s3cret", "aspirin")
	assert.ErrorIs(t, err, services.ErrItemNotFound)

	err = f.run(t, "forecast", "paracetamol")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	err = f.run(t, "forecast", "-user", "N1", "-password", "pw", "paracetamol")
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestAddUserAndRecordMovement(t *testing.T) {
	f := newFixture(t, "text")

	require.NoError(t, f.run(t, "add-user", "-id", "M1", "-name", "Admin", "-role", "master", "-password", "s3cret"))
	assert.Contains(t, f.out.String(), "created M1 (Master)")

	// second account needs an authenticated admin
	err := f.run(t, "add-user", "-id", "N1", "-role", "Nurse", "-password", "pw")
	assert.ErrorIs(t, err, services.ErrUnknownUser)
	require.NoError(t, f.run(t, "add-user", "-actor", "M1", "-actor-password", "s3cret",
		"-id", "N1", "-role", "Nurse", "-password", "pw"))

	err = f.run(t, "record", "-user", "M1", "-password", "wrong",
		"-drug", "D3", "-location", "Main Pharmacy", "-lot", "L1", "-action", "USE", "-qty", "5")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	require.NoError(t, f.run(t, "record", "-user", "M1", "-password", "s3cret",
		"-drug", "D3", "-location", "Main Pharmacy", "-lot", "L1", "-action", "USE", "-qty", "5"))
	assert.Contains(t, f.out.String(), "35")

	items, err := f.files.LoadInventory()
	require.NoError(t, err)
	assert.Equal(t, int64(35), items[0].Quantity)

	txns, err := f.files.LoadTransactions()
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(-5), txns[0].QtyChange)

	// the cached read path sees the write
	require.NoError(t, f.run(t, "location", "main"))
	assert.Contains(t, f.out.String(), "35")

	err = f.run(t, "record", "-user", "N1", "-password", "pw",
		"-drug", "D3", "-location", "Main Pharmacy", "-lot", "L1", "-action", "USE", "-qty", "1")
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	err = f.run(t, "record", "-user", "M1", "-password", "s3cret", "-action", "STEAL", "-qty", "1")
	assert.Error(t, err)
}

func TestExportWritesWorkbookAndAudits(t *testing.T) {
	f := newFixture(t, "text")
	path := filepath.Join(f.dir, "report.xlsx")

	require.NoError(t, f.run(t, "export", "-out", path, "-user", "M1"))
	assert.Contains(t, f.out.String(), "exported 3 rows")

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Inventory", "Locations", "Low Stock", "Expiring", "Expired"}, wb.GetSheetList())

	rows, err := wb.GetRows("Inventory")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	log, err := f.files.LoadAccessLog()
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, entities.AccessExport, log[0].Action)
	assert.Equal(t, path, log[0].Details)
}

func TestServeStopsOnCancel(t *testing.T) {
	f := newFixture(t, "text")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.app.Execute(ctx, []string{"serve"}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.False(t, errors.Is(err, context.Canceled))
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
