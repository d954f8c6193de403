package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/rxstock/pkg/application/services"
	"github.com/vsinha/rxstock/pkg/infrastructure/cache"
	"github.com/vsinha/rxstock/pkg/infrastructure/config"
	"github.com/vsinha/rxstock/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/rxstock/pkg/interfaces/cli/output"
)

// Config holds everything the CLI needs to build its dependencies
type Config struct {
	Settings config.Config
	Format   string
	Out      io.Writer
	Logger   *slog.Logger
	// Registry receives the cache metrics; nil creates a private registry.
	Registry *prometheus.Registry
}

// App wires the file store, cache and services behind the CLI commands
type App struct {
	settings config.Config
	format   string
	out      io.Writer
	logger   *slog.Logger
	registry *prometheus.Registry

	files     *csv.Store
	cache     *cache.Cache
	store     *cache.CachedStore
	stock     *services.StockService
	forecasts *services.ForecastService
	users     *services.UserService
}

// NewApp builds the application and starts the cache sweep. Call Close when
// done.
func NewApp(cfg Config) (*App, error) {
	if cfg.Format == "" {
		cfg.Format = output.FormatText
	}
	if !output.ValidFormat(cfg.Format) {
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	files := csv.NewStore(cfg.Settings.Store.DataDir, csv.WithLogger(cfg.Logger))
	if err := files.EnsureDirectory(); err != nil {
		return nil, err
	}

	c := cache.New(
		cache.WithMetrics(cache.NewMetrics(cfg.Registry)),
		cache.WithSweepInterval(cfg.Settings.Cache.SweepInterval),
		cache.WithLogger(cfg.Logger),
	)
	store := cache.NewCachedStore(files, c, cfg.Settings.CacheTTLs())

	fc := services.DefaultForecastConfig()
	f := cfg.Settings.Forecast
	if f.Alpha > 0 {
		fc.Alpha = f.Alpha
	}
	if f.ServiceLevel > 0 {
		fc.ServiceLevel = f.ServiceLevel
	}
	if f.LeadTimeDays > 0 {
		fc.LeadTimeDays = f.LeadTimeDays
	}
	if f.HorizonDays > 0 {
		fc.HorizonDays = f.HorizonDays
	}

	app := &App{
		settings:  cfg.Settings,
		format:    cfg.Format,
		out:       cfg.Out,
		logger:    cfg.Logger,
		registry:  cfg.Registry,
		files:     files,
		cache:     c,
		store:     store,
		stock:     services.NewStockService(store, cfg.Logger),
		forecasts: services.NewForecastService(store, fc, cfg.Logger),
		users:     services.NewUserService(store, cfg.Logger),
	}
	c.Start()
	return app, nil
}

// Close stops the cache sweep
func (a *App) Close() {
	a.cache.Stop()
}

// Execute runs one command. args[0] is the command name.
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.showHelp()
		return nil
	}

	name, rest := args[0], args[1:]
	switch strings.ToLower(name) {
	case "help", "-h", "--help":
		a.showHelp()
		return nil
	case "search":
		return a.search(rest)
	case "location":
		return a.location(rest)
	case "locations":
		return a.locations()
	case "low-stock":
		return a.lowStock()
	case "expiring":
		return a.expiring(rest)
	case "expired":
		return a.expired()
	case "usage":
		return a.usage(rest)
	case "forecast":
		return a.forecast(ctx, rest)
	case "record":
		return a.record(ctx, rest)
	case "add-user":
		return a.addUser(ctx, rest)
	case "export":
		return a.export(rest)
	case "serve":
		return a.serve(ctx)
	default:
		return fmt.Errorf("unknown command %q (run \"rxstock help\")", name)
	}
}

func (a *App) showHelp() {
	fmt.Fprint(a.out, `rxstock - hospital pharmacy inventory store and forecasting

USAGE:
    rxstock [global options] <command> [command options]

    Read commands are open to the local operator. forecast, record and
    add-user authenticate the acting employee and check their role.

GLOBAL OPTIONS:
    -config <file>      Configuration file (yaml, json, toml)
    -data-dir <dir>     Directory holding the CSV collections
    -format <fmt>       Output format: text, json, csv (default text)

COMMANDS:
    search <query>               Fuzzy search inventory by drug name
    location <text>              Rows whose location contains text
    locations                    Per-location summary
    low-stock                    Rows below safety stock
    expiring [-days N]           Rows expiring within N days (default 30)
    expired                      Rows past their expiry date
    usage <drug> [-days N]       Usage statistics over N days (default 30)
    forecast -user ID -password PW [-horizon N] [-lead-time D] [-service-level S] <drug>
                                 Demand forecast, stockout and safety stock
                                 (Pharmacist or Master)
    record -user ID -password PW -drug ID -location LOC -lot LOT -action A -qty N
                                 Record a stock movement (USE, RECEIVE, TRANSFER, ADJUST, WASTE)
    add-user -id ID -role ROLE -password PW [-name N] [-group G] [-actor ID -actor-password PW]
                                 Create a staff account (first account needs no actor)
    export [-out file.xlsx] [-user ID]
                                 Write an Excel inventory report
    serve                        Serve /health and /metrics until interrupted

ENVIRONMENT:
    RXSTOCK_<SECTION>_<KEY> overrides any configuration key, e.g.
    RXSTOCK_STORE_DATA_DIR=/var/lib/rxstock
`)
}
