package commands

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vsinha/rxstock/pkg/application/services"
	"github.com/vsinha/rxstock/pkg/domain/entities"
	httpserver "github.com/vsinha/rxstock/pkg/infrastructure/http"
	"github.com/vsinha/rxstock/pkg/interfaces/cli/output"
)

const defaultWindowDays = 30

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// joinArgs parses flags and returns the remaining positional words joined
func joinArgs(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return "", fmt.Errorf("%s: missing %s", fs.Name(), what)
	}
	return text, nil
}

func (a *App) write(data any, table output.Table) error {
	return output.Write(a.out, a.format, data, table)
}

func (a *App) search(args []string) error {
	query, err := joinArgs(a.flags("search"), args, "query")
	if err != nil {
		return err
	}
	items, err := a.store.SearchByName(query)
	if err != nil {
		return err
	}
	return a.write(items, output.ItemsTable(fmt.Sprintf("Search %q", query), items))
}

func (a *App) location(args []string) error {
	loc, err := joinArgs(a.flags("location"), args, "location")
	if err != nil {
		return err
	}
	items, err := a.store.ByLocation(loc)
	if err != nil {
		return err
	}
	return a.write(items, output.ItemsTable(fmt.Sprintf("Location %q", loc), items))
}

func (a *App) locations() error {
	summaries, err := a.store.LocationSummaries()
	if err != nil {
		return err
	}
	return a.write(summaries, output.SummariesTable(summaries))
}

func (a *App) lowStock() error {
	items, err := a.store.LowStock()
	if err != nil {
		return err
	}
	return a.write(items, output.ItemsTable("Low stock", items))
}

func (a *App) expiring(args []string) error {
	fs := a.flags("expiring")
	days := fs.Int("days", defaultWindowDays, "window in days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, err := a.store.ExpiringWithin(*days)
	if err != nil {
		return err
	}
	return a.write(items, output.ItemsTable(fmt.Sprintf("Expiring within %d days", *days), items))
}

func (a *App) expired() error {
	items, err := a.store.Expired()
	if err != nil {
		return err
	}
	return a.write(items, output.ItemsTable("Expired", items))
}

func (a *App) usage(args []string) error {
	fs := a.flags("usage")
	days := fs.Int("days", defaultWindowDays, "window in days")
	drug, err := joinArgs(fs, args, "drug name")
	if err != nil {
		return err
	}
	stats, err := a.store.UsageStats(drug, *days)
	if err != nil {
		return err
	}
	return a.write(stats, output.UsageTable(stats))
}

func (a *App) forecast(ctx context.Context, args []string) error {
	fs := a.flags("forecast")
	user := fs.String("user", "", "employee id")
	password := fs.String("password", "", "password")
	horizon := fs.Int("horizon", 0, "forecast horizon in days")
	leadTime := fs.Float64("lead-time", 0, "replenishment lead time in days")
	serviceLevel := fs.Float64("service-level", 0, "target service level (0.90, 0.95, 0.98, 0.99)")
	drug, err := joinArgs(fs, args, "drug name")
	if err != nil {
		return err
	}

	if _, err := a.users.Authenticate(ctx, *user, *password, ""); err != nil {
		return err
	}

	report, err := a.forecasts.Forecast(ctx, services.ForecastRequest{
		UserID:       *user,
		DrugName:     drug,
		HorizonDays:  *horizon,
		LeadTimeDays: *leadTime,
		ServiceLevel: *serviceLevel,
	})
	if err != nil {
		return err
	}
	return a.write(report, output.ForecastTable(report))
}

func (a *App) record(ctx context.Context, args []string) error {
	fs := a.flags("record")
	user := fs.String("user", "", "employee id")
	password := fs.String("password", "", "password")
	drug := fs.String("drug", "", "drug id")
	location := fs.String("location", "", "location")
	lot := fs.String("lot", "", "batch lot")
	action := fs.String("action", "", "USE, RECEIVE, TRANSFER, ADJUST or WASTE")
	qty := fs.Int64("qty", 0, "quantity")
	ip := fs.String("ip", "", "client address for the access log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	act, err := entities.ParseAction(*action)
	if err != nil {
		return err
	}
	if _, err := a.users.Authenticate(ctx, *user, *password, *ip); err != nil {
		return err
	}

	item, err := a.stock.RecordMovement(ctx, services.Movement{
		UserID:   *user,
		Key:      entities.ItemKey{DrugID: *drug, Location: *location, BatchLot: *lot},
		Action:   act,
		Quantity: *qty,
		IP:       *ip,
	})
	if err != nil {
		return err
	}
	return a.write(item, output.MovementTable(item))
}

func (a *App) addUser(ctx context.Context, args []string) error {
	fs := a.flags("add-user")
	actor := fs.String("actor", "", "employee id of the admin creating the account")
	actorPassword := fs.String("actor-password", "", "admin password")
	id := fs.String("id", "", "employee id")
	name := fs.String("name", "", "display name")
	role := fs.String("role", "", "Nurse, Pharmacist or Master")
	group := fs.String("group", "", "ward or team")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := entities.ParseRole(*role)
	if err != nil {
		return err
	}
	if *actor != "" {
		if _, err := a.users.Authenticate(ctx, *actor, *actorPassword, ""); err != nil {
			return err
		}
	}

	user, err := a.users.Register(ctx, *actor, services.NewUser{
		EmployeeID: *id,
		Name:       *name,
		Role:       r,
		Group:      *group,
		Password:   *password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %s (%s)\n", user.EmployeeID, user.Role)
	return nil
}

func (a *App) export(args []string) error {
	fs := a.flags("export")
	out := fs.String("out", "", "destination .xlsx file")
	user := fs.String("user", "", "employee id recorded in the access log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	now := time.Now()
	if *out == "" {
		*out = fmt.Sprintf("inventory_%s.xlsx", now.Format("20060102_150405"))
	}

	items, err := a.store.LoadInventory()
	if err != nil {
		return err
	}
	all := make([]entities.EnrichedItem, len(items))
	for i := range items {
		all[i] = items[i].Enrich(now)
	}
	summaries, err := a.store.LocationSummaries()
	if err != nil {
		return err
	}
	low, err := a.store.LowStock()
	if err != nil {
		return err
	}
	expiring, err := a.store.ExpiringWithin(defaultWindowDays)
	if err != nil {
		return err
	}
	expired, err := a.store.Expired()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = output.WriteXLSX(&buf,
		output.ItemsTable("Inventory", all),
		output.SummariesTable(summaries),
		output.ItemsTable("Low Stock", low),
		output.ItemsTable("Expiring", expiring),
		output.ItemsTable("Expired", expired),
	)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}

	if *user != "" {
		entry := entities.NewAccessLogEntry(now, *user, entities.AccessExport, "", *out)
		if err := a.store.AppendAccessLog(*entry); err != nil {
			a.logger.Warn("access log append failed", "error", err)
		}
	}
	fmt.Fprintf(a.out, "exported %d rows to %s\n", len(all), *out)
	return nil
}

func (a *App) serve(ctx context.Context) error {
	srv := httpserver.New(a.settings.HTTP.Addr, a.settings.Metrics.Enabled, a.registry)
	a.logger.Info("ops server listening", "addr", a.settings.HTTP.Addr, "metrics", a.settings.Metrics.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
