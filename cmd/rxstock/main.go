package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/rxstock/pkg/infrastructure/config"
	"github.com/vsinha/rxstock/pkg/infrastructure/logger"
	"github.com/vsinha/rxstock/pkg/interfaces/cli/commands"
)

func main() {
	// Global flags; everything after them is the command
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		dataDir    = flag.String("data-dir", "", "Directory holding the CSV collections")
		format     = flag.String("format", "text", "Output format: text, json, csv")
	)

	flag.Parse()

	if err := run(*configFile, *dataDir, *format, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, dataDir, format string, args []string) error {
	settings, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if dataDir != "" {
		settings.Store.DataDir = dataDir
	}

	log := logger.New(settings.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := commands.NewApp(commands.Config{
		Settings: settings,
		Format:   format,
		Out:      os.Stdout,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Execute(ctx, args)
}
