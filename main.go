package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"

	"velo/internal/briefing"
	"velo/internal/cli"
	"velo/internal/config"
	"velo/internal/service"
	"velo/internal/state"
	"velo/internal/strava"
	"velo/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("You need to add your Strava API credentials.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	persister, err := state.OpenSQLite()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	store := state.NewStore(persister, logger)
	defer store.Close()

	app := &cli.App{
		Config: cfg,
		Store:  store,
		Feeds:  service.NewFeeds(),
		Logger: logger,
	}

	// Remote services come up only with valid credentials; every command
	// that just reads local state works without them.
	if err := cfg.Validate(); err == nil {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Strava.AccessToken})
		client := strava.NewClient(tokenSource)

		var briefer *briefing.Generator
		if cfg.OpenAI.APIKey != "" {
			briefer = briefing.NewGenerator(cfg.OpenAI.APIKey)
		}

		app.Sync = service.NewSyncService(client, store, app.Feeds, logger)
		app.Dashboard = service.NewDashboard(client, weather.NewClient(), briefer,
			store, app.Feeds, logger, cfg.Home.Lat, cfg.Home.Lon)
	}

	return cli.New(app).Execute()
}
