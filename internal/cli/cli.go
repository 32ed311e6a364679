// Package cli is the presentation surface of the state engine: every
// command reads through the store's snapshot getters and writes through
// its named actions, never touching state directly.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"velo/internal/config"
	"velo/internal/service"
	"velo/internal/state"
)

// App carries the constructed dependencies into the commands. Sync and
// Dashboard are nil when Strava credentials are not configured.
type App struct {
	Config    *config.Config
	Store     *state.Store
	Feeds     *service.Feeds
	Sync      *service.SyncService
	Dashboard *service.Dashboard
	Logger    *slog.Logger
}

// ErrNotConfigured is returned by commands that need Strava credentials
// when none are present.
var ErrNotConfigured = errors.New("strava credentials not configured; edit ~/.velo/config.json")

// New builds the root command.
func New(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "velo",
		Short:         "Local-first cycling companion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSyncCmd(app),
		newStatusCmd(app),
		newBikesCmd(app),
		newRideCmd(app),
		newMaintenanceCmd(app),
	)

	return root
}

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync profile, gear and training history from Strava",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Sync == nil {
				return ErrNotConfigured
			}
			ctx := cmd.Context()

			result, err := app.Sync.SyncAll(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Synced %d bikes, %d activities over %d training days\n",
				result.BikesReconciled, result.ActivitiesFetched, result.LoadDays)

			if app.Dashboard != nil {
				if err := app.Dashboard.Refresh(ctx, result.AthleteID); err != nil {
					// Stale feeds keep serving; surface the failure without
					// failing the sync.
					cmd.Printf("Some feeds failed to refresh: %v\n", err)
				}
			}
			return nil
		},
	}
}
