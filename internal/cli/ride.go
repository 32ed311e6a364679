package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"velo/internal/state"
)

func newRideCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ride",
		Short: "Ride timer and distance logging",
	}
	cmd.AddCommand(
		newRideLogCmd(app),
		newRideStartCmd(app),
		newRidePauseCmd(app),
		newRideStatusCmd(app),
		newRideResetCmd(app),
	)
	return cmd
}

func newRideLogCmd(app *App) *cobra.Command {
	var tss float64
	cmd := &cobra.Command{
		Use:   "log <km>",
		Short: "Log ride distance against the active bike",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			km, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return err
			}
			if err := app.Store.LogDistance(app.Store.ActiveBikeIndex(), km); err != nil {
				return err
			}
			if tss > 0 {
				today := time.Now().Format("2006-01-02")
				app.Store.MergeDailyLoad(today, tss)
			}
			cmd.Printf("Logged %.1f km\n", km)
			return nil
		},
	}
	cmd.Flags().Float64Var(&tss, "tss", 0, "training stress to add to today's load")
	return cmd
}

func newRideStartCmd(app *App) *cobra.Command {
	var fuel, hydration int
	var target float64
	var intensity string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start or resume the ride timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.Store.Session()
			if sess == nil {
				sess = &state.Session{
					FuelIntervalMin:      fuel,
					HydrationIntervalMin: hydration,
					TargetDistanceKm:     target,
					Intensity:            intensity,
				}
			}
			sess.Start(time.Now())
			app.Store.SetSession(*sess)
			cmd.Println("Timer running")
			return nil
		},
	}
	cmd.Flags().IntVar(&fuel, "fuel", 45, "fuel reminder interval in minutes")
	cmd.Flags().IntVar(&hydration, "hydration", 15, "hydration reminder interval in minutes")
	cmd.Flags().Float64Var(&target, "target", 0, "target distance in km")
	cmd.Flags().StringVar(&intensity, "intensity", "endurance", "planned intensity")
	return cmd
}

func newRidePauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the ride timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.Store.Session()
			if sess == nil {
				cmd.Println("No ride in progress")
				return nil
			}
			sess.Pause(time.Now())
			app.Store.SetSession(*sess)
			cmd.Printf("Paused at %s\n", formatElapsed(sess.Elapsed(time.Now())))
			return nil
		},
	}
}

func newRideStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the ride timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.Store.Session()
			if sess == nil {
				cmd.Println("No ride in progress")
				return nil
			}
			running := "paused"
			if sess.Active {
				running = "running"
			}
			cmd.Printf("%s - %s\n", formatElapsed(sess.Elapsed(time.Now())), running)
			return nil
		},
	}
}

func newRideResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "End the ride and clear the timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Store.ClearSession()
			cmd.Println("Ride cleared")
			return nil
		},
	}
}

func formatElapsed(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Round(time.Second).String()
}
