package cli

import (
	"time"

	"github.com/spf13/cobra"

	"velo/internal/analysis"
	"velo/internal/cache"
	"velo/internal/state"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current form, active bike and feed freshness",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := app.Store.User()
			cmd.Printf("Athlete: %.1f kg, FTP %.0f W\n", user.WeightKg, user.FTPWatts)
			if user.LastSync != nil {
				cmd.Printf("Last sync: %s\n", user.LastSync.Format(time.RFC822))
			} else {
				cmd.Println("Last sync: never")
			}
			if app.Feeds.SyncFailed.Failed() {
				cmd.Println("! last sync failed; showing cached data")
			}

			if point, ok := analysis.Current(app.Store.DailyLoads(), time.Now()); ok {
				cmd.Printf("\nFitness %.1f  Fatigue %.1f  Form %+.1f - %s\n",
					point.Fitness, point.Fatigue, point.Form, analysis.FormDescription(point.Form))
			} else {
				cmd.Println("\nNo training history yet; run `velo sync`.")
			}

			if bike, ok := app.Store.ActiveBike(); ok {
				cmd.Printf("\nActive bike: %s (%.0f km)\n", bike.Name, bike.TotalDistanceKm)
				printMaintenance(cmd, bike)
			}

			cmd.Println("\nFeeds:")
			feedLine(cmd, "weather", app.Feeds.Weather, cache.TTLWeather)
			feedLine(cmd, "weekly stats", app.Feeds.WeeklyStats, cache.TTLWeeklyStats)
			feedLine(cmd, "routes", app.Feeds.Routes, cache.TTLRoutes)
			feedLine(cmd, "segment efforts", app.Feeds.SegmentEfforts, cache.TTLSegmentEfforts)
			feedLine(cmd, "briefing", app.Feeds.Briefing, cache.TTLBriefing)

			if entry := app.Feeds.Briefing.Get(); entry != nil {
				cmd.Printf("\n%s\n", entry.Payload.Text)
			}
			return nil
		},
	}
}

func printMaintenance(cmd *cobra.Command, bike state.BikeProfile) {
	for _, c := range state.Components {
		counter := bike.Maintenance.Counter(c)
		target := state.Target(c)
		marker := " "
		if *counter >= target {
			marker = "!"
		}
		cmd.Printf("  %s %-16s %6.0f / %.0f km\n", marker, c, *counter, target)
	}
}

func feedLine[T any](cmd *cobra.Command, name string, slot *cache.Slot[T], ttl time.Duration) {
	entry := slot.Get()
	if entry == nil {
		cmd.Printf("  %-16s never fetched\n", name)
		return
	}
	age := time.Since(entry.FetchedAt).Round(time.Second)
	freshness := "stale"
	if slot.Fresh(ttl) {
		freshness = "fresh"
	}
	cmd.Printf("  %-16s %-12s %s\n", name, age.String()+" old", freshness)
}
