package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"velo/internal/analysis"
	"velo/internal/briefing"
	"velo/internal/cache"
	"velo/internal/state"
	"velo/internal/strava"
	"velo/internal/weather"
)

// TTLLatestRide bounds freshness of the most-recent-activity detail feed.
const TTLLatestRide = 15 * time.Minute

// Dashboard refreshes every independent remote feed concurrently. Feeds
// that are still fresh are skipped; a failed feed keeps its stale entry and
// never blocks or clears the others. Cache writes are token-guarded, so a
// refresh that overlaps a newer one cannot clobber the newer result.
type Dashboard struct {
	client     *strava.Client
	weatherCli *weather.Client
	briefer    *briefing.Generator // nil when no API key configured
	store      *state.Store
	feeds      *Feeds
	logger     *slog.Logger
	homeLat    float64
	homeLon    float64
	now        func() time.Time
}

// NewDashboard creates a dashboard refresher. briefer may be nil to
// disable the AI briefing feed; lat/lon of (0,0) disables weather.
func NewDashboard(client *strava.Client, weatherCli *weather.Client, briefer *briefing.Generator,
	store *state.Store, feeds *Feeds, logger *slog.Logger, homeLat, homeLon float64) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		client:     client,
		weatherCli: weatherCli,
		briefer:    briefer,
		store:      store,
		feeds:      feeds,
		logger:     logger,
		homeLat:    homeLat,
		homeLon:    homeLon,
		now:        time.Now,
	}
}

// Refresh fetches all stale feeds in parallel. athleteID is required for
// the routes feed only. The returned error joins every feed failure; any
// failure also raises the transient sync-failed flag.
func (d *Dashboard) Refresh(ctx context.Context, athleteID int64) error {
	var g errgroup.Group
	var mu sync.Mutex
	var errs []error

	fail := func(feed string, err error) {
		d.logger.Warn("feed refresh failed, serving stale data", "feed", feed, "error", err)
		d.feeds.SyncFailed.Set()
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g.Go(func() error {
		if err := d.refreshWeeklyStats(ctx); err != nil {
			fail("weekly_stats", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := d.refreshLatestRide(ctx); err != nil {
			fail("latest_ride", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := d.refreshRoutes(ctx, athleteID); err != nil {
			fail("routes", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := d.refreshWeather(ctx); err != nil {
			fail("weather", err)
		}
		return nil
	})

	g.Wait()

	// The briefing reads the weather entry, so it runs after the batch.
	if err := d.refreshBriefing(ctx); err != nil {
		fail("briefing", err)
	}

	return errors.Join(errs...)
}

func (d *Dashboard) refreshWeeklyStats(ctx context.Context) error {
	if d.feeds.WeeklyStats.Fresh(cache.TTLWeeklyStats) {
		return nil
	}
	token := d.feeds.WeeklyStats.Begin()

	ctx, cancel := context.WithTimeout(ctx, strava.TimeoutBatch)
	defer cancel()

	weekStart := startOfWeek(d.now())
	activities, err := d.client.GetAllActivities(ctx, weekStart)
	if err != nil {
		return err
	}

	stats := WeeklyStats{WeekStart: weekStart}
	for _, a := range activities {
		stats.Rides++
		stats.DistanceKm += a.Distance / 1000
		stats.ElevationM += a.TotalElevationGain
		stats.MovingTime += time.Duration(a.MovingTime) * time.Second
	}

	d.feeds.WeeklyStats.CompleteWith(token, stats)
	return nil
}

func (d *Dashboard) refreshLatestRide(ctx context.Context) error {
	if d.feeds.LatestRide.Fresh(TTLLatestRide) {
		return nil
	}
	rideToken := d.feeds.LatestRide.Begin()
	effortToken := d.feeds.SegmentEfforts.Begin()

	ctx, cancel := context.WithTimeout(ctx, strava.TimeoutSingle)
	defer cancel()

	recent, err := d.client.GetActivities(ctx, time.Time{}, 1, 1)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		return nil
	}

	detail, err := d.client.GetActivityDetail(ctx, recent[0].ID)
	if err != nil {
		return err
	}

	d.feeds.LatestRide.CompleteWith(rideToken, *detail)
	d.feeds.SegmentEfforts.CompleteWith(effortToken, detail.SegmentEfforts)
	d.updatePowerRecord(detail)
	return nil
}

// updatePowerRecord bumps max-mean-power buckets when the latest ride set
// a new peak. Only the buckets Strava reports directly are touched.
func (d *Dashboard) updatePowerRecord(detail *strava.ActivityDetail) {
	record := d.store.User().PowerRecord
	changed := false
	if detail.MaxWatts > record.FiveSec {
		record.FiveSec = detail.MaxWatts
		changed = true
	}
	if detail.WeightedAverageWatts > record.TwentyMin && detail.MovingTime >= 20*60 {
		record.TwentyMin = detail.WeightedAverageWatts
		changed = true
	}
	if changed {
		d.store.UpdateUser(state.UserPatch{PowerRecord: &record})
	}
}

func (d *Dashboard) refreshRoutes(ctx context.Context, athleteID int64) error {
	if athleteID == 0 || d.feeds.Routes.Fresh(cache.TTLRoutes) {
		return nil
	}
	token := d.feeds.Routes.Begin()

	ctx, cancel := context.WithTimeout(ctx, strava.TimeoutSingle)
	defer cancel()

	routes, err := d.client.GetRoutes(ctx, athleteID, 10)
	if err != nil {
		return err
	}

	d.feeds.Routes.CompleteWith(token, routes)
	return nil
}

func (d *Dashboard) refreshWeather(ctx context.Context) error {
	if d.homeLat == 0 && d.homeLon == 0 {
		return nil
	}
	if d.feeds.Weather.Fresh(cache.TTLWeather) {
		return nil
	}
	token := d.feeds.Weather.Begin()

	ctx, cancel := context.WithTimeout(ctx, weather.Timeout)
	defer cancel()

	forecast, err := d.weatherCli.Get(ctx, d.homeLat, d.homeLon)
	if err != nil {
		return err
	}

	d.feeds.Weather.CompleteWith(token, *forecast)
	return nil
}

func (d *Dashboard) refreshBriefing(ctx context.Context) error {
	if d.briefer == nil || d.feeds.Briefing.Fresh(cache.TTLBriefing) {
		return nil
	}
	point, ok := analysis.Current(d.store.DailyLoads(), d.now())
	if !ok {
		return nil // nothing to brief on yet
	}
	token := d.feeds.Briefing.Begin()

	ctx, cancel := context.WithTimeout(ctx, briefing.Timeout)
	defer cancel()

	var forecast *weather.Forecast
	if entry := d.feeds.Weather.Get(); entry != nil {
		f := entry.Payload
		forecast = &f
	}

	b, err := d.briefer.Generate(ctx, point, forecast)
	if err != nil {
		return err
	}

	d.feeds.Briefing.CompleteWith(token, *b)
	return nil
}

// startOfWeek returns local Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return t.AddDate(0, 0, -(weekday - 1))
}
