package service

import (
	"time"

	"velo/internal/briefing"
	"velo/internal/cache"
	"velo/internal/strava"
	"velo/internal/weather"
)

// WeeklyStats is the current week's activity aggregate.
type WeeklyStats struct {
	Rides      int
	DistanceKm float64
	ElevationM float64
	MovingTime time.Duration
	WeekStart  time.Time
}

// Feeds holds one cache slot per independent remote feed plus the
// transient sync-failure flag. Each slot is replaced wholesale on a
// successful fetch and left untouched on failure, so stale data keeps
// serving while a refresh is attempted.
type Feeds struct {
	Weather        *cache.Slot[weather.Forecast]
	Briefing       *cache.Slot[briefing.Briefing]
	WeeklyStats    *cache.Slot[WeeklyStats]
	LatestRide     *cache.Slot[strava.ActivityDetail]
	SegmentEfforts *cache.Slot[[]strava.SegmentEffort]
	Routes         *cache.Slot[[]strava.Route]

	SyncFailed *cache.FailFlag
}

// NewFeeds returns an empty feed registry.
func NewFeeds() *Feeds {
	return &Feeds{
		Weather:        cache.NewSlot[weather.Forecast](),
		Briefing:       cache.NewSlot[briefing.Briefing](),
		WeeklyStats:    cache.NewSlot[WeeklyStats](),
		LatestRide:     cache.NewSlot[strava.ActivityDetail](),
		SegmentEfforts: cache.NewSlot[[]strava.SegmentEffort](),
		Routes:         cache.NewSlot[[]strava.Route](),
		SyncFailed:     cache.NewFailFlag(0),
	}
}
