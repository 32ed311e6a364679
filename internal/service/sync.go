package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"velo/internal/analysis"
	"velo/internal/state"
	"velo/internal/strava"
)

// LoadHistoryDays is the rolling window of activity history pulled into
// the daily-load timeline.
const LoadHistoryDays = 90

// SyncService reconciles the local document against Strava. Every fetch
// failure leaves the prior local state completely untouched and raises the
// transient sync-failed flag; a malformed payload is treated the same as a
// network failure.
type SyncService struct {
	client *strava.Client
	store  *state.Store
	feeds  *Feeds
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncService creates a sync service.
func NewSyncService(client *strava.Client, store *state.Store, feeds *Feeds, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		client: client,
		store:  store,
		feeds:  feeds,
		logger: logger,
		now:    time.Now,
	}
}

// SyncResult summarizes one full sync.
type SyncResult struct {
	AthleteID         int64
	BikesReconciled   int
	ActivitiesFetched int
	LoadDays          int
}

// SyncAll runs the profile/gear sync followed by the load-history sync.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}

	athleteID, err := s.SyncProfile(ctx)
	if err != nil {
		return result, fmt.Errorf("syncing profile: %w", err)
	}
	result.AthleteID = athleteID
	result.BikesReconciled = len(s.store.Bikes())

	fetched, days, err := s.SyncLoads(ctx)
	if err != nil {
		return result, fmt.Errorf("syncing load history: %w", err)
	}
	result.ActivitiesFetched = fetched
	result.LoadDays = days

	s.updateDerivedFitness()
	return result, nil
}

// SyncProfile fetches the athlete profile and gear list, merges the gear
// into the local fleet through the reconciler, and applies the profile
// fields to the user record. Returns the athlete ID for feeds that need it.
func (s *SyncService) SyncProfile(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, strava.TimeoutBatch)
	defer cancel()

	athlete, err := s.client.GetAthlete(ctx)
	if err != nil {
		s.feeds.SyncFailed.Set()
		return 0, err
	}

	// Profile fields: remote is authoritative where it has data.
	patch := state.UserPatch{}
	if athlete.FTP > 0 {
		patch.FTPWatts = &athlete.FTP
	}
	if athlete.WeightKg > 0 {
		patch.WeightKg = &athlete.WeightKg
	}
	sex := mapSex(athlete.Sex)
	patch.Sex = &sex
	now := s.now()
	patch.LastSync = &now
	s.store.UpdateUser(patch)

	// Gear list flows through the asymmetric merge; local-only data on
	// matched bikes survives untouched.
	remote := make([]state.GearRecord, len(athlete.Bikes))
	for i, g := range athlete.Bikes {
		remote[i] = state.GearRecord{
			ID:              g.ID,
			Name:            g.Name,
			TotalDistanceKm: g.Distance / 1000,
			Primary:         g.Primary,
		}
	}
	merged, active := state.ReconcileGear(s.store.Bikes(), s.store.ActiveBikeIndex(), remote)
	s.store.ReplaceBikes(merged, active)

	return athlete.ID, nil
}

// SyncLoads rebuilds the daily-load timeline from the rolling activity
// window and replaces it wholesale.
func (s *SyncService) SyncLoads(ctx context.Context) (activities, days int, err error) {
	ctx, cancel := context.WithTimeout(ctx, strava.TimeoutBatch)
	defer cancel()

	after := s.now().AddDate(0, 0, -LoadHistoryDays)
	fetched, err := s.client.GetAllActivities(ctx, after)
	if err != nil {
		s.feeds.SyncFailed.Set()
		return 0, 0, err
	}

	ftp := s.store.User().FTPWatts
	byDay := analysis.DailyLoads(fetched, ftp)

	dates := make([]string, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	loads := make([]state.DailyLoad, len(dates))
	for i, d := range dates {
		loads[i] = state.DailyLoad{Date: d, TSS: byDay[d]}
	}
	s.store.SetDailyLoads(loads)

	return len(fetched), len(loads), nil
}

// updateDerivedFitness stamps the current PMC point onto the user profile
// so the last-known form survives offline restarts.
func (s *SyncService) updateDerivedFitness() {
	point, ok := analysis.Current(s.store.DailyLoads(), s.now())
	if !ok {
		return
	}
	s.store.UpdateUser(state.UserPatch{
		Fitness: &point.Fitness,
		Fatigue: &point.Fatigue,
		Form:    &point.Form,
	})
}

func mapSex(s string) state.Sex {
	switch s {
	case "M":
		return state.SexMale
	case "F":
		return state.SexFemale
	}
	return state.SexOther
}
