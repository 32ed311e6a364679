package state

import "github.com/google/uuid"

// GearRecord is one bike as reported by the remote service. The remote is
// authoritative for identity, name and distance and knows nothing else.
type GearRecord struct {
	ID              string
	Name            string
	TotalDistanceKm float64
	Primary         bool
}

// ReconcileGear merges freshly fetched remote gear into the local fleet.
// Pure function: callers must validate the remote payload before invoking
// it, and must not invoke it at all when the fetch failed.
//
// The merge is asymmetric. For a remote record matching an existing bike by
// StravaGearID, the name and total distance come from the remote while
// everything the remote has no concept of (weight, wheelsets, maintenance
// counters, torque settings, service logs) is preserved verbatim. A remote
// record with no local match becomes a new bike whose single default
// wheelset starts at the remote's reported distance, so historical wear is
// not reset to zero.
//
// If any remote record is flagged primary, the first such record's position
// becomes the active index; otherwise the caller's index is kept. Either
// way the result is clamped to the new list.
func ReconcileGear(local []BikeProfile, activeIndex int, remote []GearRecord) ([]BikeProfile, int) {
	byGearID := make(map[string]BikeProfile, len(local))
	for _, b := range local {
		if b.StravaGearID != "" {
			byGearID[b.StravaGearID] = b
		}
	}

	merged := make([]BikeProfile, 0, len(remote))
	newIndex := activeIndex
	primarySet := false

	for i, r := range remote {
		if existing, ok := byGearID[r.ID]; ok {
			existing.Name = r.Name
			existing.TotalDistanceKm = r.TotalDistanceKm
			merged = append(merged, existing)
		} else {
			merged = append(merged, BikeProfile{
				ID:              uuid.NewString(),
				Name:            r.Name,
				WeightKg:        DefaultBikeWeightKg,
				TotalDistanceKm: r.TotalDistanceKm,
				StravaGearID:    r.ID,
				Wheelsets:       []Wheelset{DefaultWheelset(r.TotalDistanceKm)},
				TorqueSettings:  []TorqueSetting{},
				MaintenanceLogs: []MaintenanceLogEntry{},
			})
		}
		if r.Primary && !primarySet {
			newIndex = i
			primarySet = true
		}
	}

	return merged, clampIndex(newIndex, len(merged))
}
