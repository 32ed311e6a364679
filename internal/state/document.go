package state

import (
	"time"

	"github.com/google/uuid"
)

// CurrentVersion is the schema version written by this build. Bump it when
// the document shape changes and append a matching upgrader in migrate.go.
const CurrentVersion = 4

// Document is the full persisted application state. It is the only
// migration-sensitive blob; caches and the live ride session are stored
// separately without a version contract.
type Document struct {
	Version         int           `json:"version"`
	User            UserProfile   `json:"user"`
	Bikes           []BikeProfile `json:"bikes"`
	ActiveBikeIndex int           `json:"activeBikeIndex"`
	DailyLoads      []DailyLoad   `json:"dailyLoads"`
}

// Sex is the athlete's biological sex category, used for metric heuristics.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// UserProfile is the singleton athlete record.
type UserProfile struct {
	WeightKg    float64     `json:"weightKg"`
	FTPWatts    float64     `json:"ftpWatts"`
	Age         int         `json:"age"`
	Sex         Sex         `json:"sex"`
	HeightCm    float64     `json:"heightCm"`
	RestingHR   float64     `json:"restingHr"`
	LastSync    *time.Time  `json:"lastSync,omitempty"`
	Fitness     *float64    `json:"fitness,omitempty"`
	Fatigue     *float64    `json:"fatigue,omitempty"`
	Form        *float64    `json:"form,omitempty"`
	PowerRecord PowerRecord `json:"powerRecord"`
}

// PowerRecord holds max mean power per fixed duration bucket, in watts.
type PowerRecord struct {
	FiveSec   float64 `json:"fiveSec"`
	OneMin    float64 `json:"oneMin"`
	FiveMin   float64 `json:"fiveMin"`
	TwentyMin float64 `json:"twentyMin"`
}

// BikeProfile is one bike in the ordered fleet. Wheelsets is never empty
// after migration; ActiveWheelsetIndex is always a valid index.
type BikeProfile struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	WeightKg            float64               `json:"weightKg"`
	TotalDistanceKm     float64               `json:"totalDistanceKm"`
	StravaGearID        string                `json:"stravaGearId,omitempty"`
	Maintenance         MaintenanceState      `json:"maintenance"`
	Wheelsets           []Wheelset            `json:"wheelsets"`
	ActiveWheelsetIndex int                   `json:"activeWheelsetIndex"`
	TorqueSettings      []TorqueSetting       `json:"torqueSettings"`
	MaintenanceLogs     []MaintenanceLogEntry `json:"maintenanceLogs"`

	// Pre-v3 documents stored tire geometry flat on the bike. Kept only so
	// the v2→v3 upgrader can synthesize the first wheelset from them.
	LegacyTireWidthMm float64 `json:"tireWidthMm,omitempty"`
	LegacyTubeless    bool    `json:"tubeless,omitempty"`
}

// MaintenanceComponent names one of the five wear counters.
type MaintenanceComponent string

const (
	ComponentChainLube       MaintenanceComponent = "chain_lube"
	ComponentChainWear       MaintenanceComponent = "chain_wear"
	ComponentTires           MaintenanceComponent = "tires"
	ComponentBrakePads       MaintenanceComponent = "brake_pads"
	ComponentServiceInterval MaintenanceComponent = "service_interval"
)

// Components lists all maintenance components in display order.
var Components = []MaintenanceComponent{
	ComponentChainLube,
	ComponentChainWear,
	ComponentTires,
	ComponentBrakePads,
	ComponentServiceInterval,
}

// Service thresholds per component, in km. Counters are compared against
// these but never capped by them.
const (
	ChainLubeTargetKm       = 250.0
	ChainWearTargetKm       = 3000.0
	TiresTargetKm           = 5000.0
	BrakePadsTargetKm       = 4000.0
	ServiceIntervalTargetKm = 1500.0
)

// MaintenanceState holds the five distance odometers. Each only ever grows
// with logged distance and is only ever reset individually to zero.
type MaintenanceState struct {
	ChainLubeKm       float64 `json:"chainLubeKm"`
	ChainWearKm       float64 `json:"chainWearKm"`
	TiresKm           float64 `json:"tiresKm"`
	BrakePadsKm       float64 `json:"brakePadsKm"`
	ServiceIntervalKm float64 `json:"serviceIntervalKm"`
}

// Counter returns a pointer to the named odometer, or nil for an unknown
// component.
func (m *MaintenanceState) Counter(c MaintenanceComponent) *float64 {
	switch c {
	case ComponentChainLube:
		return &m.ChainLubeKm
	case ComponentChainWear:
		return &m.ChainWearKm
	case ComponentTires:
		return &m.TiresKm
	case ComponentBrakePads:
		return &m.BrakePadsKm
	case ComponentServiceInterval:
		return &m.ServiceIntervalKm
	}
	return nil
}

// Target returns the service threshold for a component in km.
func Target(c MaintenanceComponent) float64 {
	switch c {
	case ComponentChainLube:
		return ChainLubeTargetKm
	case ComponentChainWear:
		return ChainWearTargetKm
	case ComponentTires:
		return TiresTargetKm
	case ComponentBrakePads:
		return BrakePadsTargetKm
	case ComponentServiceInterval:
		return ServiceIntervalTargetKm
	}
	return 0
}

// Wheelset is one wheel pair owned by a bike.
type Wheelset struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	TireWidthMm     float64 `json:"tireWidthMm"`
	Tubeless        bool    `json:"tubeless"`
	DistanceKm      float64 `json:"distanceKm"`
	SinceLastLubeKm float64 `json:"sinceLastLubeKm"`
}

// TorqueSetting is a user-entered torque spec for one fastener.
type TorqueSetting struct {
	ID        string  `json:"id"`
	Component string  `json:"component"`
	Nm        float64 `json:"nm"`
}

// MaintenanceLogEntry records one service action performed on a bike.
type MaintenanceLogEntry struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Component string    `json:"component"`
	Note      string    `json:"note,omitempty"`
}

// DailyLoad is the aggregate training stress for one calendar day.
// Date is an ISO day string ("2006-01-02"); multiple loads sharing a date
// are additive when merged into the timeline.
type DailyLoad struct {
	Date string  `json:"date"`
	TSS  float64 `json:"tss"`
}

// DefaultBikeWeightKg is used for bikes synthesized during reconciliation.
const DefaultBikeWeightKg = 9.0

// DefaultDocument returns the fresh first-run state.
func DefaultDocument() Document {
	return Document{
		Version: CurrentVersion,
		User: UserProfile{
			WeightKg:  75,
			FTPWatts:  200,
			Age:       35,
			Sex:       SexOther,
			HeightCm:  175,
			RestingHR: 50,
		},
		Bikes:           []BikeProfile{},
		ActiveBikeIndex: 0,
		DailyLoads:      []DailyLoad{},
	}
}

// DefaultWheelset returns a new wheelset with stock road geometry and the
// given starting mileage.
func DefaultWheelset(initialKm float64) Wheelset {
	return Wheelset{
		ID:          uuid.NewString(),
		Name:        "Stock wheels",
		TireWidthMm: 28,
		Tubeless:    false,
		DistanceKm:  initialKm,
	}
}

// clone helpers: reads hand out deep copies so no consumer can mutate the
// store's snapshot through a shared slice.

func cloneBike(b BikeProfile) BikeProfile {
	out := b
	out.Wheelsets = append([]Wheelset(nil), b.Wheelsets...)
	out.TorqueSettings = append([]TorqueSetting(nil), b.TorqueSettings...)
	out.MaintenanceLogs = append([]MaintenanceLogEntry(nil), b.MaintenanceLogs...)
	return out
}

func cloneBikes(bikes []BikeProfile) []BikeProfile {
	out := make([]BikeProfile, len(bikes))
	for i, b := range bikes {
		out[i] = cloneBike(b)
	}
	return out
}

func cloneDocument(d Document) Document {
	out := d
	out.Bikes = cloneBikes(d.Bikes)
	out.DailyLoads = append([]DailyLoad(nil), d.DailyLoads...)
	if d.User.LastSync != nil {
		t := *d.User.LastSync
		out.User.LastSync = &t
	}
	out.User.Fitness = cloneFloat(d.User.Fitness)
	out.User.Fatigue = cloneFloat(d.User.Fatigue)
	out.User.Form = cloneFloat(d.User.Form)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func clampIndex(i, length int) int {
	if length == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= length {
		return length - 1
	}
	return i
}
