package state

// Migrations run in sequence through every version gap at load time, so a
// v1 document moves through v2 and v3 on its way to v4. Upgraders are
// append-only: never alter an existing step, add a new one when the schema
// grows. Every step must be idempotent against already-upgraded data.

// upgrader transforms a document from version n-1 shape to version n shape.
type upgrader struct {
	to    int
	apply func(*Document)
}

var upgraders = []upgrader{
	{to: 2, apply: upgradePowerRecord},
	{to: 3, apply: upgradeWheelsets},
	{to: 4, apply: upgradeBikeCollections},
}

// Migrate brings a document of any historical version up to CurrentVersion.
// Already-current documents pass through untouched apart from nil-slice
// normalization.
func Migrate(d Document) Document {
	if d.Version < 1 {
		d.Version = 1
	}
	for _, u := range upgraders {
		if d.Version < u.to {
			u.apply(&d)
			d.Version = u.to
		}
	}
	normalize(&d)
	return d
}

// v1→v2: every user record gains a max-mean-power record. v1 documents
// predate power tracking, so the buckets seed at zero.
func upgradePowerRecord(d *Document) {
	// PowerRecord is a value type; a v1 blob decodes it as all zeros, which
	// is exactly the seed we want. Nothing to do beyond the version bump.
}

// v2→v3: bikes gain wheelsets. Synthesize one per bike from the legacy flat
// tire fields, with mileage carried over from the bike's total distance so
// historical wear is not reset.
func upgradeWheelsets(d *Document) {
	for i := range d.Bikes {
		b := &d.Bikes[i]
		if len(b.Wheelsets) > 0 {
			continue
		}
		ws := DefaultWheelset(b.TotalDistanceKm)
		if b.LegacyTireWidthMm > 0 {
			ws.TireWidthMm = b.LegacyTireWidthMm
			ws.Tubeless = b.LegacyTubeless
		}
		b.Wheelsets = []Wheelset{ws}
		b.ActiveWheelsetIndex = 0
	}
}

// v3→v4: bikes gain torque settings and maintenance logs, default empty.
func upgradeBikeCollections(d *Document) {
	for i := range d.Bikes {
		b := &d.Bikes[i]
		if b.TorqueSettings == nil {
			b.TorqueSettings = []TorqueSetting{}
		}
		if b.MaintenanceLogs == nil {
			b.MaintenanceLogs = []MaintenanceLogEntry{}
		}
	}
}

// normalize repairs structural invariants regardless of version: non-nil
// slices, in-range active indices, non-empty wheelset lists.
func normalize(d *Document) {
	if d.Bikes == nil {
		d.Bikes = []BikeProfile{}
	}
	if d.DailyLoads == nil {
		d.DailyLoads = []DailyLoad{}
	}
	for i := range d.Bikes {
		b := &d.Bikes[i]
		if len(b.Wheelsets) == 0 {
			b.Wheelsets = []Wheelset{DefaultWheelset(b.TotalDistanceKm)}
		}
		b.ActiveWheelsetIndex = clampIndex(b.ActiveWheelsetIndex, len(b.Wheelsets))
		if b.TorqueSettings == nil {
			b.TorqueSettings = []TorqueSetting{}
		}
		if b.MaintenanceLogs == nil {
			b.MaintenanceLogs = []MaintenanceLogEntry{}
		}
	}
	if len(d.Bikes) > 0 {
		d.ActiveBikeIndex = clampIndex(d.ActiveBikeIndex, len(d.Bikes))
	} else {
		d.ActiveBikeIndex = 0
	}
}
