package state

import (
	"encoding/json"
	"reflect"
	"testing"
)

// v1 fixture: no power record, flat tire fields on the bike, no torque or
// log collections.
const v1Doc = `{
	"version": 1,
	"user": {"weightKg": 70, "ftpWatts": 250, "age": 40, "sex": "male", "heightCm": 180, "restingHr": 48},
	"bikes": [
		{"id": "b1", "name": "Allez", "weightKg": 8.5, "totalDistanceKm": 4200, "tireWidthMm": 25, "tubeless": true}
	],
	"activeBikeIndex": 0,
	"dailyLoads": [{"date": "2024-01-01", "tss": 60}]
}`

// v3 fixture: wheelsets present, collections missing.
const v3Doc = `{
	"version": 3,
	"user": {"weightKg": 70, "ftpWatts": 250, "sex": "female", "powerRecord": {"fiveSec": 900}},
	"bikes": [
		{"id": "b1", "name": "Allez", "weightKg": 8.5, "totalDistanceKm": 4200,
		 "wheelsets": [{"id": "w1", "name": "Race", "tireWidthMm": 25, "tubeless": true, "distanceKm": 1200}],
		 "activeWheelsetIndex": 0}
	],
	"activeBikeIndex": 0,
	"dailyLoads": []
}`

func mustDecode(t *testing.T, raw string) Document {
	t.Helper()
	var d Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return d
}

func TestMigrateV1(t *testing.T) {
	d := Migrate(mustDecode(t, v1Doc))

	if d.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", d.Version, CurrentVersion)
	}

	// v1→v2: power record seeded at zero.
	if d.User.PowerRecord != (PowerRecord{}) {
		t.Errorf("PowerRecord = %+v, want zero seed", d.User.PowerRecord)
	}

	// v2→v3: one wheelset synthesized from legacy flat fields, mileage
	// carried from the bike's total distance.
	b := d.Bikes[0]
	if len(b.Wheelsets) != 1 {
		t.Fatalf("len(Wheelsets) = %d, want 1", len(b.Wheelsets))
	}
	ws := b.Wheelsets[0]
	if ws.TireWidthMm != 25 || !ws.Tubeless {
		t.Errorf("synthesized wheelset = %+v, want legacy 25mm tubeless", ws)
	}
	if ws.DistanceKm != 4200 {
		t.Errorf("wheelset DistanceKm = %v, want bike total 4200", ws.DistanceKm)
	}

	// v3→v4: collections default to empty, not nil.
	if b.TorqueSettings == nil || b.MaintenanceLogs == nil {
		t.Error("TorqueSettings/MaintenanceLogs should be empty, not nil")
	}
}

func TestMigrateV1WithoutLegacyTireFields(t *testing.T) {
	d := mustDecode(t, v1Doc)
	d.Bikes[0].LegacyTireWidthMm = 0
	d.Bikes[0].LegacyTubeless = false

	out := Migrate(d)
	ws := out.Bikes[0].Wheelsets[0]
	if ws.TireWidthMm != 28 || ws.Tubeless {
		t.Errorf("default wheelset = %+v, want 28mm clincher default", ws)
	}
	if ws.DistanceKm != 4200 {
		t.Errorf("wheelset DistanceKm = %v, want 4200", ws.DistanceKm)
	}
}

func TestMigrateV3(t *testing.T) {
	d := Migrate(mustDecode(t, v3Doc))

	if d.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", d.Version, CurrentVersion)
	}
	// Existing wheelsets are never replaced by migration.
	if got := d.Bikes[0].Wheelsets[0].ID; got != "w1" {
		t.Errorf("wheelset ID = %q, want original %q", got, "w1")
	}
	if d.User.PowerRecord.FiveSec != 900 {
		t.Errorf("PowerRecord.FiveSec = %v, want preserved 900", d.User.PowerRecord.FiveSec)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	for _, fixture := range []string{v1Doc, v3Doc} {
		once := Migrate(mustDecode(t, fixture))
		twice := Migrate(once)

		if !reflect.DeepEqual(once, twice) {
			t.Errorf("migration not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
		}

		// Byte-identical after serialization too.
		a, _ := json.Marshal(once)
		b, _ := json.Marshal(twice)
		if string(a) != string(b) {
			t.Errorf("serialized output differs between runs")
		}
	}
}

func TestMigrateClampsIndices(t *testing.T) {
	d := mustDecode(t, v3Doc)
	d.ActiveBikeIndex = 7
	d.Bikes[0].ActiveWheelsetIndex = -2

	out := Migrate(d)
	if out.ActiveBikeIndex != 0 {
		t.Errorf("ActiveBikeIndex = %d, want clamped 0", out.ActiveBikeIndex)
	}
	if out.Bikes[0].ActiveWheelsetIndex != 0 {
		t.Errorf("ActiveWheelsetIndex = %d, want clamped 0", out.Bikes[0].ActiveWheelsetIndex)
	}
}

func TestMigrateEmptyDocument(t *testing.T) {
	out := Migrate(Document{})
	if out.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", out.Version, CurrentVersion)
	}
	if out.Bikes == nil || out.DailyLoads == nil {
		t.Error("slices should be normalized to empty, not nil")
	}
}
