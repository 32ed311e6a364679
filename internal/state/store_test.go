package state

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister()
	s := NewStore(p, slog.Default())
	t.Cleanup(func() { s.Close() })
	return s, p
}

func seedBike(t *testing.T, s *Store) {
	t.Helper()
	s.ReplaceBikes([]BikeProfile{{
		ID:              "b1",
		Name:            "Allez",
		WeightKg:        8.5,
		TotalDistanceKm: 1000,
		StravaGearID:    "g1",
		Wheelsets:       []Wheelset{{ID: "w1", Name: "Stock", DistanceKm: 1000}},
		TorqueSettings:  []TorqueSetting{},
		MaintenanceLogs: []MaintenanceLogEntry{},
	}}, 0)
}

func TestStoreStartsWithDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	doc := s.State()
	if doc.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", doc.Version, CurrentVersion)
	}
	if len(doc.Bikes) != 0 {
		t.Errorf("fresh store has %d bikes, want 0", len(doc.Bikes))
	}
	if doc.User.WeightKg == 0 {
		t.Error("fresh user profile should carry defaults")
	}
}

func TestStoreRecoversFromCorruptDocument(t *testing.T) {
	p := NewMemoryPersister()
	p.Save(KeyDocument, []byte("{not json"))

	s := NewStore(p, slog.Default())
	defer s.Close()

	if got := s.State().Version; got != CurrentVersion {
		t.Errorf("Version = %d, want fresh default %d", got, CurrentVersion)
	}
}

func TestStoreMigratesOnLoad(t *testing.T) {
	p := NewMemoryPersister()
	p.Save(KeyDocument, []byte(v1Doc))

	s := NewStore(p, slog.Default())
	defer s.Close()

	bikes := s.Bikes()
	if len(bikes) != 1 || len(bikes[0].Wheelsets) != 1 {
		t.Fatalf("v1 document not migrated: %+v", bikes)
	}
}

func TestStorePersistsOnMutation(t *testing.T) {
	p := NewMemoryPersister()
	s := NewStore(p, slog.Default())

	ftp := 260.0
	s.UpdateUser(UserPatch{FTPWatts: &ftp})
	s.Close() // drains the flush queue

	data, err := p.Load(KeyDocument)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("persisted blob corrupt: %v", err)
	}
	if doc.User.FTPWatts != 260 {
		t.Errorf("persisted FTP = %v, want 260", doc.User.FTPWatts)
	}
}

func TestUpdateUserShallowMerge(t *testing.T) {
	s, _ := newTestStore(t)

	ftp := 260.0
	s.UpdateUser(UserPatch{FTPWatts: &ftp})

	u := s.User()
	if u.FTPWatts != 260 {
		t.Errorf("FTPWatts = %v, want 260", u.FTPWatts)
	}
	// Untouched fields keep their defaults.
	if u.WeightKg != 75 {
		t.Errorf("WeightKg = %v, want untouched 75", u.WeightKg)
	}
}

func TestRemoveLastWheelsetRejected(t *testing.T) {
	s, _ := newTestStore(t)
	seedBike(t, s)

	err := s.RemoveWheelset(0, 0)
	if !errors.Is(err, ErrLastWheelset) {
		t.Fatalf("err = %v, want ErrLastWheelset", err)
	}
	// No-op, not partial: the wheelset is still there.
	if got := len(s.Bikes()[0].Wheelsets); got != 1 {
		t.Errorf("len(Wheelsets) = %d, want 1", got)
	}
}

func TestWheelsetNeverEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	seedBike(t, s)

	// Arbitrary add/remove sequence; after every action the list is
	// non-empty.
	actions := []func() error{
		func() error { return s.AddWheelset(0, "Climbing", 25, true) },
		func() error { return s.RemoveWheelset(0, 0) },
		func() error { return s.RemoveWheelset(0, 0) }, // singleton again: rejected
		func() error { return s.AddWheelset(0, "Gravel", 40, true) },
		func() error { return s.RemoveWheelset(0, 1) },
		func() error { return s.RemoveWheelset(0, 0) }, // rejected
	}
	for i, act := range actions {
		act()
		if got := len(s.Bikes()[0].Wheelsets); got == 0 {
			t.Fatalf("after action %d the wheelset list is empty", i)
		}
	}
}

func TestRemoveWheelsetClampsActiveIndex(t *testing.T) {
	s, _ := newTestStore(t)
	seedBike(t, s)

	s.AddWheelset(0, "Race", 25, false) // becomes active at index 1
	if err := s.RemoveWheelset(0, 1); err != nil {
		t.Fatalf("RemoveWheelset: %v", err)
	}

	b := s.Bikes()[0]
	if b.ActiveWheelsetIndex != 0 {
		t.Errorf("ActiveWheelsetIndex = %d, want clamped 0", b.ActiveWheelsetIndex)
	}
}

func TestSetActiveBikeClamped(t *testing.T) {
	s, _ := newTestStore(t)
	seedBike(t, s)

	s.SetActiveBike(10)
	if got := s.ActiveBikeIndex(); got != 0 {
		t.Errorf("ActiveBikeIndex = %d, want clamped 0", got)
	}
	s.SetActiveBike(-3)
	if got := s.ActiveBikeIndex(); got != 0 {
		t.Errorf("ActiveBikeIndex = %d, want clamped 0", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	seedBike(t, s)

	bikes := s.Bikes()
	bikes[0].Name = "mutated"
	bikes[0].Wheelsets[0].DistanceKm = -1

	fresh := s.Bikes()
	if fresh[0].Name != "Allez" || fresh[0].Wheelsets[0].DistanceKm != 1000 {
		t.Error("mutating a read snapshot leaked into the store")
	}
}

func TestMergeDailyLoadSumsSameDate(t *testing.T) {
	s, _ := newTestStore(t)

	s.MergeDailyLoad("2024-02-01", 30)
	s.MergeDailyLoad("2024-02-01", 20)
	s.MergeDailyLoad("2024-02-02", 10)

	loads := s.DailyLoads()
	if len(loads) != 2 {
		t.Fatalf("len(loads) = %d, want 2", len(loads))
	}
	if loads[0].Date != "2024-02-01" || loads[0].TSS != 50 {
		t.Errorf("loads[0] = %+v, want 2024-02-01/50", loads[0])
	}
}

func TestSessionRoundTrip(t *testing.T) {
	p := NewMemoryPersister()
	s := NewStore(p, slog.Default())

	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	sess := Session{TargetDistanceKm: 80, Intensity: "tempo"}
	sess.Start(start)
	s.SetSession(sess)
	s.Close()

	s2 := NewStore(p, slog.Default())
	defer s2.Close()

	got := s2.Session()
	if got == nil {
		t.Fatal("session lost across restart")
	}
	if !got.Active || got.StartedAt == nil || !got.StartedAt.Equal(start) {
		t.Errorf("session = %+v, want active with original start", got)
	}
	if got.TargetDistanceKm != 80 || got.Intensity != "tempo" {
		t.Errorf("session settings = %+v, want preserved", got)
	}
}

func TestClearSessionPersists(t *testing.T) {
	p := NewMemoryPersister()
	s := NewStore(p, slog.Default())

	sess := Session{}
	sess.Start(time.Now())
	s.SetSession(sess)
	s.ClearSession()
	s.Close()

	s2 := NewStore(p, slog.Default())
	defer s2.Close()

	if s2.Session() != nil {
		t.Error("cleared session resurrected across restart")
	}
}

func TestMutationsOnBadIndex(t *testing.T) {
	s, _ := newTestStore(t)
	seedBike(t, s)

	tests := []struct {
		name string
		call func() error
	}{
		{"UpdateBike", func() error { return s.UpdateBike(5, BikePatch{}) }},
		{"AddWheelset", func() error { return s.AddWheelset(-1, "x", 28, false) }},
		{"RemoveWheelset", func() error { return s.RemoveWheelset(2, 0) }},
		{"LogDistance", func() error { return s.LogDistance(9, 10) }},
		{"ResetMaintenance", func() error { return s.ResetMaintenance(9, ComponentTires) }},
		{"AddTorqueSetting", func() error { return s.AddTorqueSetting(3, "stem", 5) }},
	}
	for _, tt := range tests {
		if err := tt.call(); !errors.Is(err, ErrBikeIndex) {
			t.Errorf("%s: err = %v, want ErrBikeIndex", tt.name, err)
		}
	}
}
