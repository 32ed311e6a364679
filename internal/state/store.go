package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBikeIndex is returned when a mutation names a bike index out of range.
var ErrBikeIndex = errors.New("bike index out of range")

// ErrLastWheelset is returned when removing the sole wheelset of a bike.
var ErrLastWheelset = errors.New("cannot remove the last wheelset")

// ErrInvalidDistance is returned for non-positive logged distance.
var ErrInvalidDistance = errors.New("distance must be positive")

// ErrUnknownComponent is returned for an unrecognized maintenance component.
var ErrUnknownComponent = errors.New("unknown maintenance component")

// Store owns the application document and the live ride session. All
// mutations are synchronous single-writer snapshot swaps; reads hand out
// deep copies. Persistence is asynchronous relative to the in-memory swap:
// a mutation marks its blob dirty and a background flusher writes the
// latest snapshot, so a crash loses at most the most recent mutation.
type Store struct {
	mu      sync.Mutex
	doc     Document
	session *Session

	persister Persister
	logger    *slog.Logger

	dirty   map[string]bool
	flushCh chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup
}

// NewStore loads the persisted document through the migration chain and
// starts the background flusher. A corrupt or missing document falls back
// to fresh defaults; corruption is logged as a warning, never fatal.
func NewStore(p Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		persister: p,
		logger:    logger,
		dirty:     make(map[string]bool),
		flushCh:   make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
	}

	s.doc = s.loadDocument()
	s.session = s.loadSession()

	s.wg.Add(1)
	go s.flushLoop()

	return s
}

func (s *Store) loadDocument() Document {
	data, err := s.persister.Load(KeyDocument)
	if errors.Is(err, ErrNoDocument) {
		return DefaultDocument()
	}
	if err != nil {
		s.logger.Warn("loading state document, starting fresh", "error", err)
		return DefaultDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("state document corrupt, starting fresh", "error", err)
		return DefaultDocument()
	}
	return Migrate(doc)
}

func (s *Store) loadSession() *Session {
	data, err := s.persister.Load(KeySession)
	if err != nil {
		return nil
	}
	var sess *Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// The session blob is recoverable data with no version contract;
		// a corrupt one is simply discarded.
		s.logger.Warn("ride session blob corrupt, discarding", "error", err)
		return nil
	}
	return sess
}

// Close flushes pending writes and closes the persister.
func (s *Store) Close() error {
	close(s.doneCh)
	s.wg.Wait()
	return s.persister.Close()
}

// flushLoop writes dirty blobs in the background. It always serializes the
// latest snapshot, so coalesced signals never lose the newest state.
func (s *Store) flushLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.flushCh:
			s.flushDirty()
		case <-s.doneCh:
			s.flushDirty()
			return
		}
	}
}

func (s *Store) flushDirty() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.dirty))
	for k := range s.dirty {
		keys = append(keys, k)
	}
	s.dirty = make(map[string]bool)
	var blobs [][]byte
	for _, k := range keys {
		blob, err := s.serialize(k)
		if err != nil {
			s.logger.Warn("serializing state blob", "key", k, "error", err)
			blob = nil
		}
		blobs = append(blobs, blob)
	}
	s.mu.Unlock()

	for i, k := range keys {
		if blobs[i] == nil {
			continue
		}
		if err := s.persister.Save(k, blobs[i]); err != nil {
			s.logger.Warn("persisting state blob", "key", k, "error", err)
		}
	}
}

// serialize must be called with the lock held.
func (s *Store) serialize(key string) ([]byte, error) {
	switch key {
	case KeyDocument:
		return json.Marshal(s.doc)
	case KeySession:
		// nil marshals to "null", which round-trips back to no session.
		return json.Marshal(s.session)
	}
	return nil, fmt.Errorf("unknown blob key %q", key)
}

// markDirty must be called with the lock held.
func (s *Store) markDirty(key string) {
	s.dirty[key] = true
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// mutate runs fn against the current document under the single-writer lock
// and schedules a flush when fn reports a change.
func (s *Store) mutate(fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.doc); err != nil {
		return err
	}
	s.markDirty(KeyDocument)
	return nil
}

// --- Read API ---

// State returns a deep copy of the full document.
func (s *Store) State() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocument(s.doc)
}

// User returns the athlete profile.
func (s *Store) User() UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.doc.User
	u.LastSync = cloneTime(s.doc.User.LastSync)
	u.Fitness = cloneFloat(s.doc.User.Fitness)
	u.Fatigue = cloneFloat(s.doc.User.Fatigue)
	u.Form = cloneFloat(s.doc.User.Form)
	return u
}

// Bikes returns a deep copy of the bike list.
func (s *Store) Bikes() []BikeProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBikes(s.doc.Bikes)
}

// ActiveBikeIndex returns the current active bike index.
func (s *Store) ActiveBikeIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ActiveBikeIndex
}

// ActiveBike returns the active bike, or false when the fleet is empty.
func (s *Store) ActiveBike() (BikeProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.doc.Bikes) == 0 {
		return BikeProfile{}, false
	}
	return cloneBike(s.doc.Bikes[s.doc.ActiveBikeIndex]), true
}

// DailyLoads returns a copy of the training-load history.
func (s *Store) DailyLoads() []DailyLoad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DailyLoad(nil), s.doc.DailyLoads...)
}

// Session returns a copy of the live ride session, or nil when none exists.
func (s *Store) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	sess.StartedAt = cloneTime(s.session.StartedAt)
	return &sess
}

// --- Write API: user ---

// UserPatch is a shallow partial update of the athlete profile; nil fields
// are left untouched.
type UserPatch struct {
	WeightKg    *float64
	FTPWatts    *float64
	Age         *int
	Sex         *Sex
	HeightCm    *float64
	RestingHR   *float64
	LastSync    *time.Time
	Fitness     *float64
	Fatigue     *float64
	Form        *float64
	PowerRecord *PowerRecord
}

// UpdateUser applies a shallow merge of the patch onto the user profile.
func (s *Store) UpdateUser(p UserPatch) {
	s.mutate(func(d *Document) error {
		u := &d.User
		if p.WeightKg != nil {
			u.WeightKg = *p.WeightKg
		}
		if p.FTPWatts != nil {
			u.FTPWatts = *p.FTPWatts
		}
		if p.Age != nil {
			u.Age = *p.Age
		}
		if p.Sex != nil {
			u.Sex = *p.Sex
		}
		if p.HeightCm != nil {
			u.HeightCm = *p.HeightCm
		}
		if p.RestingHR != nil {
			u.RestingHR = *p.RestingHR
		}
		if p.LastSync != nil {
			t := *p.LastSync
			u.LastSync = &t
		}
		if p.Fitness != nil {
			u.Fitness = cloneFloat(p.Fitness)
		}
		if p.Fatigue != nil {
			u.Fatigue = cloneFloat(p.Fatigue)
		}
		if p.Form != nil {
			u.Form = cloneFloat(p.Form)
		}
		if p.PowerRecord != nil {
			u.PowerRecord = *p.PowerRecord
		}
		return nil
	})
}

// --- Write API: bikes ---

// BikePatch is a shallow partial update of one bike; nil fields are left
// untouched.
type BikePatch struct {
	Name     *string
	WeightKg *float64
}

// UpdateBike applies a shallow merge of the patch onto the bike at index.
func (s *Store) UpdateBike(index int, p BikePatch) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		if p.Name != nil {
			b.Name = *p.Name
		}
		if p.WeightKg != nil {
			b.WeightKg = *p.WeightKg
		}
		return nil
	})
}

// SetActiveBike sets the active bike index, clamped into range.
func (s *Store) SetActiveBike(index int) {
	s.mutate(func(d *Document) error {
		d.ActiveBikeIndex = clampIndex(index, len(d.Bikes))
		return nil
	})
}

// ReplaceBikes swaps in a reconciled bike list and active index in one
// atomic step. The index is clamped in case the list shrank.
func (s *Store) ReplaceBikes(bikes []BikeProfile, activeIndex int) {
	s.mutate(func(d *Document) error {
		d.Bikes = cloneBikes(bikes)
		d.ActiveBikeIndex = clampIndex(activeIndex, len(d.Bikes))
		return nil
	})
}

// --- Write API: wheelsets ---

// AddWheelset appends a new wheelset to the bike at index and makes it
// active. New wheelsets always start at zero mileage.
func (s *Store) AddWheelset(index int, name string, tireWidthMm float64, tubeless bool) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		b.Wheelsets = append(b.Wheelsets, Wheelset{
			ID:          uuid.NewString(),
			Name:        name,
			TireWidthMm: tireWidthMm,
			Tubeless:    tubeless,
		})
		b.ActiveWheelsetIndex = len(b.Wheelsets) - 1
		return nil
	})
}

// RemoveWheelset removes one wheelset from the bike at index. Removing the
// sole remaining wheelset is rejected with ErrLastWheelset and no state
// change.
func (s *Store) RemoveWheelset(index, wheelsetIndex int) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		if wheelsetIndex < 0 || wheelsetIndex >= len(b.Wheelsets) {
			return fmt.Errorf("wheelset index %d out of range", wheelsetIndex)
		}
		if len(b.Wheelsets) == 1 {
			return ErrLastWheelset
		}
		b.Wheelsets = append(b.Wheelsets[:wheelsetIndex], b.Wheelsets[wheelsetIndex+1:]...)
		b.ActiveWheelsetIndex = clampIndex(b.ActiveWheelsetIndex, len(b.Wheelsets))
		return nil
	})
}

// SetActiveWheelset sets a bike's active wheelset index, clamped into range.
func (s *Store) SetActiveWheelset(index, wheelsetIndex int) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		b.ActiveWheelsetIndex = clampIndex(wheelsetIndex, len(b.Wheelsets))
		return nil
	})
}

// --- Write API: torque settings and maintenance logs ---

// AddTorqueSetting records a torque spec on the bike at index.
func (s *Store) AddTorqueSetting(index int, component string, nm float64) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		b.TorqueSettings = append(b.TorqueSettings, TorqueSetting{
			ID:        uuid.NewString(),
			Component: component,
			Nm:        nm,
		})
		return nil
	})
}

// RemoveTorqueSetting deletes the torque spec with the given id; unknown
// ids are a no-op.
func (s *Store) RemoveTorqueSetting(index int, id string) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		for i, t := range b.TorqueSettings {
			if t.ID == id {
				b.TorqueSettings = append(b.TorqueSettings[:i], b.TorqueSettings[i+1:]...)
				break
			}
		}
		return nil
	})
}

// AddMaintenanceLog records a service action on the bike at index.
func (s *Store) AddMaintenanceLog(index int, date time.Time, component, note string) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		b.MaintenanceLogs = append(b.MaintenanceLogs, MaintenanceLogEntry{
			ID:        uuid.NewString(),
			Date:      date,
			Component: component,
			Note:      note,
		})
		return nil
	})
}

// RemoveMaintenanceLog deletes the log entry with the given id; unknown
// ids are a no-op.
func (s *Store) RemoveMaintenanceLog(index int, id string) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]
		for i, l := range b.MaintenanceLogs {
			if l.ID == id {
				b.MaintenanceLogs = append(b.MaintenanceLogs[:i], b.MaintenanceLogs[i+1:]...)
				break
			}
		}
		return nil
	})
}

// --- Write API: daily loads ---

// SetDailyLoads replaces the training-load history wholesale, used by the
// remote history sync.
func (s *Store) SetDailyLoads(loads []DailyLoad) {
	s.mutate(func(d *Document) error {
		d.DailyLoads = append([]DailyLoad(nil), loads...)
		return nil
	})
}

// MergeDailyLoad adds tss to the given day's load, summing with any
// existing entry for that date rather than overwriting it.
func (s *Store) MergeDailyLoad(date string, tss float64) {
	s.mutate(func(d *Document) error {
		for i, l := range d.DailyLoads {
			if l.Date == date {
				d.DailyLoads[i].TSS += tss
				return nil
			}
		}
		d.DailyLoads = append(d.DailyLoads, DailyLoad{Date: date, TSS: tss})
		return nil
	})
}

// --- Write API: ride session ---

// SetSession replaces the live ride session.
func (s *Store) SetSession(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := sess
	c.StartedAt = cloneTime(sess.StartedAt)
	s.session = &c
	s.markDirty(KeySession)
}

// ClearSession terminates the live ride session.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.markDirty(KeySession)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
