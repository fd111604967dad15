package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

// MemoryStore keeps everything in maps. It backs tests and the
// STORAGE_BACKEND=memory mode.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]core.LedgerEntry
	vehicles map[string]core.Vehicle
	subs     []chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]core.LedgerEntry),
		vehicles: make(map[string]core.Vehicle),
	}
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	return nil
}

func (s *MemoryStore) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// notifyLocked assumes s.mu is held.
func (s *MemoryStore) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *MemoryStore) SaveEntries(_ context.Context, entries []core.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, e := range entries {
		if prev, ok := s.entries[e.ID]; ok {
			e.CreatedAt = prev.CreatedAt
		} else {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		s.entries[e.ID] = e
	}
	s.notifyLocked()
	return nil
}

func (s *MemoryStore) ListEntries(_ context.Context) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (s *MemoryStore) GetEntry(_ context.Context, id string) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return core.LedgerEntry{}, fmt.Errorf("entry %q: %w", id, core.ErrUnknownEntry)
	}
	return e, nil
}

func (s *MemoryStore) FindTripEntries(_ context.Context, tripID, vehicleID string) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.TripID == tripID && e.VehicleID == vehicleID {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *MemoryStore) FindEntriesByVehicleAndDate(_ context.Context, vehicleID string, date core.Date) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.VehicleID == vehicleID && e.Date.Equal(date.Time) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *MemoryStore) DeleteEntries(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := s.entries[id]; ok {
			delete(s.entries, id)
			deleted++
		}
	}
	if deleted > 0 {
		s.notifyLocked()
	}
	return deleted, nil
}

func (s *MemoryStore) DeleteExpenseEntries(_ context.Context, vehicleID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.entries {
		if e.VehicleID == vehicleID && (e.Kind == core.Expense || e.Category == core.InsuranceClaim) {
			delete(s.entries, id)
			n++
		}
	}
	if n > 0 {
		s.notifyLocked()
	}
	return n, nil
}

func (s *MemoryStore) ListVehicles(_ context.Context) ([]core.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetVehicle(_ context.Context, id string) (core.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return core.Vehicle{}, fmt.Errorf("vehicle %q: %w", id, core.ErrUnknownVehicle)
	}
	return v, nil
}

func (s *MemoryStore) FindVehicleByName(_ context.Context, name string) (core.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vehicles {
		if v.Name == name {
			return v, nil
		}
	}
	return core.Vehicle{}, fmt.Errorf("vehicle %q: %w", name, core.ErrUnknownVehicle)
}

func (s *MemoryStore) SaveVehicle(_ context.Context, v core.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	s.vehicles[v.ID] = v
	s.notifyLocked()
	return nil
}

func (s *MemoryStore) UpdateVehicle(_ context.Context, v core.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.vehicles[v.ID]
	if !ok {
		return fmt.Errorf("vehicle %q: %w", v.ID, core.ErrUnknownVehicle)
	}
	v.CreatedAt = prev.CreatedAt
	s.vehicles[v.ID] = v
	s.notifyLocked()
	return nil
}

func (s *MemoryStore) DeleteVehicleCascade(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[id]; !ok {
		return 0, fmt.Errorf("vehicle %q: %w", id, core.ErrUnknownVehicle)
	}
	delete(s.vehicles, id)
	var deleted int64
	for eid, e := range s.entries {
		if e.VehicleID == id {
			delete(s.entries, eid)
			deleted++
		}
	}
	s.notifyLocked()
	return deleted, nil
}

func sortEntries(entries []core.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date.Time) {
			return entries[i].Date.Before(entries[j].Date.Time)
		}
		return entries[i].ID < entries[j].ID
	})
}
