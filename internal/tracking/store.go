// Package tracking keeps the latest reported position of every running
// train in memory.
package tracking

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrInvalidFix is returned for coordinates outside the valid ranges.
var ErrInvalidFix = errors.New("invalid gps fix")

// Location is one GPS fix for a train.
type Location struct {
	TrainID    uint64    `json:"train_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   float64   `json:"speed_kmh"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store is a concurrent map of train id to latest Location.  Writes are
// last-write-wins by RecordedAt: a fix older than the stored one is
// dropped, so out-of-order delivery never moves a train backwards.
type Store struct {
	mu        sync.RWMutex
	locations map[uint64]Location
}

func NewStore() *Store {
	return &Store{locations: make(map[uint64]Location)}
}

// Update records loc and reports whether it replaced the stored fix.
func (s *Store) Update(loc Location) (bool, error) {
	if loc.TrainID == 0 || loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return false, ErrInvalidFix
	}
	if loc.RecordedAt.IsZero() {
		loc.RecordedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.locations[loc.TrainID]; ok && loc.RecordedAt.Before(cur.RecordedAt) {
		return false, nil
	}
	s.locations[loc.TrainID] = loc
	return true, nil
}

// Get returns the latest fix for a train.
func (s *Store) Get(trainID uint64) (Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[trainID]
	return loc, ok
}

// Snapshot returns every known fix ordered by train id.
func (s *Store) Snapshot() []Location {
	s.mu.RLock()
	out := make([]Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TrainID < out[j].TrainID })
	return out
}
