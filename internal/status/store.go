package status

import (
	"sync"
	"time"

	"biogasd/internal/model"
)

// Snapshot is the latest per-metric classification for one device.
type Snapshot struct {
	DeviceID    string               `json:"device_id"`
	Temperature model.Classification `json:"temperature"`
	Pressure    model.Classification `json:"pressure"`
	Methane     model.Classification `json:"methane"`
	Overall     model.MetricStatus   `json:"overall"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Store keeps the most recent snapshot per device, evicting the device
// that has been silent longest once the limit is hit.
type Store struct {
	mu       sync.RWMutex
	byDevice map[string]Snapshot
	limit    int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 100
	}
	return &Store{
		byDevice: make(map[string]Snapshot),
		limit:    limit,
	}
}

func (s *Store) Update(snap Snapshot) {
	if snap.DeviceID == "" {
		return
	}
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDevice[snap.DeviceID] = snap
	if len(s.byDevice) > s.limit {
		s.evictOldest()
	}
}

func (s *Store) Get(deviceID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byDevice[deviceID]
	return snap, ok
}

func (s *Store) GetAll() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, len(s.byDevice))
	for _, snap := range s.byDevice {
		out = append(out, snap)
	}
	return out
}

func (s *Store) evictOldest() {
	var oldestDevice string
	var oldest time.Time
	for device, snap := range s.byDevice {
		if oldestDevice == "" || snap.UpdatedAt.Before(oldest) {
			oldestDevice = device
			oldest = snap.UpdatedAt
		}
	}
	if oldestDevice != "" {
		delete(s.byDevice, oldestDevice)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDevice = make(map[string]Snapshot)
}
