package memsnapshot

import (
	"context"
	"sync"

	"github.com/BearBump/CargoBox/internal/models"
)

// Storage keeps the snapshot in process memory. Load and Save copy deeply,
// so callers never share pointers with the stored state.
type Storage struct {
	mu    sync.Mutex
	snap  models.Snapshot
	saves int
}

func New() *Storage {
	s := &Storage{}
	s.snap.Normalize()
	return s
}

func (s *Storage) Load(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone(), nil
}

func (s *Storage) Save(ctx context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	s.snap.Normalize()
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *Storage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
