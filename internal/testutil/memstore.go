package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
)

// MemoryStore is a concurrency-safe domain.IntegralLoader and
// domain.IntegralWriter that keeps integral sets in memory, keyed by path.
// Values are copied on the way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]*domain.MOIntegrals
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: map[string]*domain.MOIntegrals{}}
}

func (s *MemoryStore) Name() string { return "memory" }

// Load returns a copy of the set stored under path.
func (s *MemoryStore) Load(ctx context.Context, path string) (*domain.MOIntegrals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.sets[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return cloneIntegrals(in), nil
}

// Write validates in and stores a copy under path.
func (s *MemoryStore) Write(ctx context.Context, path string, in *domain.MOIntegrals) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return errors.New("testutil: empty path")
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[path] = cloneIntegrals(in)
	return nil
}

// Len returns the number of stored sets.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets)
}

func cloneIntegrals(in *domain.MOIntegrals) *domain.MOIntegrals {
	out := *in
	out.OneElectron = append([]float64(nil), in.OneElectron...)
	out.ERI = append([]domain.ERIRecord(nil), in.ERI...)
	if in.OrbitalEnergies != nil {
		out.OrbitalEnergies = append([]float64(nil), in.OrbitalEnergies...)
	}
	return &out
}
