package lineage

import (
	"context"
	"sync"

	"github.com/spreadlab/claimtrace/models"
)

// memoryStore implements Store in process memory, for tests and one-shot
// CLI runs without a Redis instance.
type memoryStore struct {
	mu          sync.RWMutex
	primaries   map[string]models.PrimaryClaim
	secondaries map[string][]models.Claim
}

func NewMemoryStore() *memoryStore {
	return &memoryStore{
		primaries:   map[string]models.PrimaryClaim{},
		secondaries: map[string][]models.Claim{},
	}
}

func (m *memoryStore) SaveLineage(ctx context.Context, primary models.PrimaryClaim, secondaries []models.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primaries[primary.ID] = primary
	m.secondaries[primary.ID] = append([]models.Claim(nil), secondaries...)
	return nil
}

func (m *memoryStore) GetPrimary(ctx context.Context, id string) (models.PrimaryClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	primary, ok := m.primaries[id]
	if !ok {
		return models.PrimaryClaim{}, ErrNotFound
	}
	return primary, nil
}

func (m *memoryStore) ListSecondaries(ctx context.Context, id string) ([]models.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.primaries[id]; !ok {
		return nil, ErrNotFound
	}
	return append([]models.Claim(nil), m.secondaries[id]...), nil
}
