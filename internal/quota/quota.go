package quota

import (
	"context"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
)

// DefaultDailyLimit is the per-user call budget for one quota window.
const DefaultDailyLimit = 10

// DefaultResetCron is the fixed daily boundary at which windows reset.
const DefaultResetCron = "0 0 * * *"

// Store gates pipeline entry. CheckAndConsume must be atomic per user id:
// two concurrent requests must never both pass a check that should have
// admitted only one.
type Store interface {
	// CheckAndConsume returns true and decrements when budget remains.
	// A denial never decrements.
	CheckAndConsume(ctx context.Context, userID string) (bool, error)
	// Remaining reports the budget left in the current window.
	Remaining(ctx context.Context, userID string) (int, error)
}

type userState struct {
	remaining     int
	limit         int
	windowResetAt time.Time
}

// MemoryStore keeps per-user quota state in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*userState
	limit    int
	boundary *cronexpr.Expression
	now      func() time.Time
}

func NewMemoryStore(limit int, resetCron string) *MemoryStore {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if resetCron == "" {
		resetCron = DefaultResetCron
	}
	return &MemoryStore{
		users:    map[string]*userState{},
		limit:    limit,
		boundary: cronexpr.MustParse(resetCron),
		now:      time.Now,
	}
}

func (s *MemoryStore) CheckAndConsume(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(userID)
	if st.remaining <= 0 {
		return false, nil
	}
	st.remaining--
	return true, nil
}

func (s *MemoryStore) Remaining(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(userID).remaining, nil
}

// SetRemaining overrides a user's budget inside the current window.
// Used by tests and administrative tooling.
func (s *MemoryStore) SetRemaining(userID string, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(userID).remaining = remaining
}

// SetNow injects a clock, letting tests cross the reset boundary.
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) stateLocked(userID string) *userState {
	now := s.now()
	st, ok := s.users[userID]
	if !ok {
		st = &userState{
			remaining:     s.limit,
			limit:         s.limit,
			windowResetAt: s.boundary.Next(now),
		}
		s.users[userID] = st
		return st
	}
	if !now.Before(st.windowResetAt) {
		st.remaining = st.limit
		st.windowResetAt = s.boundary.Next(now)
	}
	return st
}
