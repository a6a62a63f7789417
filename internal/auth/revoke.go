package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Revoker records logged-out token ids
type Revoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker is a process-local Revoker used when Redis is disabled
type MemoryRevoker struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	revoked map[string]time.Time
}

// NewMemoryRevoker creates a MemoryRevoker. A nil clock uses the real clock.
func NewMemoryRevoker(clock clockwork.Clock) *MemoryRevoker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryRevoker{clock: clock, revoked: make(map[string]time.Time)}
}

func (m *MemoryRevoker) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	for id, until := range m.revoked {
		if !now.Before(until) {
			delete(m.revoked, id)
		}
	}
	m.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.revoked[tokenID]
	return ok && m.clock.Now().Before(until), nil
}
