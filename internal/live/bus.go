package live

import (
	"context"
	"sync"
)

// LocalBus delivers league changes within one process. It stands in for
// Redis pub/sub when Redis is disabled.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(ctx context.Context, leagueID int)
}

// NewLocalBus creates an empty bus
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]func(context.Context, int))}
}

// LeagueChanged calls every subscribed handler synchronously
func (b *LocalBus) LeagueChanged(ctx context.Context, leagueID int) {
	b.mu.RLock()
	handlers := make([]func(context.Context, int), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, leagueID)
	}
}

// Subscribe registers handle and returns a function that removes it
func (b *LocalBus) Subscribe(handle func(ctx context.Context, leagueID int)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handle
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// SubscribeLeagueChanges blocks until ctx is done, delivering changes to handle
func (b *LocalBus) SubscribeLeagueChanges(ctx context.Context, handle func(ctx context.Context, leagueID int)) error {
	unsubscribe := b.Subscribe(handle)
	defer unsubscribe()
	<-ctx.Done()
	return nil
}
