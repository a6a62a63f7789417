package testutil

import (
	"context"
	"sync"

	"github.com/csl-racing/api/internal/models"
)

// Cache is an in-memory standings cache with per-league versions that
// counts invalidations
type Cache struct {
	mu            sync.Mutex
	entries       map[int][]models.Standing
	versions      map[int]int64
	invalidations map[int]int
}

func NewCache() *Cache {
	return &Cache{entries: map[int][]models.Standing{}, versions: map[int]int64{}, invalidations: map[int]int{}}
}

func (c *Cache) GetStandings(_ context.Context, leagueID int) ([]models.Standing, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows, ok := c.entries[leagueID]
	if !ok {
		return nil, c.versions[leagueID], false, nil
	}
	return append([]models.Standing(nil), rows...), c.versions[leagueID], true, nil
}

func (c *Cache) SetStandings(_ context.Context, leagueID int, version int64, standings []models.Standing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[leagueID] != version {
		return nil
	}
	c.entries[leagueID] = append([]models.Standing(nil), standings...)
	return nil
}

func (c *Cache) InvalidateStandings(_ context.Context, leagueID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, leagueID)
	c.versions[leagueID]++
	c.invalidations[leagueID]++
	return nil
}

// Cached reports whether a league's standings are cached
func (c *Cache) Cached(leagueID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[leagueID]
	return ok
}

// InvalidationCount returns how often a league was invalidated
func (c *Cache) InvalidationCount(leagueID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations[leagueID]
}

// Notifier records league change notifications
type Notifier struct {
	mu      sync.Mutex
	changes []int
}

func (n *Notifier) LeagueChanged(_ context.Context, leagueID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, leagueID)
}

// Changes returns the league ids notified so far, in order
func (n *Notifier) Changes() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.changes...)
}
