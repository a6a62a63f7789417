package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/csl-racing/api/internal/models"
)

func standingsKey(leagueID int) string {
	return fmt.Sprintf("standings:league:%d", leagueID)
}

// versionKey counts invalidations of a league's table
func versionKey(leagueID int) string {
	return fmt.Sprintf("standings:version:%d", leagueID)
}

// setIfVersion stores a table only while the version is still the one the
// reader saw before loading it from the database.
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if ARGV[3] == '0' then
	redis.call('SET', KEYS[1], ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

// StandingsCache stores computed league tables as JSON with a TTL
type StandingsCache struct {
	client *Client
	ttl    time.Duration
}

// NewStandingsCache creates a cache whose entries expire after ttl
func NewStandingsCache(client *Client, ttl time.Duration) *StandingsCache {
	return &StandingsCache{client: client, ttl: ttl}
}

// GetStandings returns the cached table and the league's current version.
// ok is false on a miss.
func (s *StandingsCache) GetStandings(ctx context.Context, leagueID int) ([]models.Standing, int64, bool, error) {
	vals, err := s.client.MGet(ctx, standingsKey(leagueID), versionKey(leagueID)).Result()
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to get standings: %w", err)
	}

	var version int64
	if raw, ok := vals[1].(string); ok {
		if version, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, 0, false, fmt.Errorf("invalid standings version %q: %w", raw, err)
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, false, nil
	}
	var standings []models.Standing
	if err := json.Unmarshal([]byte(raw), &standings); err != nil {
		// Drop the corrupt entry and treat it as a miss
		s.client.Del(ctx, standingsKey(leagueID))
		return nil, version, false, nil
	}
	return standings, version, true, nil
}

// SetStandings caches a league table unless the league was invalidated
// after version was read.
func (s *StandingsCache) SetStandings(ctx context.Context, leagueID int, version int64, standings []models.Standing) error {
	raw, err := json.Marshal(standings)
	if err != nil {
		return fmt.Errorf("failed to marshal standings: %w", err)
	}
	keys := []string{standingsKey(leagueID), versionKey(leagueID)}
	err = setIfVersion.Run(ctx, s.client, keys, strconv.FormatInt(version, 10), raw, max(s.ttl.Milliseconds(), 0)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to set standings: %w", err)
	}
	return nil
}

// InvalidateStandings drops the cached table of a league and bumps its version
func (s *StandingsCache) InvalidateStandings(ctx context.Context, leagueID int) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(leagueID))
		pipe.Del(ctx, standingsKey(leagueID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate standings: %w", err)
	}
	return nil
}
