package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/config"
)

// Client wraps the Redis client
type Client struct {
	*redis.Client
	logger zerolog.Logger
}

// Options builds go-redis options from the API configuration
func Options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolTimeout:  10 * time.Second,
	}
}

// NewClient connects to Redis and verifies the connection with a ping
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	c := Wrap(redis.NewClient(Options(cfg)))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.Ping(pingCtx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.logger.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.RedisDB).Msg("connected")
	return c, nil
}

// Wrap adapts an existing go-redis client
func Wrap(rdb *redis.Client) *Client {
	return &Client{
		Client: rdb,
		logger: log.With().Str("component", "redis").Logger(),
	}
}
