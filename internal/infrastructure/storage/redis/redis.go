// Package redis provides a Redis-backed token store for shared-host and
// kiosk deployments where the agent has no stable local filesystem.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openclass/lms-client/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect initialises a Redis client and validates connectivity with a
// ping. A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Store persists the token pair under the fixed key names, namespaced by
// prefix. Both keys are written and deleted in one pipeline so a
// mismatched pair is never observable.
type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "lms"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Load(ctx context.Context) (ports.TokenPair, error) {
	vals, err := s.client.MGet(ctx, s.key(ports.TokenKeyAccess), s.key(ports.TokenKeyRefresh)).Result()
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("load tokens: %w", err)
	}
	var pair ports.TokenPair
	if v, ok := vals[0].(string); ok {
		pair.Access = v
	}
	if v, ok := vals[1].(string); ok {
		pair.Refresh = v
	}
	return pair, nil
}

func (s *Store) Save(ctx context.Context, pair ports.TokenPair) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(ports.TokenKeyAccess), pair.Access, 0)
	pipe.Set(ctx, s.key(ports.TokenKeyRefresh), pair.Refresh, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(ports.TokenKeyAccess), s.key(ports.TokenKeyRefresh)).Err(); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (s *Store) key(name string) string {
	return fmt.Sprintf("%s:tokens:%s", s.prefix, name)
}
