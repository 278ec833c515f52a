// Package rediskv backs the local KV port with Redis so unit blobs survive
// process restarts.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const opTimeout = 5 * time.Second

// Store adapts a Redis client to the flat key -> string port the unit
// store expects. Keys are stored without TTL; expiry is the unit store's
// own cleanup sweep, not Redis's.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection.
func New(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{rdb: rdb}, nil
}

// Get retrieves a value. A missing key is (_, false, nil), not an error.
func (s *Store) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores a value without expiry.
func (s *Store) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.rdb.Set(ctx, key, value, 0).Err()
}

// Delete removes a key.
func (s *Store) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.rdb.Del(ctx, key).Err()
}

// Keys returns all keys with the given prefix.
func (s *Store) Keys(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.rdb.Keys(ctx, prefix+"*").Result()
}

// Ping checks connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
