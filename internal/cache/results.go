package cache

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// ResultStore memoises accepted volumes in Redis. Values are decimal
// strings since they do not fit in 64 bits.
type ResultStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*ResultStore)

// WithTTL sets the expiration of stored volumes. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *ResultStore) {
		s.ttl = ttl
	}
}

func WithPrefix(prefix string) Option {
	return func(s *ResultStore) {
		s.prefix = prefix
	}
}

// NewResultStore connects to the Redis server at addr.
func NewResultStore(addr, password string, db int, opts ...Option) *ResultStore {
	return NewResultStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

func NewResultStoreFromClient(client *backend.Client, opts ...Option) *ResultStore {
	s := &ResultStore{
		client: client,
		prefix: "workflow:accepted:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ResultStore) key(k string) string {
	return s.prefix + k
}

// Get returns the stored volume for key. ok is false when nothing is stored.
func (s *ResultStore) Get(ctx context.Context, key string) (*big.Int, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get from redis: %w", err)
	}

	v, ok := new(big.Int).SetString(val, 10)
	if !ok {
		return nil, false, fmt.Errorf("stored volume %q for %s is not an integer", val, key)
	}
	return v, true, nil
}

func (s *ResultStore) Put(ctx context.Context, key string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("volume is nil")
	}
	if err := s.client.Set(ctx, s.key(key), v.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (s *ResultStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *ResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *ResultStore) Close() error {
	return s.client.Close()
}
