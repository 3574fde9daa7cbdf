package cachestore

import (
	"context"
	"errors"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// DefaultRedisPrefix namespaces knowledge base keys.
const DefaultRedisPrefix = "muqbot:kb:"

// RedisStore implements ports.CacheStore with one key per fingerprint and no expiry.
type RedisStore struct {
	client  redisv9.UniversalClient
	prefix  string
	decoder ports.IndexDecoder
}

// NewRedisStore uses client for storage.
func NewRedisStore(client redisv9.UniversalClient, prefix string, decoder ports.IndexDecoder) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, decoder: decoder}
}

// Key returns the redis key for fp.
func (s *RedisStore) Key(fp string) string {
	return s.prefix + fp
}

// Load reads and decodes the entry for fp.
func (s *RedisStore) Load(ctx context.Context, fp string) (ports.Index, bool, error) {
	data, err := s.client.Get(ctx, s.Key(fp)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	idx, err := s.decoder.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", fp, err)
	}
	return idx, true, nil
}

// Save upserts the entry for fp.
func (s *RedisStore) Save(ctx context.Context, fp string, idx ports.Index) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serializing index: %w", err)
	}
	if err := s.client.Set(ctx, s.Key(fp), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
