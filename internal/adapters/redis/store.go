// Package redis stores artist tag lookups in Redis with native key expiry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
)

const DefaultKeyPrefix = "moodmatch:tags:"

type Store struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.TagStore = (*Store)(nil)

func NewStore(rdb goredis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Dial parses a redis:// URL, connects and pings.
func Dial(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := goredis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

func (s *Store) key(artistName string) string {
	return s.prefix + artistName
}

func (s *Store) Get(ctx context.Context, artistName string) ([]string, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(artistName)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", artistName, err)
	}

	tags := []string{}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, false, fmt.Errorf("redis: decode %s: %w", artistName, err)
	}
	return tags, true, nil
}

func (s *Store) Set(ctx context.Context, artistName string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", artistName, err)
	}
	if err := s.rdb.Set(ctx, s.key(artistName), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", artistName, err)
	}
	return nil
}
