package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/forPelevin/presserdigest/internal/types"
)

const defaultPrefix = "presserdigest:transcript:"

// Cache shares transcripts between hosts through Redis. Entries expire after
// ttl so stale captions do not live forever.
type Cache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// Open connects to the Redis URL (redis://host:port/db) and pings it.
func Open(ctx context.Context, url, prefix string, ttl time.Duration) (*Cache, error) {
	opts, err := goredis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, prefix, ttl), nil
}

func New(rdb *goredis.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(videoID string) string {
	return c.prefix + videoID
}

func (c *Cache) Get(ctx context.Context, videoID string) (types.Transcript, bool, error) {
	b, err := c.rdb.Get(ctx, c.key(videoID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return types.Transcript{}, false, nil
	}
	if err != nil {
		return types.Transcript{}, false, fmt.Errorf("redis get %s: %w", videoID, err)
	}
	var tr types.Transcript
	if err := json.Unmarshal(b, &tr); err != nil {
		return types.Transcript{}, false, fmt.Errorf("decode cached transcript %s: %w", videoID, err)
	}
	return tr, true, nil
}

func (c *Cache) Put(ctx context.Context, tr types.Transcript) error {
	if tr.Video.ID == "" {
		return errors.New("put transcript: empty video id")
	}
	b, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(tr.Video.ID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", tr.Video.ID, err)
	}
	return nil
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
