package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	versionKeyPrefix = "nocdesk:collections:version"
	// BumpChannel carries version bumps between API instances.
	BumpChannel = "nocdesk.collections.bump"
	// versionRefresh bounds how long a remembered version is trusted
	// before Redis is asked again.
	versionRefresh = 5 * time.Second
)

type knownVersion struct {
	ver  int64
	seen time.Time
}

// Collections caches whole gateway collections in Redis under versioned keys.
// Bumping a collection's version invalidates every cached copy at once.
// Concurrent loads of the same key share a single upstream fetch.
// Each instance remembers the versions it has seen, so most loads skip the
// version lookup; ListenForInvalidation keeps that memory current.
type Collections struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	versions map[string]knownVersion
}

// NewCollections instantiates the cache. A nil client disables caching and
// every Load goes straight to the loader.
func NewCollections(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Collections {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collections{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		versions: make(map[string]knownVersion),
	}
}

func (c *Collections) remembered(name string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	known, ok := c.versions[name]
	if !ok || c.now().Sub(known.seen) > versionRefresh {
		return 0, false
	}
	return known.ver, true
}

func (c *Collections) remember(name string, ver int64) {
	c.mu.Lock()
	c.versions[name] = knownVersion{ver: ver, seen: c.now()}
	c.mu.Unlock()
}

// raise records ver only when it is newer than what this instance knows.
func (c *Collections) raise(name string, ver int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if known, ok := c.versions[name]; ok && known.ver >= ver {
		return false
	}
	c.versions[name] = knownVersion{ver: ver, seen: c.now()}
	return true
}

func versionKey(name string) string {
	return versionKeyPrefix + ":" + name
}

// Version returns the current version of a collection, initialising when missing.
// A version remembered from a recent lookup, bump or broadcast is returned
// without a round trip.
func (c *Collections) Version(ctx context.Context, name string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	if ver, ok := c.remembered(name); ok {
		return ver, nil
	}
	ver, err := c.client.Get(ctx, versionKey(name)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(name), 1, 0).Err(); err != nil {
			return 0, err
		}
		ver, err = c.client.Get(ctx, versionKey(name)).Int64()
	}
	if err != nil {
		return 0, err
	}
	c.remember(name, ver)
	return ver, nil
}

// Key composes the data key for a collection at its current version.
func (c *Collections) Key(ctx context.Context, name string) (string, error) {
	ver, err := c.Version(ctx, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("nocdesk:collections:%s:%d", name, ver), nil
}

// Load returns the cached collection, calling loader on a miss and
// storing its result. Redis failures degrade to calling loader directly.
func Load[T any](ctx context.Context, c *Collections, name string, loader func(context.Context) ([]T, error)) ([]T, error) {
	if loader == nil {
		return nil, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.Key(ctx, name)
	if err != nil {
		c.logger.Warn("collection cache version", slog.String("collection", name), slog.Any("error", err))
		return loader(ctx)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var items []T
		if err := json.Unmarshal(payload, &items); err == nil {
			return items, nil
		}
		c.logger.Warn("collection cache decode", slog.String("key", key), slog.Any("error", err))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("collection cache get", slog.String("key", key), slog.Any("error", err))
	}

	ch := c.group.DoChan(key, func() (any, error) {
		items, err := loader(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(context.WithoutCancel(ctx), key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("collection cache set", slog.String("key", key), slog.Any("error", err))
		}
		return items, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

// Bump invalidates a collection by incrementing its version and publishing the
// new version for other instances.
func (c *Collections) Bump(ctx context.Context, name string) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey(name)).Result()
	if err != nil {
		return err
	}
	c.remember(name, ver)
	return c.client.Publish(ctx, BumpChannel, name+":"+strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to bumps published by other instances and
// raises the remembered version so the next load reads the new key instead of
// waiting for the remembered one to expire. It returns once the subscription is
// ready.
func (c *Collections) ListenForInvalidation(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, BumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				name, ver, ok := parseBump(msg.Payload)
				if !ok {
					continue
				}
				if c.raise(name, ver) {
					c.logger.Debug("collection version raised", slog.String("collection", name), slog.Int64("version", ver))
				}
			}
		}
	}()
	return nil
}

func parseBump(payload string) (string, int64, bool) {
	for i := len(payload) - 1; i >= 0; i-- {
		if payload[i] == ':' {
			ver, err := strconv.ParseInt(payload[i+1:], 10, 64)
			if err != nil || i == 0 {
				return "", 0, false
			}
			return payload[:i], ver, true
		}
	}
	return "", 0, false
}
