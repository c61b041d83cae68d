package presence

import (
	"context"
	"time"

	"github.com/lumahq/roster/pkg/directory"
	"github.com/lumahq/roster/pkg/logging"
	"github.com/lumahq/roster/pkg/observability"
)

// Defaults for cache construction.
const (
	DefaultTTL       = 60 * time.Second
	DefaultChunkSize = directory.BatchLimit
)

// Options configures a Cache.
type Options struct {
	// TTL is the freshness window for cached entries. Defaults to DefaultTTL.
	TTL time.Duration

	// ChunkSize caps identifiers per batched request. Defaults to the
	// service's batch ceiling; values above it are clamped.
	ChunkSize int

	// Store is the backing storage. Defaults to an in-memory store.
	Store Store

	// Logger defaults to a nop logger.
	Logger logging.Logger

	// Metrics records hits, misses, and chunk counts. Optional.
	Metrics *observability.Metrics

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Cache avoids redundant live-status calls against the rate-limited
// presence endpoint. It is an explicit, constructible object owned by the
// engine's composition root; Clear is the session-teardown lifecycle hook.
type Cache struct {
	provider  directory.PresenceProvider
	store     Store
	ttl       time.Duration
	chunkSize int
	logger    logging.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewCache creates a presence cache in front of the given provider.
func NewCache(provider directory.PresenceProvider, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.ChunkSize <= 0 || opts.ChunkSize > directory.BatchLimit {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		provider:  provider,
		store:     opts.Store,
		ttl:       opts.TTL,
		chunkSize: opts.ChunkSize,
		logger:    opts.Logger.With(logging.F("component", "presence_cache")),
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
}

// Get returns presence for a single identity, serving from cache when the
// entry is still fresh. A cache hit issues no network call.
func (c *Cache) Get(ctx context.Context, id string) (*directory.Presence, error) {
	if entry, ok := c.lookup(ctx, id); ok {
		c.recordHit()
		p := entry.Presence
		return &p, nil
	}
	c.recordMiss()

	presence, err := c.provider.GetPresence(ctx, id)
	if err != nil {
		return nil, err
	}

	c.save(ctx, id, *presence)
	return presence, nil
}

// GetBatch returns presence for the requested identifiers. Cached-fresh
// entries are returned directly; the rest are fetched in chunks of at most
// ChunkSize, each chunk one batched call, processed sequentially. Chunk
// failures and per-identity authorization failures degrade to omission;
// the returned map may be partial.
func (c *Cache) GetBatch(ctx context.Context, ids []string) (map[string]directory.Presence, error) {
	results := make(map[string]directory.Presence, len(ids))

	var missing []string
	for _, id := range ids {
		if entry, ok := c.lookup(ctx, id); ok {
			c.recordHit()
			results[id] = entry.Presence
			continue
		}
		c.recordMiss()
		missing = append(missing, id)
	}

	for start := 0; start < len(missing); start += c.chunkSize {
		end := min(start+c.chunkSize, len(missing))
		chunk := missing[start:end]

		if c.metrics != nil {
			c.metrics.PresenceChunksTotal.Inc()
		}

		fetched, err := c.provider.GetPresenceBatch(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			c.logger.Warn("presence chunk fetch failed",
				logging.Err(err),
				logging.F("chunk_size", len(chunk)))
			continue
		}

		for id, presence := range fetched {
			results[id] = presence
			c.save(ctx, id, presence)
		}
	}

	return results, nil
}

// Clear empties the cache. Called on session teardown (e.g. sign-out).
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// lookup returns a cached entry when present and still fresh. Staleness is
// checked lazily on read; there is no background eviction.
func (c *Cache) lookup(ctx context.Context, id string) (Entry, bool) {
	entry, ok, err := c.store.Get(ctx, id)
	if err != nil {
		c.logger.Warn("presence store read failed", logging.Err(err), logging.F("id", id))
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(entry.FetchedAt) >= c.ttl {
		return Entry{}, false
	}
	return entry, true
}

// save writes an entry with a fresh timestamp. Store failures degrade to
// cache misses on the next read.
func (c *Cache) save(ctx context.Context, id string, presence directory.Presence) {
	entry := Entry{Presence: presence, FetchedAt: c.now()}
	if err := c.store.Set(ctx, id, entry); err != nil {
		c.logger.Warn("presence store write failed", logging.Err(err), logging.F("id", id))
	}
}

func (c *Cache) recordHit() {
	if c.metrics != nil {
		c.metrics.PresenceCacheHitsTotal.Inc()
	}
}

func (c *Cache) recordMiss() {
	if c.metrics != nil {
		c.metrics.PresenceCacheMissesTotal.Inc()
	}
}
