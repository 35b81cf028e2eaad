// Package cache wraps an in-memory TTL cache for adapter responses,
// keyed by (source, query), so repeated runs over overlapping
// bibliographies don't re-hit an external registry for the same query.
// Entries are held zstd-compressed, the same tradeoff the fusion
// server's blob cache makes: these records stick around for a full day
// across potentially tens of thousands of entries, and registry
// responses compress well.
package cache

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	gocache "github.com/patrickmn/go-cache"
	"github.com/segmentio/encoding/json"

	"github.com/bet-lab/reference-validator/internal/model"
)

// DefaultTTL is how long an adapter response stays valid in the cache.
const DefaultTTL = 24 * time.Hour

// DefaultCleanupInterval is how often expired entries are purged.
const DefaultCleanupInterval = 1 * time.Hour

// Cache caches source records by (source, query key), storing each as
// zstd-compressed JSON rather than the live value.
type Cache struct {
	c      *gocache.Cache
	encMu  sync.Mutex
	encode *zstd.Encoder
	decode *zstd.Decoder
}

// New builds a Cache with the default TTL and cleanup interval.
func New() *Cache {
	return NewWithTTL(DefaultTTL, DefaultCleanupInterval)
}

// NewWithTTL builds a Cache with an explicit TTL and cleanup interval,
// for callers threading operator-tunable cache settings through.
func NewWithTTL(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	encode, err := zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("cache: build zstd encoder: %v", err))
	}
	decode, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("cache: build zstd decoder: %v", err))
	}
	return &Cache{
		c:      gocache.New(ttl, cleanupInterval),
		encode: encode,
		decode: decode,
	}
}

func key(source model.SourceName, query string) string {
	return fmt.Sprintf("%s:%s", source, query)
}

// Get returns a cached source record for (source, query), if present and
// not expired.
func (c *Cache) Get(source model.SourceName, query string) (model.SourceRecord, bool) {
	v, ok := c.c.Get(key(source, query))
	if !ok {
		return nil, false
	}
	compressed, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	raw, err := c.decode.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false
	}
	var record model.SourceRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false
	}
	return record, true
}

// Set stores a source record for (source, query) under the default TTL,
// compressing the JSON-encoded record before it enters the cache.
func (c *Cache) Set(source model.SourceName, query string, record model.SourceRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	c.encMu.Lock()
	var buf bytes.Buffer
	c.encode.Reset(&buf)
	_, copyErr := io.Copy(c.encode, bytes.NewReader(raw))
	closeErr := c.encode.Close()
	c.encMu.Unlock()
	if copyErr != nil || closeErr != nil {
		return
	}
	c.c.SetDefault(key(source, query), buf.Bytes())
}

// ItemCount returns the number of unexpired entries currently cached,
// for diagnostics.
func (c *Cache) ItemCount() int {
	return c.c.ItemCount()
}

// Flush drops all cached entries.
func (c *Cache) Flush() {
	c.c.Flush()
}
