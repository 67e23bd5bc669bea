// Package cache provides keyed TTL caches for video, playlist, and channel
// metadata so repeated lookups of the same URL don't re-invoke the
// downloader binary.
package cache

import (
	"sync"
	"time"

	"github.com/ytget/dlcore/internal/model"
)

// DefaultTTL is the lifetime of a cache entry when none is configured.
const DefaultTTL = 5 * time.Minute

type entry[T any] struct {
	data      T
	insertedAt time.Time
}

type typedCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
}

func newTypedCache[T any](ttl time.Duration) *typedCache[T] {
	return &typedCache[T]{entries: make(map[string]entry[T]), ttl: ttl}
}

func (c *typedCache[T]) get(url string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	if !ok || time.Since(e.insertedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.data, true
}

func (c *typedCache[T]) put(url string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = entry[T]{data: data, insertedAt: time.Now()}
}

func (c *typedCache[T]) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if time.Since(e.insertedAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *typedCache[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

func (c *typedCache[T]) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// MetadataCache holds three independent caches, one per record kind, each
// with its own lock so a slow writer to one never blocks readers of
// another.
type MetadataCache struct {
	video    *typedCache[model.VideoRecord]
	playlist *typedCache[model.PlaylistRecord]
	channel  *typedCache[model.ChannelRecord]
}

// New returns a MetadataCache with the given per-entry TTL.
func New(ttl time.Duration) *MetadataCache {
	return &MetadataCache{
		video:    newTypedCache[model.VideoRecord](ttl),
		playlist: newTypedCache[model.PlaylistRecord](ttl),
		channel:  newTypedCache[model.ChannelRecord](ttl),
	}
}

// WithDefaultTTL returns a MetadataCache using DefaultTTL.
func WithDefaultTTL() *MetadataCache {
	return New(DefaultTTL)
}

func (c *MetadataCache) GetVideo(url string) (model.VideoRecord, bool) { return c.video.get(url) }
func (c *MetadataCache) PutVideo(url string, r model.VideoRecord)      { c.video.put(url, r) }

func (c *MetadataCache) GetPlaylist(url string) (model.PlaylistRecord, bool) {
	return c.playlist.get(url)
}
func (c *MetadataCache) PutPlaylist(url string, r model.PlaylistRecord) { c.playlist.put(url, r) }

func (c *MetadataCache) GetChannel(url string) (model.ChannelRecord, bool) {
	return c.channel.get(url)
}
func (c *MetadataCache) PutChannel(url string, r model.ChannelRecord) { c.channel.put(url, r) }

// Sweep evicts expired entries from all three caches and returns the
// number removed.
func (c *MetadataCache) Sweep() int {
	return c.video.sweep() + c.playlist.sweep() + c.channel.sweep()
}

// Clear empties all three caches.
func (c *MetadataCache) Clear() {
	c.video.clear()
	c.playlist.clear()
	c.channel.clear()
}

// Stats reports the current size of each cache.
type Stats struct {
	VideoEntries    int
	PlaylistEntries int
	ChannelEntries  int
}

func (c *MetadataCache) Stats() Stats {
	return Stats{
		VideoEntries:    c.video.size(),
		PlaylistEntries: c.playlist.size(),
		ChannelEntries:  c.channel.size(),
	}
}
