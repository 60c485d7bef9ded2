package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

// FetchFunc retrieves a release from the catalog on a cache miss.
type FetchFunc func(ctx context.Context, id int64) (*models.Release, error)

// CacheStats summarizes the cached releases.
type CacheStats struct {
	Total      int            `json:"total"`
	Incomplete int            `json:"incomplete"`
	ByStatus   map[string]int `json:"by_status"`
}

// ReleaseCache is the release-id to release map stored under [models.ReleaseCacheKey].
//
// Every mutation reads the whole document, changes one entry and writes the whole
// document back. mu serializes mutations made through this value; writers in other
// processes can still interleave.
type ReleaseCache struct {
	store models.Store
	mu    sync.Mutex
}

// NewReleaseCache creates a ReleaseCache over store.
func NewReleaseCache(store models.Store) *ReleaseCache {
	return &ReleaseCache{store: store}
}

func (c *ReleaseCache) load(ctx context.Context) (map[string]models.Release, error) {
	cache := make(map[string]models.Release)
	if _, err := c.store.Get(ctx, models.ReleaseCacheKey, &cache); err != nil {
		return nil, err
	}
	return cache, nil
}

func (c *ReleaseCache) update(ctx context.Context, fn func(map[string]models.Release) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache, err := c.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(cache); err != nil {
		return err
	}
	return c.store.Set(ctx, models.ReleaseCacheKey, cache)
}

// Get returns the cached release for id without touching the network.
func (c *ReleaseCache) Get(ctx context.Context, id int64) (*models.Release, bool, error) {
	cache, err := c.load(ctx)
	if err != nil {
		return nil, false, err
	}
	r, ok := cache[strconv.FormatInt(id, 10)]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

// GetOrFetch returns the cached release, or calls fetch exactly once and caches its result under id.
//
// fromCache reports whether the release came from the cache. A failed fetch leaves the cache untouched.
func (c *ReleaseCache) GetOrFetch(ctx context.Context, id int64, fetch FetchFunc) (r *models.Release, fromCache bool, err error) {
	if r, ok, err := c.Get(ctx, id); err != nil || ok {
		return r, ok, err
	}

	fetched, err := fetch(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if fetched == nil {
		return nil, false, fmt.Errorf("%w: %d", shared.ErrReleaseNotFound, id)
	}

	rec := *fetched
	rec.ID = id
	err = c.update(ctx, func(cache map[string]models.Release) error {
		cache[rec.Key()] = rec
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &rec, false, nil
}

// Put replaces the record stored under r.ID.
func (c *ReleaseCache) Put(ctx context.Context, r models.Release) error {
	return c.update(ctx, func(cache map[string]models.Release) error {
		cache[r.Key()] = r
		return nil
	})
}

// Merge overlays the non-empty fields of partial onto the record for partial.ID, inserting it if absent.
//
// With preserveStatus set an empty partial.Status keeps the cached status; otherwise
// partial.Status always wins.
func (c *ReleaseCache) Merge(ctx context.Context, partial models.Release, preserveStatus bool) (models.Release, error) {
	var merged models.Release
	err := c.update(ctx, func(cache map[string]models.Release) error {
		existing, ok := cache[partial.Key()]
		if !ok {
			merged = partial
			cache[partial.Key()] = merged
			return nil
		}

		var err error
		merged, err = mergeRelease(existing, partial)
		if err != nil {
			return err
		}
		if !preserveStatus || partial.Status != "" {
			merged.Status = partial.Status
		}
		cache[partial.Key()] = merged
		return nil
	})
	return merged, err
}

// MergeAll merges every record of partials in one write and returns how many were new.
func (c *ReleaseCache) MergeAll(ctx context.Context, partials []models.Release, preserveStatus bool) (added int, err error) {
	err = c.update(ctx, func(cache map[string]models.Release) error {
		for _, p := range partials {
			existing, ok := cache[p.Key()]
			if !ok {
				cache[p.Key()] = p
				added++
				continue
			}
			merged, err := mergeRelease(existing, p)
			if err != nil {
				return err
			}
			if !preserveStatus || p.Status != "" {
				merged.Status = p.Status
			}
			cache[p.Key()] = merged
		}
		return nil
	})
	return added, err
}

// SetStatus changes the status of a cached release.
func (c *ReleaseCache) SetStatus(ctx context.Context, id int64, status string) error {
	return c.update(ctx, func(cache map[string]models.Release) error {
		key := strconv.FormatInt(id, 10)
		r, ok := cache[key]
		if !ok {
			return fmt.Errorf("%w: %d", shared.ErrReleaseNotFound, id)
		}
		r.Status = status
		cache[key] = r
		return nil
	})
}

// All returns every cached release ordered by id.
func (c *ReleaseCache) All(ctx context.Context) ([]models.Release, error) {
	cache, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	releases := make([]models.Release, 0, len(cache))
	for _, r := range cache {
		releases = append(releases, r)
	}
	sort.Slice(releases, func(i, j int) bool { return releases[i].ID < releases[j].ID })
	return releases, nil
}

// Incomplete returns the cached releases that have no tracklist.
func (c *ReleaseCache) Incomplete(ctx context.Context) ([]models.Release, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	var incomplete []models.Release
	for _, r := range all {
		if !r.Complete() {
			incomplete = append(incomplete, r)
		}
	}
	return incomplete, nil
}

func (c *ReleaseCache) Stats(ctx context.Context) (CacheStats, error) {
	cache, err := c.load(ctx)
	if err != nil {
		return CacheStats{}, err
	}

	stats := CacheStats{Total: len(cache), ByStatus: make(map[string]int)}
	for _, r := range cache {
		if !r.Complete() {
			stats.Incomplete++
		}
		status := r.Status
		if status == "" {
			status = "untriaged"
		}
		stats.ByStatus[status]++
	}
	return stats, nil
}

// mergeRelease overlays the fields present in partial's JSON form onto existing.
func mergeRelease(existing, partial models.Release) (models.Release, error) {
	base, err := fields(existing)
	if err != nil {
		return models.Release{}, err
	}
	overlay, err := fields(partial)
	if err != nil {
		return models.Release{}, err
	}

	for k, v := range overlay {
		if string(v) == "null" {
			continue
		}
		base[k] = v
	}

	data, err := json.Marshal(base)
	if err != nil {
		return models.Release{}, err
	}
	var merged models.Release
	if err := json.Unmarshal(data, &merged); err != nil {
		return models.Release{}, err
	}
	return merged, nil
}

func fields(r models.Release) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	m := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
