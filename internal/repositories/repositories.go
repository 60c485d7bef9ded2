package repositories

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

// NewStore returns the [models.Store] selected by cfg.Driver.
//
// The sqlite driver stores into db, which must already be migrated.
func NewStore(cfg shared.StorageConfig, db *sql.DB) (models.Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite store needs a database", shared.ErrInvalidConfig)
		}
		return NewSQLiteStore(db), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		return NewRedisStore(client, cfg.RedisPrefix), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// changeFeed fans key-change notifications out to registered listeners.
type changeFeed struct {
	mu        sync.RWMutex
	listeners []func(key string)
}

func (f *changeFeed) OnChange(fn func(key string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *changeFeed) notify(key string) {
	f.mu.RLock()
	listeners := make([]func(string), len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.RUnlock()

	for _, fn := range listeners {
		fn(key)
	}
}
