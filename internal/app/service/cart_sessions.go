package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxSessions        = 10000
	DefaultSessionIdleTimeout = 30 * time.Minute
)

// SessionHook runs once for each newly created session cart.
type SessionHook func(sessionID string, store *CartStore)

type SessionOption func(*sessionOptions)

type sessionOptions struct {
	maxSessions int
	idleTimeout time.Duration
}

// WithMaxSessions bounds how many carts are held in memory. The least
// recently used cart is dropped first.
func WithMaxSessions(n int) SessionOption {
	return func(o *sessionOptions) {
		if n > 0 {
			o.maxSessions = n
		}
	}
}

// WithIdleTimeout drops carts that have not been accessed for d.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(o *sessionOptions) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// CartSessions hands out one CartStore per browser session. Stores are
// loaded on first use and kept in a bounded cache. A dropped store is
// reloaded from storage on the next access. A store whose first read failed
// is never cached.
type CartSessions struct {
	kv        storage.KVStore
	keyPrefix string
	taxRate   decimal.Decimal
	ids       IDGenerator

	stores *expirable.LRU[string, *CartStore]
	loads  singleflight.Group

	hookMu sync.RWMutex
	hooks  []SessionHook
}

func NewCartSessions(kv storage.KVStore, keyPrefix string, taxRate decimal.Decimal, ids IDGenerator, opts ...SessionOption) *CartSessions {
	if keyPrefix == "" {
		keyPrefix = "cart"
	}
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	o := sessionOptions{
		maxSessions: DefaultMaxSessions,
		idleTimeout: DefaultSessionIdleTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &CartSessions{
		kv:        kv,
		keyPrefix: keyPrefix,
		taxRate:   taxRate,
		ids:       ids,
		stores: expirable.NewLRU[string, *CartStore](o.maxSessions, func(sessionID string, store *CartStore) {
			logger.Debug("Cart session evicted", map[string]interface{}{
				"session_id": sessionID,
				"key":        store.Key(),
			})
		}, o.idleTimeout),
	}
}

// OnCreate registers a hook for stores created after this call.
func (c *CartSessions) OnCreate(hook SessionHook) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// KeyFor is the storage key of a session's cart.
func (c *CartSessions) KeyFor(sessionID string) string {
	return fmt.Sprintf("%s:%s", c.keyPrefix, sessionID)
}

// Get returns the session's cart, loading it from storage on first access.
// Concurrent first accesses to one session share a single load, and loads of
// different sessions do not wait on each other.
func (c *CartSessions) Get(ctx context.Context, sessionID string) *CartStore {
	if store, ok := c.touch(sessionID); ok {
		return store
	}

	v, _, _ := c.loads.Do(sessionID, func() (interface{}, error) {
		if store, ok := c.touch(sessionID); ok {
			return store, nil
		}
		return c.open(ctx, sessionID), nil
	})
	return v.(*CartStore)
}

// Len reports how many session carts are held in memory.
func (c *CartSessions) Len() int {
	return c.stores.Len()
}

// touch returns a cached store and restarts its idle timer.
func (c *CartSessions) touch(sessionID string) (*CartStore, bool) {
	store, ok := c.stores.Get(sessionID)
	if ok {
		c.stores.Add(sessionID, store)
	}
	return store, ok
}

func (c *CartSessions) open(ctx context.Context, sessionID string) *CartStore {
	store := NewCartStore(c.kv, c.KeyFor(sessionID), WithIDGenerator(c.ids), WithTaxRate(c.taxRate))
	_, err := store.Initialize(ctx)

	c.hookMu.RLock()
	hooks := c.hooks
	c.hookMu.RUnlock()
	for _, hook := range hooks {
		hook(sessionID, store)
	}

	if err != nil {
		logger.Warn("Cart session not cached, storage read failed", map[string]interface{}{
			"session_id": sessionID,
			"key":        store.Key(),
			"error":      err.Error(),
		})
		return store
	}

	c.stores.Add(sessionID, store)
	logger.Debug("Cart session opened", map[string]interface{}{
		"session_id": sessionID,
		"key":        store.Key(),
		"sessions":   c.stores.Len(),
	})
	return store
}
