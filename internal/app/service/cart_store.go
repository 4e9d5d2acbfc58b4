package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// ErrCartUnavailable is returned by Initialize when the persisted cart could
// not be read. The store stays unloaded and retries the read before the next
// mutation.
var ErrCartUnavailable = errors.New("cart storage unavailable")

// CartStore owns one session's cart and mirrors it to a single key in the
// KV store after every mutation. Mutations never return errors: invalid
// input is a no-op or is clamped, and write failures are logged while the
// in-memory cart stays authoritative. A cart that was never read from
// storage is not written to it.
type CartStore struct {
	mu      sync.Mutex
	kv      storage.KVStore
	key     string
	ids     IDGenerator
	taxRate decimal.Decimal
	lines   []model.CartLine
	loaded  bool
	version uint64

	// notifyMu serializes delivery. An event older than the last delivered
	// one is dropped, since every event carries the whole cart.
	notifyMu     sync.Mutex
	lastNotified uint64

	subMu       sync.Mutex
	subscribers map[uint64]Subscriber
	nextSubID   uint64
}

type CartStoreOption func(*CartStore)

func WithIDGenerator(g IDGenerator) CartStoreOption {
	return func(s *CartStore) {
		if g != nil {
			s.ids = g
		}
	}
}

func WithTaxRate(rate decimal.Decimal) CartStoreOption {
	return func(s *CartStore) {
		s.taxRate = rate
	}
}

func NewCartStore(kv storage.KVStore, key string, opts ...CartStoreOption) *CartStore {
	s := &CartStore{
		kv:          kv,
		key:         key,
		ids:         NewUUIDGenerator(),
		taxRate:     DefaultTaxRate,
		subscribers: make(map[uint64]Subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key is the storage key this cart persists to.
func (s *CartStore) Key() string {
	return s.key
}

// Initialize loads the persisted cart. A missing key or a malformed value
// yields an empty cart. A read error also yields an empty cart but is
// reported as ErrCartUnavailable, and the store will not persist until a
// later read succeeds.
func (s *CartStore) Initialize(ctx context.Context) ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.loadLocked(ctx)
	return cloneLines(s.lines), err
}

// Loaded reports whether the persisted cart has been read.
func (s *CartStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *CartStore) loadLocked(ctx context.Context) error {
	s.lines = []model.CartLine{}
	s.loaded = false

	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		logger.Warn("Failed to read persisted cart", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	s.loaded = true

	if !found {
		logger.Debug("No persisted cart found", map[string]interface{}{
			"key": s.key,
		})
		return nil
	}

	lines, err := DecodeCart(raw)
	if err != nil {
		logger.Warn("Persisted cart is malformed, starting empty", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return nil
	}

	s.lines = lines
	logger.Info("Cart loaded from storage", map[string]interface{}{
		"key":   s.key,
		"lines": len(lines),
	})
	return nil
}

// ensureLoadedLocked retries the initial read of an unloaded cart. When it
// fails the caller must not mutate, or the next write would replace the
// stored cart.
func (s *CartStore) ensureLoadedLocked(ctx context.Context, op string) bool {
	if s.loaded {
		return true
	}
	if err := s.loadLocked(ctx); err != nil {
		logger.Warn("Skipping cart mutation, persisted cart unreadable", map[string]interface{}{
			"key":       s.key,
			"operation": op,
		})
		return false
	}
	return true
}

// AddItem merges by product id: an existing line for product grows by
// quantity, otherwise a new line is appended. quantity < 1 is clamped to 1.
func (s *CartStore) AddItem(ctx context.Context, product model.Product, quantity int) []model.CartLine {
	if product.ID <= 0 {
		logger.Warn("Ignoring add to cart for product without id", map[string]interface{}{
			"key":   s.key,
			"title": product.Title,
		})
		return s.Lines()
	}
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxLineQuantity {
		quantity = MaxLineQuantity
	}

	s.mu.Lock()
	if !s.ensureLoadedLocked(ctx, "add") {
		lines := cloneLines(s.lines)
		s.mu.Unlock()
		return lines
	}
	var cartItemID string
	if i := s.indexByProduct(product.ID); i >= 0 {
		s.lines[i].Quantity = addQuantity(s.lines[i].Quantity, quantity)
		cartItemID = s.lines[i].CartItemID
		logger.Debug("Merged quantity into existing cart line", map[string]interface{}{
			"cart_item_id": cartItemID,
			"product_id":   product.ID,
			"quantity":     s.lines[i].Quantity,
		})
	} else {
		cartItemID = s.newCartItemID()
		s.lines = append(s.lines, model.NewCartLine(product, cartItemID, quantity))
		logger.Debug("Appended cart line", map[string]interface{}{
			"cart_item_id": cartItemID,
			"product_id":   product.ID,
			"quantity":     quantity,
		})
	}
	return s.commit(ctx, CartEventAdded, cartItemID)
}

// UpdateQuantity sets a line's quantity exactly. newQuantity <= 0 removes the
// line; an unknown cartItemID is a no-op.
func (s *CartStore) UpdateQuantity(ctx context.Context, cartItemID string, newQuantity int) []model.CartLine {
	s.mu.Lock()
	if !s.ensureLoadedLocked(ctx, "update") {
		lines := cloneLines(s.lines)
		s.mu.Unlock()
		return lines
	}
	i := s.indexByID(cartItemID)
	if i < 0 {
		s.mu.Unlock()
		logger.Warn("Ignoring quantity update for unknown cart item", map[string]interface{}{
			"key":          s.key,
			"cart_item_id": cartItemID,
		})
		return s.Lines()
	}

	if newQuantity <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return s.commit(ctx, CartEventRemoved, cartItemID)
	}

	if newQuantity > MaxLineQuantity {
		newQuantity = MaxLineQuantity
	}
	s.lines[i].Quantity = newQuantity
	return s.commit(ctx, CartEventUpdated, cartItemID)
}

// RemoveItem deletes the line if present. Removing an absent id changes
// nothing and does not touch storage.
func (s *CartStore) RemoveItem(ctx context.Context, cartItemID string) []model.CartLine {
	s.mu.Lock()
	if !s.ensureLoadedLocked(ctx, "remove") {
		lines := cloneLines(s.lines)
		s.mu.Unlock()
		return lines
	}
	i := s.indexByID(cartItemID)
	if i < 0 {
		s.mu.Unlock()
		logger.Debug("Cart item already absent", map[string]interface{}{
			"key":          s.key,
			"cart_item_id": cartItemID,
		})
		return s.Lines()
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return s.commit(ctx, CartEventRemoved, cartItemID)
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context) []model.CartLine {
	s.mu.Lock()
	if !s.ensureLoadedLocked(ctx, "clear") {
		lines := cloneLines(s.lines)
		s.mu.Unlock()
		return lines
	}
	s.lines = []model.CartLine{}
	return s.commit(ctx, CartEventCleared, "")
}

// Lines returns a copy of the cart in insertion order.
func (s *CartStore) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *CartStore) Find(cartItemID string) (model.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexByID(cartItemID); i >= 0 {
		return s.lines[i], true
	}
	return model.CartLine{}, false
}

func (s *CartStore) ComputeTotals() model.CartTotals {
	return ComputeTotals(s.Lines(), s.taxRate)
}

// Version counts committed mutations. Events carry the version they produced.
func (s *CartStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot returns lines and version read under a single lock.
func (s *CartStore) Snapshot() ([]model.CartLine, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines), s.version
}

// Subscribe registers fn for cart events and returns a func that removes it.
func (s *CartStore) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

// commit persists and notifies. It must be called with s.mu held and
// releases it before subscribers run.
func (s *CartStore) commit(ctx context.Context, eventType CartEventType, cartItemID string) []model.CartLine {
	s.persistLocked(ctx)
	s.version++
	version := s.version
	snapshot := cloneLines(s.lines)
	s.mu.Unlock()

	logger.Info("Cart updated", map[string]interface{}{
		"key":          s.key,
		"event":        string(eventType),
		"cart_item_id": cartItemID,
		"lines":        len(snapshot),
		"version":      version,
	})

	s.notify(CartEvent{
		Type:       eventType,
		Version:    version,
		CartItemID: cartItemID,
		Lines:      snapshot,
		Totals:     ComputeTotals(snapshot, s.taxRate),
	})
	return cloneLines(snapshot)
}

func (s *CartStore) persistLocked(ctx context.Context) {
	raw, err := EncodeCart(s.lines)
	if err != nil {
		logger.Error("Failed to encode cart", err, map[string]interface{}{
			"key": s.key,
		})
		return
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		logger.Error("Failed to persist cart", err, map[string]interface{}{
			"key": s.key,
		})
	}
}

func (s *CartStore) notify(ev CartEvent) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if ev.Version <= s.lastNotified {
		logger.Debug("Dropping superseded cart event", map[string]interface{}{
			"key":     s.key,
			"version": ev.Version,
			"latest":  s.lastNotified,
		})
		return
	}
	s.lastNotified = ev.Version

	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// newCartItemID suffixes the generated id until it is unique in this cart.
func (s *CartStore) newCartItemID() string {
	base := s.ids.NewID()
	if base == "" {
		base = uuid.NewString()
	}
	id := base
	for n := 1; s.indexByID(id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (s *CartStore) indexByProduct(productID int) int {
	for i, line := range s.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *CartStore) indexByID(cartItemID string) int {
	if cartItemID == "" {
		return -1
	}
	for i, line := range s.lines {
		if line.CartItemID == cartItemID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out
}

// EncodeCart serializes lines in the persisted storage format.
func EncodeCart(lines []model.CartLine) (string, error) {
	if lines == nil {
		lines = []model.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeCart parses a persisted cart. Lines without an id, with a repeated
// id or with a non-positive quantity are dropped.
func DecodeCart(raw string) ([]model.CartLine, error) {
	var decoded []model.CartLine
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	lines := make([]model.CartLine, 0, len(decoded))
	seen := make(map[string]struct{}, len(decoded))
	for _, line := range decoded {
		if line.CartItemID == "" || line.Quantity <= 0 {
			continue
		}
		if _, dup := seen[line.CartItemID]; dup {
			continue
		}
		seen[line.CartItemID] = struct{}{}
		lines = append(lines, line)
	}
	return lines, nil
}
