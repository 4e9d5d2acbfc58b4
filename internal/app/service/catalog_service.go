package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/catalog"
	"github.com/ikkim/storefront/pkg/logger"
)

var (
	ErrProductNotFound    = catalog.ErrProductNotFound
	ErrCatalogUnavailable = catalog.ErrUnavailable
	// ErrStaleRefresh means a newer refresh already landed; the result was dropped.
	ErrStaleRefresh = errors.New("stale catalog refresh discarded")
)

// CatalogSource is the read-only product API.
type CatalogSource interface {
	Products(ctx context.Context) ([]model.Product, error)
	Product(ctx context.Context, id int) (*model.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type CatalogStatus struct {
	Available    bool      `json:"available"`
	ProductCount int       `json:"product_count"`
	LastRefresh  time.Time `json:"last_refresh,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

type CatalogService interface {
	Refresh(ctx context.Context) error
	List(ctx context.Context, search, category string) ([]model.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Product(ctx context.Context, id int) (*model.Product, error)
	Status() CatalogStatus
}

type catalogService struct {
	source CatalogSource

	mu          sync.RWMutex
	products    []model.Product
	loaded      bool
	lastRefresh time.Time
	lastErr     error

	requested atomic.Uint64
	applied   uint64 // guarded by mu
}

func NewCatalogService(source CatalogSource) CatalogService {
	return &catalogService{source: source}
}

// Refresh fetches the catalog. On failure the previous catalog is kept. A
// result is applied only if no later-started refresh has been applied.
func (s *catalogService) Refresh(ctx context.Context) error {
	seq := s.requested.Add(1)
	logger.Debug("Refreshing catalog", map[string]interface{}{
		"seq": seq,
	})

	products, err := s.source.Products(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.applied {
		logger.Debug("Discarding stale catalog result", map[string]interface{}{
			"seq":     seq,
			"applied": s.applied,
		})
		return ErrStaleRefresh
	}
	s.applied = seq

	if err != nil {
		s.lastErr = err
		logger.Warn("Catalog refresh failed, keeping previous catalog", map[string]interface{}{
			"error":  err.Error(),
			"cached": len(s.products),
		})
		return err
	}

	s.products = products
	s.loaded = true
	s.lastErr = nil
	s.lastRefresh = time.Now()
	logger.Info("Catalog refreshed", map[string]interface{}{
		"count": len(products),
	})
	return nil
}

// List filters the cached catalog, loading it first if nothing has been
// fetched yet. A failed first load yields an empty list and the error.
func (s *catalogService) List(ctx context.Context, search, category string) ([]model.Product, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return []model.Product{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterProducts(s.products, search, category), nil
}

// Categories returns distinct categories in catalog order, asking the source
// directly when no catalog is cached.
func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return DistinctCategories(s.products), nil
	}
	s.mu.RUnlock()

	categories, err := s.source.Categories(ctx)
	if err != nil {
		return []string{}, err
	}
	return categories, nil
}

func (s *catalogService) Product(ctx context.Context, id int) (*model.Product, error) {
	s.mu.RLock()
	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			s.mu.RUnlock()
			return &p, nil
		}
	}
	loaded := s.loaded
	s.mu.RUnlock()

	product, err := s.source.Product(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			logger.Warn("Product lookup failed", map[string]interface{}{
				"product_id": id,
				"cached":     loaded,
				"error":      err.Error(),
			})
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) Status() CatalogStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := CatalogStatus{
		Available:    s.loaded && s.lastErr == nil,
		ProductCount: len(s.products),
		LastRefresh:  s.lastRefresh,
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}

func (s *catalogService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	err := s.Refresh(ctx)
	if errors.Is(err, ErrStaleRefresh) {
		return nil
	}
	return err
}

// FilterProducts keeps, in order, the products whose title or description
// contains search (case-insensitive) and whose category matches category.
// The category sentinel model.CategoryAll matches everything.
func FilterProducts(products []model.Product, search, category string) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.MatchesCategory(category) && p.MatchesSearch(search) {
			out = append(out, p)
		}
	}
	return out
}

func DistinctCategories(products []model.Product) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
