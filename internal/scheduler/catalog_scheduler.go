package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

const defaultRefreshTimeout = 30 * time.Second

// CatalogScheduler periodically refreshes the cached product catalog
type CatalogScheduler struct {
	cron    *cron.Cron
	catalog service.CatalogService
	spec    string
	timeout time.Duration
}

// NewCatalogScheduler creates a scheduler running on the given cron spec.
// timeout bounds a single refresh.
func NewCatalogScheduler(catalog service.CatalogService, spec string, timeout time.Duration) *CatalogScheduler {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &CatalogScheduler{
		cron:    cron.New(),
		catalog: catalog,
		spec:    spec,
		timeout: timeout,
	}
}

// Start registers the refresh job and starts the cron loop
func (s *CatalogScheduler) Start() error {
	if s.spec == "" {
		logger.Info("Catalog refresh scheduler disabled", nil)
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, s.RunOnce)
	if err != nil {
		logger.Error("Failed to add cron job for catalog refresh", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Catalog refresh scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce performs one refresh, logging the outcome
func (s *CatalogScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logger.Debug("Starting scheduled catalog refresh", nil)
	err := s.catalog.Refresh(ctx)
	switch {
	case err == nil:
		logger.Info("Scheduled catalog refresh finished", map[string]interface{}{
			"products": s.catalog.Status().ProductCount,
		})
	case errors.Is(err, service.ErrStaleRefresh):
		logger.Debug("Scheduled catalog refresh superseded", nil)
	default:
		logger.Error("Scheduled catalog refresh failed", err)
	}
}

// Entries reports how many jobs are registered
func (s *CatalogScheduler) Entries() int {
	return len(s.cron.Entries())
}

// Stop halts the scheduler and waits for a running refresh to finish
func (s *CatalogScheduler) Stop() {
	logger.Info("Stopping catalog refresh scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Catalog refresh scheduler stopped", nil)
}
