package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/db"
	"github.com/ikkim/storefront/pkg/logger"
	appredis "github.com/ikkim/storefront/pkg/redis"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Open builds the KVStore selected by cfg.Storage.Driver. The returned close
// func releases the backend connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (KVStore, func() error, error) {
	driver := strings.ToLower(cfg.Storage.Driver)
	logger.Info("Opening cart storage", map[string]interface{}{
		"driver": driver,
	})

	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), noopClose, nil

	case DriverRedis:
		if err := appredis.Init(&cfg.Redis); err != nil {
			return nil, noopClose, err
		}
		return NewRedisStore(appredis.GetClient(), cfg.Redis.TTL), appredis.Close, nil

	case DriverPostgres:
		if err := db.Initialize(&cfg.Database); err != nil {
			return nil, noopClose, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, noopClose, err
		}
		return NewSQLStore(db.GetDB()), db.Close, nil

	case DriverS3:
		store := NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.Prefix)
		return store, noopClose, nil
	}

	return nil, noopClose, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func noopClose() error { return nil }
