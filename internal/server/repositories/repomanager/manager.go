// Package repomanager opens the credential store selected by configuration.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// Open returns the users.Repository named by cfg.StoreBackend. SQL backends
// are migrated before they are returned. The caller owns the repository and
// must Close it.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (users.Repository, error) {
	logger.Info(ctx, "opening credential store", "backend", cfg.StoreBackend)

	switch cfg.StoreBackend {
	case config.StoreMemory, "":
		return users.NewMemoryRepository(), nil
	case config.StorePostgres:
		return openSQL(ctx, driverPgx, cfg.DatabaseDSN)
	case config.StoreSQLite:
		return openSQL(ctx, driverSQLite, cfg.DatabaseDSN)
	case config.StoreBolt:
		return users.OpenBoltRepository(cfg.BoltPath)
	case config.StoreMongo:
		return users.OpenMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.StoreS3:
		return users.OpenS3Repository(ctx, users.S3Options{
			User:         cfg.S3RootUser,
			Password:     cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case config.StoreRedis:
		return users.OpenRedisRepository(ctx, users.RedisOptions{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
