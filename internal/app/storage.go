package app

import (
	"context"

	"github.com/adanyl0v/go-task-api/internal/config"
	"github.com/adanyl0v/go-task-api/internal/storage"
)

var (
	globalStorage storage.Storage
	// globalUploadDir is empty unless images live on the local disk.
	globalUploadDir string
	globalS3Storage *storage.S3Storage
)

func MustInitStorage() {
	cfg := config.Global().Storage

	switch cfg.Driver {
	case config.StorageDriverLocal:
		local, err := storage.NewLocal(globalLogger, cfg.Dir)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("dir", cfg.Dir).
				Msg("failed to init local storage")
			panic(err)
		}
		globalStorage = local
		globalUploadDir = local.Dir()
		globalLogger.Info().
			Str("dir", globalUploadDir).
			Msg("initialized local storage")
	case config.StorageDriverS3:
		s3Storage, err := storage.NewS3(context.Background(), globalLogger, cfg.S3)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("bucket", cfg.S3.Bucket).
				Msg("failed to init s3 storage")
			panic(err)
		}
		globalStorage = s3Storage
		globalS3Storage = s3Storage
		globalLogger.Info().
			Str("bucket", cfg.S3.Bucket).
			Str("region", cfg.S3.Region).
			Msg("initialized s3 storage")
	}
}
