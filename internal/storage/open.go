package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/radif/media/internal/config"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	switch cfg.Driver {
	case config.DriverMinio:
		s, err := NewMinioStore(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.PublicBase, cfg.UseSSL)
		if err != nil {
			return nil, err
		}
		log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("storage: using minio")
		return s, nil
	case config.DriverLocal:
		s, err := NewLocalStore(cfg.Root, cfg.PublicBase)
		if err != nil {
			return nil, err
		}
		log.Info().Str("root", cfg.Root).Msg("storage: using local directory")
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
