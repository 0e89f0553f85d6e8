package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/masumrana0/Uploader/internal/config"
)

// Open builds the object store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case config.DriverS3, "":
		return NewS3Store(ctx, S3Config{
			Region:     cfg.Region,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			Bucket:     cfg.Bucket,
			Endpoint:   cfg.Endpoint,
			PublicBase: cfg.PublicBase,
		})
	case config.DriverMinio:
		return NewMinioStore(ctx, MinioConfig{
			Endpoint:   cfg.Endpoint,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			Bucket:     cfg.Bucket,
			Region:     cfg.Region,
			UseSSL:     cfg.UseSSL,
			PublicBase: cfg.PublicBase,
		})
	case config.DriverMemory:
		base := cfg.PublicBase
		if base == "" {
			base = "http://localhost/objects"
		}
		return NewMemoryStore(base), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ResolverFor returns a KeyResolver that also recognises the public URLs of
// store.
func ResolverFor(store ObjectStore) KeyResolver {
	// PublicURL of an empty key is the bare public base followed by "/".
	return NewKeyResolver(store.PublicURL(""))
}
