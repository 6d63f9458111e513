package storage

import (
	"context"
	"fmt"

	"ideanest-backend/internal/config"
)

// Open builds the ObjectStore selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, S3Config{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.Bucket,
			ForcePathStyle: cfg.S3ForcePathStyle,
			PublicBaseURL:  cfg.S3PublicBaseURL,
		})
	case "supabase":
		return &Supabase{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey, Bucket: cfg.Bucket}, nil
	case "", "memory":
		return NewMemory(cfg.Bucket), nil
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
}
