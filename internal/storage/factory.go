package storage

import (
	"context"
	"fmt"
	"log/slog"

	appconfig "github.com/freekieb7/casetrack/internal/config"
)

type Factory struct {
	logger *slog.Logger
	config appconfig.StorageConfig
}

func NewFactory(logger *slog.Logger, config appconfig.StorageConfig) *Factory {
	return &Factory{
		logger: logger,
		config: config,
	}
}

// CreateUploader builds the uploader selected by the storage type.
func (f *Factory) CreateUploader(ctx context.Context) (Uploader, error) {
	switch StorageType(f.config.Type) {
	case StorageTypeB2:
		b2 := f.config.B2
		if b2.KeyID == "" || b2.ApplicationKey == "" || b2.BucketID == "" || b2.BucketName == "" {
			return nil, fmt.Errorf("B2 storage requires key id, application key, bucket id and bucket name")
		}
		return NewB2Client(f.logger, B2Config{
			AuthorizeURL:   b2.AuthorizeURL,
			KeyID:          b2.KeyID,
			ApplicationKey: b2.ApplicationKey,
			BucketID:       b2.BucketID,
			BucketName:     b2.BucketName,
			Timeout:        f.config.HTTPTimeout,
		}), nil

	case StorageTypeS3:
		if f.config.S3.Bucket == "" || f.config.S3.Region == "" {
			return nil, fmt.Errorf("S3 storage requires STORAGE_S3_BUCKET and STORAGE_S3_REGION")
		}
		return NewS3Storage(ctx, f.logger, S3Config{
			Bucket:     f.config.S3.Bucket,
			Region:     f.config.S3.Region,
			URLExpires: f.config.S3.URLExpires,
		})

	case StorageTypeLocal:
		basePath := f.config.LocalPath
		if basePath == "" {
			basePath = "./uploads"
		}
		return NewLocalStorage(f.logger, basePath, f.config.LocalBaseURL)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", f.config.Type)
	}
}
