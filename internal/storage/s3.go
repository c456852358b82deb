package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3Config struct {
	Bucket     string
	Region     string
	URLExpires time.Duration
}

// S3Storage puts attachments into a bucket and hands out presigned GET URLs.
type S3Storage struct {
	logger  *slog.Logger
	client  *s3.Client
	presign *s3.PresignClient
	config  S3Config
}

func NewS3Storage(ctx context.Context, logger *slog.Logger, s3Config S3Config) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s3Config.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Storage{
		logger:  logger,
		client:  client,
		presign: s3.NewPresignClient(client),
		config:  s3Config,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, file File) (UploadResult, error) {
	key := objectKey(file.Name)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
		Body:   file.Body,
		Metadata: map[string]string{
			"original-filename": file.Name,
			"upload-time":       time.Now().UTC().Format(time.RFC3339),
		},
	}
	if file.Type != "" {
		input.ContentType = aws.String(file.Type)
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("S3 upload failed", "key", key, "error", err)
		return UploadResult{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.config.URLExpires
	})
	if err != nil {
		s.logger.Error("S3 presign failed", "key", key, "error", err)
		return UploadResult{}, fmt.Errorf("failed to create presigned URL: %w", err)
	}

	return UploadResult{
		FileID:      key,
		FileName:    file.Name,
		DownloadURL: request.URL,
	}, nil
}

// objectKey prefixes the sanitized name with a random uuid so uploads of the
// same name never collide.
func objectKey(filename string) string {
	return uuid.NewString() + "_" + sanitizeFilename(filename)
}
