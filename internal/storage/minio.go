package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/masumrana0/Uploader/pkg/logger"
)

// MinioConfig encapsulates the connection info for an S3-compatible service.
type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Region     string
	UseSSL     bool
	PublicBase string
}

// MinioStore implements ObjectStore on MinIO or any S3-compatible backend.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
	log        zerolog.Logger
}

// NewMinioStore creates a MinIO client, ensures the bucket exists, and
// returns a ready-to-use store.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	log := logger.Component("minio")

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("created bucket")
	}

	publicBase := cfg.PublicBase
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &MinioStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		log:        log,
	}, nil
}

// Put streams the body to the bucket. Size must be the exact byte count.
func (s *MinioStore) Put(ctx context.Context, in PutInput) (PutResult, error) {
	_, err := s.client.PutObject(ctx, s.bucket, in.Key, in.Body, in.Size, minio.PutObjectOptions{
		ContentType:        in.ContentType,
		ContentDisposition: ContentDispositionInline,
		CacheControl:       CacheControlImmutable,
		UserMetadata:       in.Metadata,
	})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		s.log.Error().
			Err(err).
			Str("key", in.Key).
			Int("status", resp.StatusCode).
			Msg("put object failed")
		return PutResult{}, fmt.Errorf("put object %q: %w", in.Key, err)
	}
	return PutResult{URL: s.PublicURL(in.Key)}, nil
}

// Delete removes key after confirming it exists; RemoveObject alone succeeds
// for missing keys.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
			return fmt.Errorf("stat object %q: %w", key, ErrObjectNotFound)
		}
		return fmt.Errorf("stat object %q: %w", key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the browser-accessible URL for the given key.
func (s *MinioStore) PublicURL(key string) string {
	return JoinURL(s.publicBase, key)
}

var _ ObjectStore = (*MinioStore)(nil)
