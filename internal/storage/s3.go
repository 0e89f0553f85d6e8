package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/masumrana0/Uploader/pkg/logger"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config configures the AWS S3 driver.
type S3Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Endpoint   string // optional, e.g. http://localstack:4566
	PublicBase string
}

// S3Store implements ObjectStore on AWS S3.
type S3Store struct {
	api        S3API
	bucket     string
	publicBase string
	log        zerolog.Logger
}

// NewS3Store loads the AWS configuration and builds an S3 client. Static
// credentials are used when both keys are set, otherwise the default chain.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBase
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
	return NewS3StoreWithClient(client, cfg.Bucket, publicBase), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(api S3API, bucket, publicBase string) *S3Store {
	return &S3Store{
		api:        api,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		log:        logger.Component("s3"),
	}
}

func (s *S3Store) Put(ctx context.Context, in PutInput) (PutResult, error) {
	input := &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(in.Key),
		Body:               in.Body,
		ContentType:        aws.String(in.ContentType),
		ContentDisposition: aws.String(ContentDispositionInline),
		CacheControl:       aws.String(CacheControlImmutable),
		Metadata:           in.Metadata,
	}
	if in.Size >= 0 {
		input.ContentLength = aws.Int64(in.Size)
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		event := s.log.Error().Err(err).Str("key", in.Key)
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			event = event.Str("code", apiErr.ErrorCode())
		}
		event.Msg("put object failed")
		return PutResult{}, fmt.Errorf("put object %q: %w", in.Key, err)
	}
	return PutResult{URL: s.PublicURL(in.Key)}, nil
}

// Delete removes key after confirming it exists; DeleteObject alone
// succeeds for missing keys.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("head object %q: %w", key, ErrObjectNotFound)
		}
		return fmt.Errorf("head object %q: %w", key, err)
	}

	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("delete object %q: %w", key, ErrObjectNotFound)
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (s *S3Store) PublicURL(key string) string {
	return JoinURL(s.publicBase, key)
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}

var _ ObjectStore = (*S3Store)(nil)
