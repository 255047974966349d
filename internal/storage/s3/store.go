// Package s3 implements the attachment blob store on AWS S3. MinIO and other
// S3-compatible services work through a custom endpoint with path-style
// addressing.
package s3

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"farmbooks/internal/config"
	"farmbooks/internal/port"
)

type store struct {
	bucket   string
	api      *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
}

// NewStore builds a BlobStore bound to the configured attachment bucket.
// Static credentials are optional; without them the default AWS provider
// chain applies.
func NewStore(ctx context.Context, cfg *config.S3Config) (port.BlobStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3.NewStore: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Printf("s3: attachment store ready (bucket=%s region=%s)", cfg.Bucket, cfg.Region)
	return &store{
		bucket:   cfg.Bucket,
		api:      api,
		presign:  s3.NewPresignClient(api),
		uploader: manager.NewUploader(api),
	}, nil
}

// Put streams the body to the store. The uploader switches to multipart
// transfers for large scans on its own.
func (s *store) Put(ctx context.Context, input port.PutInput) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(input.Key),
		Body:        input.Body,
		ContentType: aws.String(input.ContentType),
	})
	if err != nil {
		return fmt.Errorf("s3Store.Put %s: %w", input.Key, err)
	}
	return nil
}

func (s *store) Remove(ctx context.Context, key string) error {
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("s3Store.Remove %s: %w", key, err)
	}
	return nil
}

func (s *store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3Store.PresignGet %s: %w", key, err)
	}
	return req.URL, nil
}
