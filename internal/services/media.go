package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "ephemeral-photo-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3MediaStore issues pre-signed S3 upload URLs for post images
type S3MediaStore struct {
	presigner *s3.PresignClient
	bucket    string
	region    string
	endpoint  string
	expiry    time.Duration
}

// NewS3MediaStore creates a media store from the AWS section of the config.
// Static credentials are used when set, otherwise the default chain applies.
func NewS3MediaStore(ctx context.Context, cfg appconfig.AWSConfig, expiry time.Duration) (*S3MediaStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint != "" && !strings.Contains(endpoint, "://") {
		scheme := "https://"
		if cfg.DisableSSL {
			scheme = "http://"
		}
		endpoint = scheme + endpoint
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3MediaStore{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		region:    cfg.Region,
		endpoint:  endpoint,
		expiry:    expiry,
	}, nil
}

// NoMediaStore is used when no bucket is configured. Every post gets the
// fallback media reference.
type NoMediaStore struct{}

// PresignUpload always fails
func (NoMediaStore) PresignUpload(context.Context, string, string) (string, string, error) {
	return "", "", fmt.Errorf("no media bucket configured")
}

// PresignUpload returns a PUT URL for key and the public URL the object will have
func (m *S3MediaStore) PresignUpload(ctx context.Context, key, contentType string) (string, string, error) {
	request, err := m.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = m.expiry
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return request.URL, m.publicURL(key), nil
}

func (m *S3MediaStore) publicURL(key string) string {
	if m.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", m.endpoint, m.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key)
}

// mediaKey builds the object key: {owner_id}/{post_id}.{ext}
func mediaKey(ownerID, postID, contentType string) string {
	ext := "jpg"
	switch contentType {
	case "image/png":
		ext = "png"
	case "image/heic":
		ext = "heic"
	case "image/webp":
		ext = "webp"
	}
	return fmt.Sprintf("%s/%s.%s", ownerID, postID, ext)
}
