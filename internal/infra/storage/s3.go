package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/adlens/internal/domain/analysis"
)

// S3Storage stores uploaded images in any S3-compatible bucket.
type S3Storage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	logger        *slog.Logger
}

// NewS3Storage constructs the storage adapter.
func NewS3Storage(endpoint, accessKey, secretKey, bucket, region, publicBaseURL string, logger *slog.Logger) (*S3Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Storage{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.With("component", "storage.s3"),
	}, nil
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Put uploads an image to the bucket.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, mimeType string) (analysis.StoredObject, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return analysis.StoredObject{}, err
	}
	reader := bytes.NewReader(data)
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType:      mimeType,
		DisableMultipart: len(data) < 5*1024*1024, // small uploads as single part
	})
	if err != nil {
		return analysis.StoredObject{}, err
	}
	return analysis.StoredObject{
		Key:      key,
		Size:     info.Size,
		MimeType: mimeType,
		ETag:     info.ETag,
	}, nil
}

// PublicURL returns the browser-reachable URL for a stored key.
func (s *S3Storage) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	scheme := "http"
	if s.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, key)
}

// Delete removes an object.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

var _ analysis.ObjectStorage = (*S3Storage)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		raw = parts[0]
	}
	return raw
}
