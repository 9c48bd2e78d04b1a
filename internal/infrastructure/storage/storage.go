// Package storage provides artifact storage for generated reports and exports using MinIO S3.
package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
)

// Artifact describes a stored object.
type Artifact struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// MinIOService stores artifacts in a private bucket and hands out presigned URLs.
type MinIOService struct {
	client        *minio.Client
	bucket        string
	basePath      string
	presignExpiry time.Duration
}

// NewMinIOService creates a new MinIO storage service.
// It initializes the client and ensures the bucket exists.
func NewMinIOService(ctx context.Context, cfg config.StorageConfig) (*MinIOService, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}

	if cfg.UseSSL && cfg.InsecureSkipVerify {
		opts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // opt-in for self-signed certs
			},
		}
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	svc := &MinIOService{
		client:        client,
		bucket:        cfg.Bucket,
		basePath:      strings.Trim(cfg.BasePath, "/"),
		presignExpiry: expiry,
	}

	if err := svc.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	log.Info().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Bool("ssl", cfg.UseSSL).
		Msg("MinIO storage service initialized")

	return svc, nil
}

// ensureBucket creates the bucket if it doesn't exist. Artifacts stay private.
func (s *MinIOService) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	log.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

// ObjectKey builds {basePath}/{folder}/{name}.
func (s *MinIOService) ObjectKey(folder, name string) string {
	return ObjectKey(s.basePath, folder, name)
}

// ObjectKey joins a base path, folder and file name into an object key.
func ObjectKey(basePath, folder, name string) string {
	return strings.TrimPrefix(path.Join(basePath, folder, path.Base(name)), "/")
}

// Put uploads data and returns the artifact with a presigned download URL.
func (s *MinIOService) Put(ctx context.Context, folder, name string, data []byte, contentType string) (*Artifact, error) {
	key := s.ObjectKey(folder, name)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u, err := s.PresignedURL(ctx, key)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("object", key).Int("size", len(data)).Msg("artifact uploaded")

	return &Artifact{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         u,
		ExpiresAt:   time.Now().UTC().Add(s.presignExpiry),
	}, nil
}

// PresignedURL returns a time-limited GET URL for key.
func (s *MinIOService) PresignedURL(ctx context.Context, key string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

// DeleteObject deletes an artifact by key.
func (s *MinIOService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	log.Debug().Str("object", key).Msg("object deleted from storage")
	return nil
}

// Ping checks that the bucket is reachable.
func (s *MinIOService) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
