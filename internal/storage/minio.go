package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docvault/internal/domain"
	"docvault/internal/domain/services"
)

// Config holds MinIO connection settings
type Config struct {
	Endpoint       string
	PublicEndpoint string // Optional; presigns URLs for clients outside the network
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
}

// MinioStorage implements services.BlobStorage on a single bucket
type MinioStorage struct {
	client *minio.Client
	public *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioStorage connects to MinIO and creates the bucket when missing
func NewMinioStorage(ctx context.Context, cfg Config, logger *slog.Logger) (*MinioStorage, error) {
	client, err := newClient(cfg.Endpoint, cfg)
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	public := client
	if cfg.PublicEndpoint != "" && cfg.PublicEndpoint != cfg.Endpoint {
		// Presigning is computed locally; the region must be set so the
		// public client never has to reach its endpoint
		if public, err = newClient(cfg.PublicEndpoint, cfg); err != nil {
			return nil, fmt.Errorf("init public minio client: %w", err)
		}
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("created bucket", "bucket", cfg.Bucket)
	}

	return &MinioStorage{client: client, public: public, bucket: cfg.Bucket, logger: logger}, nil
}

func newClient(endpoint string, cfg Config) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
}

var _ services.BlobStorage = (*MinioStorage)(nil)

// ObjectKey builds the storage key for a new blob: a fresh uuid directory
// holding the sanitized file name
func ObjectKey(filename string) string {
	return uuid.NewString() + "/" + SanitizeFilename(filename)
}

// SanitizeFilename strips directories and characters that break object keys
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "file"
	}
	return name
}

// Put uploads content under a new key. size may be -1 when unknown.
func (s *MinioStorage) Put(ctx context.Context, filename string, content io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.logger.Debug("stored blob", "key", key, "size", info.Size)
	return key, nil
}

// Get opens a blob for reading
func (s *MinioStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return obj, nil
}

// Delete removes a blob; MinIO treats a missing key as success
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a time-limited GET URL on the internal endpoint
func (s *MinioStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return presign(ctx, s.client, s.bucket, key, ttl)
}

// PresignGetExternal returns a time-limited GET URL on the public endpoint
func (s *MinioStorage) PresignGetExternal(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return presign(ctx, s.public, s.bucket, key, ttl)
}

// Ping checks that the bucket is reachable
func (s *MinioStorage) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s is missing", s.bucket)
	}
	return nil
}

func presign(ctx context.Context, client *minio.Client, bucket, key string, ttl time.Duration) (string, error) {
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key: %w", domain.ErrValidation)
	}
	u, err := client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey"
	}
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
