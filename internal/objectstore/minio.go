package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds MinIO/S3 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
}

// MinioStore implements Store using the minio-go SDK.
type MinioStore struct {
	client *minio.Client
	cfg    *Config
}

// NewMinioStore creates a MinIO/S3 client from config.
func NewMinioStore(cfg *Config) (*MinioStore, error) {
	if cfg == nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("config is required"))
	}
	if cfg.Endpoint == "" {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("endpoint is required"))
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, wrapError(CodeAuthInvalid, false, fmt.Errorf("credentials are required"))
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("failed to create minio client: %w", err))
	}

	return &MinioStore{client: client, cfg: cfg}, nil
}

func (s *MinioStore) Ping(ctx context.Context) error {
	// List buckets as a health check
	_, err := s.client.ListBuckets(ctx)
	if err != nil {
		return classifyMinioError(err)
	}
	return nil
}

func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		return wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket name is required"))
	}

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return classifyMinioError(err)
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{
		Region: s.cfg.Region,
	})
	if err != nil {
		return classifyMinioError(err)
	}
	return nil
}

func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if bucket == "" {
		return false, nil
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, classifyMinioError(err)
	}
	return exists, nil
}

func (s *MinioStore) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, classifyMinioError(err)
	}
	infos := make([]BucketInfo, 0, len(buckets))
	for _, b := range buckets {
		infos = append(infos, BucketInfo{Name: b.Name, CreationDate: b.CreationDate})
	}
	return infos, nil
}

func (s *MinioStore) PresignedPutURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if bucket == "" || key == "" {
		return "", wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket and key are required"))
	}
	u, err := s.client.PresignedPutObject(ctx, bucket, key, expiry)
	if err != nil {
		return "", classifyMinioError(err)
	}
	return u.String(), nil
}

func (s *MinioStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		return nil, wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket is required"))
	}
	if key == "" {
		return nil, wrapError(CodeObjectNotFound, false, fmt.Errorf("object key is required"))
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinioError(err)
	}
	return data, nil
}

// classifyMinioError converts minio-go errors to our structured Error type.
func classifyMinioError(err error) *Error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())

	if minioErr, ok := err.(minio.ErrorResponse); ok {
		switch minioErr.Code {
		case "NoSuchBucket":
			return wrapError(CodeBucketNotFound, false, err)
		case "NoSuchKey":
			return wrapError(CodeObjectNotFound, false, err)
		case "AccessDenied":
			return wrapError(CodePermissionDenied, false, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return wrapError(CodeAuthInvalid, false, err)
		}
	}

	// Fallback to string matching
	if strings.Contains(errStr, "no such bucket") {
		return wrapError(CodeBucketNotFound, false, err)
	}
	if strings.Contains(errStr, "no such key") || strings.Contains(errStr, "not found") || strings.Contains(errStr, "does not exist") {
		return wrapError(CodeObjectNotFound, false, err)
	}
	if strings.Contains(errStr, "access denied") || strings.Contains(errStr, "permission") {
		return wrapError(CodePermissionDenied, false, err)
	}
	if strings.Contains(errStr, "invalid access key") || strings.Contains(errStr, "signature") || strings.Contains(errStr, "authentication") {
		return wrapError(CodeAuthInvalid, false, err)
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return wrapError(CodeTimeout, true, err)
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "unreachable") || strings.Contains(errStr, "no such host") {
		return wrapError(CodeEndpointUnreachable, true, err)
	}

	return wrapError(CodeStorageFailed, true, err)
}
