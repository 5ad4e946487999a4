// Package objectstore provides document storage on MinIO/S3.
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BucketInfo describes a bucket visible to the service account.
type BucketInfo struct {
	Name         string    `json:"name"`
	CreationDate time.Time `json:"creationDate"`
}

// Store defines the object-storage operations the service relies on.
type Store interface {
	Ping(ctx context.Context) error
	EnsureBucket(ctx context.Context, bucket string) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	ListBuckets(ctx context.Context) ([]BucketInfo, error)
	// PresignedPutURL returns a URL a client can PUT an object to directly.
	// Uploads only ever happen through these URLs, never server-side.
	PresignedPutURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// OrganizationBucketName derives a bucket name for an organization,
// sanitized to S3 naming rules (lowercase, hyphens for underscores and
// spaces). Names must come out between 3 and 63 characters.
func OrganizationBucketName(prefix, organizationID string) (string, error) {
	sanitized := strings.ToLower(organizationID)
	sanitized = strings.ReplaceAll(sanitized, "_", "-")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	name := fmt.Sprintf("%s-%s", prefix, sanitized)
	if len(name) < 3 || len(name) > 63 {
		return "", fmt.Errorf("organization %q produces invalid bucket name %q", organizationID, name)
	}
	return name, nil
}
