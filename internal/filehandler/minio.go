package filehandler

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectScheme prefixes locations of outputs stored in a bucket
const ObjectScheme = "s3://"

// MinIOConfig holds object storage settings
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Prefix        string
	UseSSL        bool
	RemoveLocal   bool
	PresignExpiry time.Duration
}

// MinIOHandler uploads outputs to a bucket and returns s3://bucket/key
type MinIOHandler struct {
	client *minio.Client
	cfg    MinIOConfig
}

// NewMinIOHandler connects to the endpoint and makes sure the bucket exists
func NewMinIOHandler(ctx context.Context, cfg MinIOConfig) (*MinIOHandler, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	cfg.Bucket = bucket
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}
	return &MinIOHandler{client: client, cfg: cfg}, nil
}

func (h *MinIOHandler) Handle(ctx context.Context, localPath string) (string, error) {
	objectName := ObjectName(h.cfg.Prefix, localPath)

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := h.client.FPutObject(ctx, h.cfg.Bucket, objectName, localPath, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	if h.cfg.RemoveLocal {
		if err := os.Remove(localPath); err != nil {
			return "", fmt.Errorf("failed to remove uploaded output: %w", err)
		}
	}
	return ObjectScheme + h.cfg.Bucket + "/" + objectName, nil
}

// Resolve turns an s3:// location into a presigned download URL
func (h *MinIOHandler) Resolve(ctx context.Context, location string) (string, error) {
	bucket, objectName, ok := ParseObjectLocation(location)
	if !ok {
		return "", fmt.Errorf("not an object location: %s", location)
	}
	u, err := h.client.PresignedGetObject(ctx, bucket, objectName, h.cfg.PresignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", location, err)
	}
	return u.String(), nil
}

// ObjectName builds the key an output is stored under
func ObjectName(prefix, localPath string) string {
	name := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// ParseObjectLocation splits s3://bucket/key into its parts
func ParseObjectLocation(location string) (bucket, objectName string, ok bool) {
	rest, found := strings.CutPrefix(location, ObjectScheme)
	if !found {
		return "", "", false
	}
	bucket, objectName, found = strings.Cut(rest, "/")
	if !found || bucket == "" || objectName == "" {
		return "", "", false
	}
	return bucket, objectName, true
}
